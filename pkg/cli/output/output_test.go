package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr, oldNoColor := color.Output, color.Error, color.NoColor
	color.Output, color.Error, color.NoColor = &out, &errOut, true
	t.Cleanup(func() {
		color.Output, color.Error, color.NoColor = oldOut, oldErr, oldNoColor
	})
	return &out, &errOut
}

func TestTable_Render(t *testing.T) {
	out, _ := captureOutput(t)

	table := NewTable("ID", "STATUS")
	table.AddRow("run-1", "success")
	table.AddRow("run-22", "failed", "ignored")
	table.Render()
	assert.Equal(t, 2, table.Len())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID      STATUS", lines[0])
	assert.Equal(t, "------  -------", lines[1])
	assert.Equal(t, "run-1   success", lines[2])
	assert.Equal(t, "run-22  failed", lines[3])
}

func TestTable_PadsMultibyteCells(t *testing.T) {
	var buf bytes.Buffer
	color.NoColor = true
	table := NewTable("STAGE", "STATUS")
	table.AddRow("🪩 stage [1/2]", "ok")
	table.AddRow("x", "ok")
	table.RenderTo(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.IndexRune(lines[2], 'o'), len("🪩 stage [1/2]  "))
	assert.Equal(t, len([]rune(lines[2])), len([]rune(lines[3])))
}

func TestCelebrateAndFailure(t *testing.T) {
	out, errOut := captureOutput(t)

	Celebrate(1500 * time.Millisecond)
	Failure(errors.New("🛸 stage [2/2] 💅 ❌ tailwindcss failed with 1 error in 12 ms: boom"))

	assert.Equal(t, "🎉 Success in 1 seconds, 500 ms!\n", out.String())
	assert.Equal(t, "🛸 stage [2/2] 💅 ❌ tailwindcss failed with 1 error in 12 ms: boom\n", errOut.String())
}

func TestPrintJSON(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, PrintJSON(map[string]int{"stages": 2}))
	assert.Equal(t, "{\n  \"stages\": 2\n}\n", out.String())
}

func TestMessages(t *testing.T) {
	out, errOut := captureOutput(t)
	Success("done %d", 1)
	Info("info")
	Warning("careful")
	Error("bad %s", "thing")

	assert.Contains(t, out.String(), "✅ done 1")
	assert.Contains(t, out.String(), "ℹ️  info")
	assert.Contains(t, out.String(), "⚠️  careful")
	assert.Equal(t, "❌ bad thing\n", errOut.String())
	assert.Equal(t, "failed", Status("failed"))
}
