package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	for _, expr := range []string{"*/5 * * * *", "0 */5 * * * *", "@hourly", "@every 30s"} {
		_, err := ParseCron(expr)
		assert.NoError(t, err, expr)
	}
	_, err := ParseCron("")
	assert.Error(t, err)
	_, err = ParseCron("not a cron")
	assert.Error(t, err)
}

func TestCronScheduler_RegisterAndUnregister(t *testing.T) {
	cs := NewCronScheduler()

	require.NoError(t, cs.Register("b", "@hourly", func() {}))
	require.NoError(t, cs.Register("a", "0 0 * * * *", func() {}))
	assert.Equal(t, []string{"a", "b"}, cs.Registered())
	assert.Equal(t, "@hourly", cs.Expr("b"))

	assert.Error(t, cs.Register("a", "@hourly", func() {}), "duplicate name")
	assert.Error(t, cs.Register("c", "bogus", func() {}))
	assert.Error(t, cs.Register("d", "@hourly", nil))

	next, ok := cs.Next("a")
	assert.True(t, ok)
	assert.False(t, next.IsZero())
	_, ok = cs.Next("missing")
	assert.False(t, ok)

	require.NoError(t, cs.Unregister("a"))
	assert.Error(t, cs.Unregister("a"))
	assert.Equal(t, []string{"b"}, cs.Registered())
}
