package bundle

import (
	"context"
	"strings"
	"testing"

	"github.com/LENAX/saucer/pkg/core/parallel"
	"github.com/LENAX/saucer/pkg/core/pipeline"
	"github.com/LENAX/saucer/pkg/core/stage"
	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_PipelineShape(t *testing.T) {
	s := newSite(t)
	p, err := NewDriver(s.cfg).Pipeline()
	require.NoError(t, err)

	stages := p.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "stage [1/2]", stages[0].Description())
	assert.Equal(t, "stage [2/2]", stages[1].Description())

	first := stages[0].(*stage.Stage).Body()
	outer, ok := first.(*parallel.Group)
	require.True(t, ok)
	assert.Equal(t, "🛸 stage [1/2] ", outer.Prefix())
	assert.Equal(t, "⬇️  installing npm dependencies", outer.Description())

	inner, ok := outer.Children()[0].(*parallel.Group)
	require.True(t, ok)
	assert.Equal(t, "🛵 handlebars & 🪣  bucket copy", inner.Description())

	second := stages[1].(*stage.Stage).Body()
	assert.Equal(t, "💅 tailwindcss & ⚡ webpack/swc", second.Description())
	assert.Equal(t, 1, strings.Count(task.Rendered(outer), StagePrefix))
}

func TestDriver_SkipNodeDeps(t *testing.T) {
	s := newSite(t)
	s.cfg.Saucer.Bundle.SkipNodeDeps = true
	p, err := NewDriver(s.cfg).Pipeline()
	require.NoError(t, err)

	first := p.Stages()[0].(*stage.Stage).Body()
	assert.Equal(t, "🛵 handlebars & 🪣  bucket copy", first.Description())
}

func TestDriver_OptionalStages(t *testing.T) {
	s := newSite(t)
	s.cfg.Saucer.Bundle.VerifyAssets = true
	s.cfg.Saucer.Publish.Enabled = true
	d := NewDriver(s.cfg)

	assert.Equal(t, 4, d.TotalStages())
	p, err := d.Pipeline()
	require.NoError(t, err)
	require.Len(t, p.Stages(), 4)
	assert.Equal(t, "stage [3/4]", p.Stages()[2].Description())
	assert.Equal(t, "🔎 asset check", p.Stages()[2].(*stage.Stage).Body().Description())
	assert.Equal(t, "publish to bucket", p.Stages()[3].(*stage.Stage).Body().Description())
}

func TestDriver_Steps(t *testing.T) {
	d := NewDriver(newSite(t).cfg)

	assert.Equal(t, []string{"bucket", "css", "deps", "html", "js", "publish", "verify"}, d.StepNames())
	step, err := d.Step("css")
	require.NoError(t, err)
	assert.Equal(t, "tailwindcss", step.Description())

	_, err = d.Step("lint")
	assert.Error(t, err)
}

func TestDriver_RunAllSucceeds(t *testing.T) {
	s := newSite(t)
	s.fakeNpm(t, "")
	s.cfg.Saucer.Bundle.VerifyAssets = true

	p, err := NewDriver(s.cfg).Pipeline()
	require.NoError(t, err)
	report := p.Execute(context.Background())

	require.NoError(t, report.Err)
	require.Len(t, report.Stages, 3)
	for _, sr := range report.Stages {
		assert.Equal(t, pipeline.StatusSuccess, sr.Status(), sr.Description)
	}
	assert.FileExists(t, s.cfg.Saucer.Bundle.HTML.PublicFile)
}

func TestDriver_CSSFailureStopsAtStageTwo(t *testing.T) {
	s := newSite(t)
	s.fakeNpm(t, "build:css")
	s.cfg.Saucer.Bundle.VerifyAssets = true

	p, err := NewDriver(s.cfg).Pipeline()
	require.NoError(t, err)
	report := p.Execute(context.Background())

	require.Error(t, report.Err)
	assert.Equal(t, pipeline.StatusSuccess, report.Stages[0].Status())
	assert.Equal(t, pipeline.StatusFailed, report.Stages[1].Status())
	assert.Equal(t, pipeline.StatusSkipped, report.Stages[2].Status())

	msg := report.Err.Error()
	assert.Contains(t, msg, "tailwindcss")
	assert.Contains(t, msg, "exit status 1")
	assert.NotContains(t, msg, "webpack/swc")
}
