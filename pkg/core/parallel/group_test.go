package parallel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LENAX/saucer/pkg/core/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stagePrefix = "🛸 stage "

func sleepTask(desc, prefix string, d time.Duration, err error) *task.FuncTask {
	return task.NewFuncTask(desc, prefix, func(ctx context.Context) error {
		time.Sleep(d)
		return err
	})
}

func TestGroup_Prefix(t *testing.T) {
	g := New(task.NewEmptyTask(), task.NewEmptyTask(), stagePrefix, 2, 3)
	assert.Equal(t, "🛸 stage [2/3] ", g.Prefix())
}

func TestGroup_Description(t *testing.T) {
	a := task.NewFuncTask("handlebars", "🛵 ", nil)
	b := task.NewFuncTask("bucket copy", "🪣  ", nil)

	g := New(a, b, stagePrefix, 1, 2)
	assert.Equal(t, "🛵 handlebars & 🪣  bucket copy", g.Description())

	// 一个子任务为空时只显示另一个
	single := New(a, task.NewEmptyTask(), stagePrefix, 1, 2)
	assert.Equal(t, "🛵 handlebars", single.Description())

	// 两个都为空时返回位置标签
	empty := New(task.NewEmptyTask(), task.NewEmptyTask(), stagePrefix, 1, 2)
	assert.Equal(t, "🛸 stage [1/2] ", empty.Description())
}

func TestGroup_NestedDescriptionDoesNotRepeatPrefix(t *testing.T) {
	a := task.NewFuncTask("A", "", nil)
	b := task.NewFuncTask("B", "", nil)
	c := task.NewFuncTask("C", "", nil)

	inner := New(a, b, stagePrefix, 1, 2)
	outer := New(inner, c, stagePrefix, 1, 2)

	rendered := task.Rendered(outer)
	assert.Equal(t, 1, strings.Count(rendered, stagePrefix), rendered)
	assert.Equal(t, "C", outer.Description())
	assert.Len(t, outer.Children(), 2)
}

func TestGroup_RunsChildrenConcurrently(t *testing.T) {
	a := sleepTask("A", "", 100*time.Millisecond, nil)
	b := sleepTask("B", "", 150*time.Millisecond, nil)

	timer := task.StartTimer()
	err := New(a, b, stagePrefix, 1, 1).Run(context.Background())
	elapsed := timer.Stop()

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 240*time.Millisecond, "children should overlap, got %s", elapsed)
}

func TestGroup_SingleFailureNamesChildOnce(t *testing.T) {
	a := sleepTask("css", "💅 ", 10*time.Millisecond, errors.New("exit status 1"))
	b := sleepTask("js", "⚡ ", 10*time.Millisecond, nil)

	err := New(a, b, stagePrefix, 2, 2).Run(context.Background())
	require.Error(t, err)

	var groupErr *GroupError
	require.True(t, errors.As(err, &groupErr))
	require.Len(t, groupErr.Causes(), 1)
	assert.Equal(t, "css", groupErr.Causes()[0].Description)

	msg := err.Error()
	assert.Equal(t, 1, strings.Count(msg, "css"), msg)
	assert.NotContains(t, msg, "js")
	assert.Contains(t, msg, "failed with 1 error in")
	assert.Contains(t, msg, "exit status 1")
	assert.True(t, strings.HasPrefix(msg, "🛸 stage [2/2] 💅 ❌ css"), msg)
}

func TestGroup_SecondChildFailure(t *testing.T) {
	a := sleepTask("css", "", 0, nil)
	b := sleepTask("js", "", 0, errors.New("bad bundle"))

	err := New(a, b, stagePrefix, 2, 2).Run(context.Background())

	var groupErr *GroupError
	require.ErrorAs(t, err, &groupErr)
	require.Len(t, groupErr.Causes(), 1)
	assert.Equal(t, "js", groupErr.Causes()[0].Description)
}

func TestGroup_DoubleFailureReportsBoth(t *testing.T) {
	errA := errors.New("first broke")
	errB := errors.New("second broke")
	a := sleepTask("A", "", 10*time.Millisecond, errA)
	b := sleepTask("B", "", 30*time.Millisecond, errB)

	err := New(a, b, stagePrefix, 1, 1).Run(context.Background())
	require.Error(t, err)

	var groupErr *GroupError
	require.ErrorAs(t, err, &groupErr)
	causes := groupErr.Causes()
	require.Len(t, causes, 2)
	assert.Equal(t, "A", causes[0].Description)
	assert.Equal(t, "B", causes[1].Description)

	msg := err.Error()
	assert.Contains(t, msg, "failed with 2 errors in")
	assert.Contains(t, msg, "'A & B'")
	assert.Contains(t, msg, "first broke")
	assert.Contains(t, msg, "second broke")
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestGroup_FailureDoesNotCancelSibling(t *testing.T) {
	var finished atomic.Bool
	fast := sleepTask("fast", "", 0, errors.New("fast failure"))
	slow := task.NewFuncTask("slow", "", func(ctx context.Context) error {
		time.Sleep(80 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	err := New(fast, slow, stagePrefix, 1, 1).Run(context.Background())

	require.Error(t, err)
	assert.True(t, finished.Load(), "sibling must run to completion")
}

func TestGroup_PanicBecomesError(t *testing.T) {
	boom := task.NewFuncTask("boom", "", func(ctx context.Context) error {
		panic("kaboom")
	})
	ok := sleepTask("ok", "", 0, nil)

	err := New(boom, ok, stagePrefix, 1, 1).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestGroup_NestedSuppressedFailure(t *testing.T) {
	a := sleepTask("handlebars", "🛵 ", 0, errors.New("template missing"))
	b := sleepTask("bucket copy", "🪣  ", 0, nil)
	deps := sleepTask("installing npm dependencies", "⬇️  ", 0, nil)

	inner := New(a, b, stagePrefix, 1, 2)
	outer := New(inner, deps, stagePrefix, 1, 2)

	err := outer.Run(context.Background())
	require.Error(t, err)

	msg := err.Error()
	assert.Equal(t, 1, strings.Count(msg, "handlebars"), msg)
	assert.Contains(t, msg, "template missing")
	assert.NotContains(t, msg, "installing npm dependencies")
}

func TestGroup_EmitsNodeEvents(t *testing.T) {
	var mu sync.Mutex
	events := map[string]task.EventKind{}
	obs := task.ObserverFunc(func(e task.Event) {
		mu.Lock()
		defer mu.Unlock()
		events[e.Node] = e.Kind
	})
	ctx := task.WithObserver(context.Background(), obs)

	a := sleepTask("A", "", 0, nil)
	b := sleepTask("B", "", 0, errors.New("nope"))
	_ = New(a, b, stagePrefix, 1, 1).Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, task.EventNodeCompleted, events["A"])
	assert.Equal(t, task.EventNodeFailed, events["B"])
}

func TestGroup_OutcomeCauses(t *testing.T) {
	a := sleepTask("A", "", 0, errors.New("x"))
	b := sleepTask("B", "", 0, errors.New("y"))

	outcome := task.Execute(context.Background(), New(a, b, stagePrefix, 1, 1))

	assert.False(t, outcome.Success())
	assert.Len(t, outcome.Causes, 2)
}

func TestGroup_EmptyBranchEmitsNoEvent(t *testing.T) {
	var mu sync.Mutex
	var nodes []string
	obs := task.ObserverFunc(func(e task.Event) {
		mu.Lock()
		defer mu.Unlock()
		nodes = append(nodes, e.Node)
	})
	ctx := task.WithObserver(context.Background(), obs)

	require.NoError(t, New(sleepTask("verify", "", 0, nil), task.NewEmptyTask(), stagePrefix, 3, 3).Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"verify"}, nodes)
}
