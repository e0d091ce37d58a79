package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type multiErr struct {
	causes []Cause
}

func (m *multiErr) Error() string   { return "multi" }
func (m *multiErr) Causes() []Cause { return m.causes }

func TestFuncTask_DescriptionAndPrefix(t *testing.T) {
	ft := NewFuncTask("tailwindcss", "💅 ", nil)

	assert.Equal(t, "tailwindcss", ft.Description())
	assert.Equal(t, "💅 ", ft.Prefix())
	assert.Equal(t, "💅 tailwindcss", Rendered(ft))
	// fn 为 nil 时视为成功
	assert.NoError(t, ft.Run(context.Background()))
}

func TestEmptyTask(t *testing.T) {
	et := NewEmptyTask()

	assert.Empty(t, Rendered(et))
	assert.NoError(t, et.Run(context.Background()))
}

func TestExecute_Success(t *testing.T) {
	ft := NewFuncTask("sleepy", "", func(ctx context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	outcome := Execute(context.Background(), ft)

	assert.True(t, outcome.Success())
	assert.NoError(t, outcome.Err)
	assert.GreaterOrEqual(t, outcome.Elapsed, 20*time.Millisecond)
}

func TestExecute_LeafFailureYieldsSingleCause(t *testing.T) {
	boom := errors.New("boom")
	ft := NewFuncTask("webpack/swc", "⚡ ", func(ctx context.Context) error { return boom })

	outcome := Execute(context.Background(), ft)

	require.False(t, outcome.Success())
	require.Len(t, outcome.Causes, 1)
	assert.Equal(t, "webpack/swc", outcome.Causes[0].Description)
	assert.ErrorIs(t, outcome.Causes[0].Err, boom)
	assert.Equal(t, "webpack/swc: boom", outcome.Causes[0].String())
}

func TestExecute_MultiCauseErrorKeepsCauses(t *testing.T) {
	err := &multiErr{causes: []Cause{
		{Description: "a", Err: errors.New("x")},
		{Description: "b", Err: errors.New("y")},
	}}
	ft := NewFuncTask("group", "", func(ctx context.Context) error { return err })

	outcome := Execute(context.Background(), ft)

	require.Len(t, outcome.Causes, 2)
	assert.Equal(t, "a", outcome.Causes[0].Description)
	assert.Equal(t, "b", outcome.Causes[1].Description)
}

func TestExecute_WrappedMultiCauseIsSingleCause(t *testing.T) {
	// 被包装后的组合错误不再直接暴露原因，归为一个原因
	inner := &multiErr{causes: []Cause{{Description: "a", Err: errors.New("x")}}}
	wrapped := errors.Join(inner)
	ft := NewFuncTask("stage [1/1]", "", func(ctx context.Context) error { return wrapped })

	outcome := Execute(context.Background(), ft)

	require.Len(t, outcome.Causes, 1)
	assert.Equal(t, "stage [1/1]", outcome.Causes[0].Description)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0 ms", FormatElapsed(0))
	assert.Equal(t, "250 ms", FormatElapsed(250*time.Millisecond))
	assert.Equal(t, "1000 ms", FormatElapsed(time.Second))
	assert.Equal(t, "1 seconds, 1 ms", FormatElapsed(1001*time.Millisecond))
	assert.Equal(t, "12 seconds, 345 ms", FormatElapsed(12345*time.Millisecond))
}

func TestTimer_StopIsMonotonic(t *testing.T) {
	timer := StartTimer()
	first := timer.Stop()
	time.Sleep(5 * time.Millisecond)
	second := timer.Stop()

	assert.GreaterOrEqual(t, second, first)
}

func TestNotify_WithoutObserverIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Notify(context.Background(), Event{Kind: EventNodeCompleted})
	})
}

func TestNotify_FillsRunIDAndTime(t *testing.T) {
	var mu sync.Mutex
	var got []Event
	obs := ObserverFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	})

	ctx := WithRunID(WithObserver(context.Background(), obs), "run-1")
	Notify(ctx, Event{Kind: EventStageStarted, Node: "stage [1/2]"})

	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, EventStageStarted, got[0].Kind)
	assert.False(t, got[0].Time.IsZero())
	assert.Equal(t, "run-1", GetRunID(ctx))
	assert.NotNil(t, GetObserver(ctx))
}

func TestAllEventKinds(t *testing.T) {
	kinds := AllEventKinds()
	assert.Len(t, kinds, 8)
	assert.Contains(t, kinds, EventRunFailed)
	assert.Contains(t, kinds, EventNodeFailed)
}
