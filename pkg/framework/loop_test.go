package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopOrder(t *testing.T) {
	l := NewLoop()
	var order []string
	add := func(lv int, name string) {
		l.AddController(lv, ControlFunc(func(ctx ControlContext) error {
			require.Equal(t, lv, ctx.PriorityLevel())
			order = append(order, name)
			return nil
		}))
	}
	add(PrLvControl, "dispatch")
	add(PrLvSense, "relay")
	add(PrLvSense+1, "timestamp")
	l.AddController(PrLvIdle, ControlFunc(func(ControlContext) error {
		return errors.New("logged only")
	}))

	l.RunIteration(context.Background())
	require.Equal(t, []string{"relay", "timestamp", "dispatch"}, order)
}

func TestLoopTriggerNext(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	iterCh := make(chan uint64, 4)
	l.AddController(PrLvNormal, ControlFunc(func(ctx ControlContext) error {
		select {
		case iterCh <- ctx.Iteration():
		default:
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	l.TriggerNext()
	require.Equal(t, uint64(1), <-iterCh)
	l.TriggerNext()
	require.Equal(t, uint64(2), <-iterCh)

	l.SetInterval(time.Millisecond)
	select {
	case <-iterCh:
	case <-time.After(time.Second):
		t.Fatal("interval not applied")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestRunnerAggregates(t *testing.T) {
	failure := errors.New("failure")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return failure }),
		NamedRun("canceled", RunFunc(func(context.Context) error { return context.Canceled })),
		RunFunc(func(context.Context) error { return nil }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, failure))
	require.Equal(t, "failure", err.Error())
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan struct{})
	cancel()
	err := RunWithContextCancel(ctx, func() { close(stop) }, func() error {
		<-stop
		return errors.New("stopped")
	})
	require.Equal(t, context.Canceled, err)

	err = RunWithContextCancel(context.Background(), nil, func() error { return nil })
	require.NoError(t, err)
}
