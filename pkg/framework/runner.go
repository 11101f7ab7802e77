package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait when a second stop signal arrives.
var ErrForcedExit = errors.New("forced exit")

// IsCleanExit indicates err ends a Runnable without a failure: it was
// canceled or the link it served was closed by either side.
func IsCleanExit(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name which shows up in logs and in
// the errors returned by Wait.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// NameOf returns the name of a Named runnable, or def.
func NameOf(runnable Runnable, def string) string {
	if named, ok := runnable.(Named); ok {
		return named.Name()
	}
	return def
}

// Exit records how a Runnable ended.
type Exit struct {
	Name string
	Err  error
}

// Runner runs Runnables sharing one context and collects how they exit.
// Go and Wait must be called from the same goroutine.
type Runner struct {
	Context context.Context
	// StopOnExit stops all Runnables once any of them returns, e.g. a
	// bridge is useless after its MCU link is gone.
	StopOnExit bool

	cancel  context.CancelFunc
	exitCh  chan Exit
	forceCh chan struct{}
	count   int
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner derived from ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	return &Runner{
		Context: ctx,
		cancel:  cancel,
		exitCh:  make(chan Exit, 1),
		forceCh: make(chan struct{}),
	}
}

// HandleSignals stops the runner on Ctrl-C or SIGTERM. A second signal
// forces Wait to return.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		r.Stop()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.forceCh)
	}()
	return r
}

// WithStopOnExit sets StopOnExit.
func (r *Runner) WithStopOnExit(en bool) *Runner {
	r.StopOnExit = en
	return r
}

// Stop cancels the context of all Runnables.
func (r *Runner) Stop() {
	r.cancel()
}

// Go spawns Runnables with the runner's context.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := NameOf(runner, fmt.Sprintf("#%d", r.count))
		r.count++
		go r.run(name, runner)
	}
	return r
}

func (r *Runner) run(name string, runner Runnable) {
	glog.V(4).Infof("Runner[%s] started", name)
	err := runner.Run(r.Context)
	switch {
	case r.clean(err):
		glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
	case r.StopOnExit:
		glog.Errorf("Runner[%s] failed, stopping all: %v", name, err)
	default:
		glog.Errorf("Runner[%s] failed: %v", name, err)
	}
	if r.StopOnExit {
		r.Stop()
	}
	r.exitCh <- Exit{Name: name, Err: err}
}

// clean also accepts the error of the runner's own context, which is
// DeadlineExceeded when the parent had a deadline.
func (r *Runner) clean(err error) bool {
	if IsCleanExit(err) {
		return true
	}
	ctxErr := r.Context.Err()
	return ctxErr != nil && errors.Is(err, ctxErr)
}

// Wait waits until all Runnables stop and aggregates their failures,
// each prefixed by the Runnable name. Clean exits are not errors.
func (r *Runner) Wait() error {
	defer r.cancel()
	var errs AggregatedError
	for n := 0; n < r.count; n++ {
		select {
		case <-r.forceCh:
			return ErrForcedExit
		case exit := <-r.exitCh:
			if !r.clean(exit.Err) {
				errs.Add(fmt.Errorf("%s: %w", exit.Name, exit.Err))
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't accept a context.
// onCancel is called only when ctx is done and must make fn return, the
// result is then ctx.Err().
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RunWithContext is RunWithContextCancel without a cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser serves a transport until fn returns or ctx is
// done. closer is closed exactly once in either case.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			if err := closer.Close(); err != nil {
				glog.V(3).Infof("close: %v", err)
			}
		})
	}
	defer closeFn()
	return RunWithContextCancel(ctx, closeFn, fn)
}
