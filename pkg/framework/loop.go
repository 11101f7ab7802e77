package framework

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop interval when none is set.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers at a fixed interval in priority order, together
// with background Runnables.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable
	lock        sync.RWMutex
	wakeUpCh    chan struct{}
	once        sync.Once
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type iteration struct {
	ctx           context.Context
	time          time.Time
	priorityLevel int
}

func (t *iteration) Context() context.Context { return t.ctx }
func (t *iteration) Time() time.Time          { return t.time }
func (t *iteration) PriorityLevel() int       { return t.priorityLevel }

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. Controllers
// which are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnables started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.runners = append(l.runners, runnables...)
	return l
}

func (l *Loop) wakeUp() chan struct{} {
	l.once.Do(func() { l.wakeUpCh = make(chan struct{}, 1) })
	return l.wakeUpCh
}

// TriggerNext schedules an iteration immediately.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUp() <- struct{}{}:
	default:
	}
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.lock.RLock()
	runners := append([]Runnable(nil), l.runners...)
	l.lock.RUnlock()
	runner := NewRunnerWith(ctx).Go(runners...)
	defer func() {
		cancel()
		if err := runner.Wait(); err != nil {
			glog.Errorf("loop runners: %v", err)
		}
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunOnce(ctx, time.Now())
		case <-l.wakeUp():
			l.RunOnce(ctx, time.Now())
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}

// RunOnce runs all controllers once as of now.
func (l *Loop) RunOnce(ctx context.Context, now time.Time) {
	iter := &iteration{ctx: ctx, time: now}
	l.lock.RLock()
	defer l.lock.RUnlock()
	for i, ctls := range l.controllers {
		iter.priorityLevel = i
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
}
