package workerpool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"oss.nandlabs.io/enforcer/engineconfig"
	"oss.nandlabs.io/enforcer/errutils"
	"oss.nandlabs.io/enforcer/l3"
	"oss.nandlabs.io/enforcer/lifecycle"
	"oss.nandlabs.io/enforcer/schedule"
)

var logger = l3.Get()

// defaultWorkerCount is used when Option WithWorkerCount is not supplied.
const defaultWorkerCount = engineconfig.DefaultWorkerCount

// defaultPopRetryLogThreshold is used when Option
// WithPopRetryLogThreshold is not supplied.
const defaultPopRetryLogThreshold = engineconfig.DefaultPopRetryLogThreshold

// Handler executes a single task's body. The pool has already acquired the
// task's identity lock by the time Handler is invoked, and releases it when
// Handler returns regardless of the error result.
type Handler func(ctx context.Context, task *schedule.Task) error

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithWorkerCount sets the number of worker goroutines. The default is 4.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workerCount = n
		}
	}
}

// WithComponentId overrides the lifecycle.Component id reported by Id().
// The default is "workerpool".
func WithComponentId(id string) Option {
	return func(p *Pool) {
		p.id = id
	}
}

// WithPopRetryLogThreshold sets the number of consecutive spurious Pop
// wakes (ctx not done, ok false) a worker may observe before it logs a
// warning that something may be wrong with wakeup delivery. The default is
// engineconfig.DefaultPopRetryLogThreshold.
func WithPopRetryLogThreshold(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.popRetryLogThreshold = n
		}
	}
}

// NewFromConfig is New, with WorkerCount and PopRetryLogThreshold seeded
// from cfg before opts are applied, letting a caller-supplied Option still
// override a config-sourced value.
func NewFromConfig(scheduler *schedule.Scheduler, handler Handler, cfg engineconfig.Config, opts ...Option) *Pool {
	base := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithPopRetryLogThreshold(cfg.PopRetryLogThreshold),
	}
	return New(scheduler, handler, append(base, opts...)...)
}

// Pool is the worker-side contract described in the package doc. Pool
// implements lifecycle.Component via an embedded *lifecycle.SimpleComponent
// whose StartFunc/StopFunc drive the pool's own Start/Stop logic.
type Pool struct {
	*lifecycle.SimpleComponent

	id                   string
	scheduler            *schedule.Scheduler
	handler              Handler
	workerCount          int
	popRetryLogThreshold int

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group

	tasksHandled atomic.Int64
	tasksFailed  atomic.Int64
}

// New creates a Pool that pops tasks from scheduler and executes them with
// handler. The pool is not started until Start is called.
func New(scheduler *schedule.Scheduler, handler Handler, opts ...Option) *Pool {
	p := &Pool{
		id:                   "workerpool",
		scheduler:            scheduler,
		handler:              handler,
		workerCount:          defaultWorkerCount,
		popRetryLogThreshold: defaultPopRetryLogThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.SimpleComponent = &lifecycle.SimpleComponent{
		CompId:    p.id,
		StartFunc: p.start,
		StopFunc:  p.stop,
	}
	return p
}

// TasksHandled returns the number of tasks the pool has executed, whether
// they succeeded or failed.
func (p *Pool) TasksHandled() int64 { return p.tasksHandled.Load() }

// TasksFailed returns the number of tasks whose Handler returned an error.
func (p *Pool) TasksFailed() int64 { return p.tasksFailed.Load() }

func (p *Pool) start() error {
	p.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)
	p.cancel = cancel
	p.group = group
	p.mu.Unlock()

	logger.InfoF("starting %d workers", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		workerNum := i
		group.Go(func() error {
			p.run(groupCtx, workerNum)
			return nil
		})
	}
	return nil
}

func (p *Pool) stop() error {
	p.mu.Lock()
	cancel := p.cancel
	group := p.group
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	p.scheduler.ReleaseAll()

	multiErr := errutils.NewMultiErr(nil)
	if group != nil {
		if err := group.Wait(); err != nil {
			multiErr.Add(err)
		}
	}
	if multiErr.HasErrors() {
		return multiErr
	}
	return nil
}

// run is a single worker goroutine's loop: Pop, lock, execute, unlock,
// repeat, until ctx is canceled. Consecutive spurious Pop wakes (ok false
// with ctx still live) are counted; once the count reaches
// popRetryLogThreshold a warning is logged and the count resets, since a
// long run of spurious wakes with no work delivered may indicate the
// wakeup transport is misbehaving.
func (p *Pool) run(ctx context.Context, workerNum int) {
	spuriousWakes := 0
	for {
		select {
		case <-ctx.Done():
			logger.DebugF("worker %d stopping", workerNum)
			return
		default:
		}

		task, ok := p.scheduler.Pop(ctx)
		if !ok {
			if ctx.Err() != nil {
				continue
			}
			spuriousWakes++
			if spuriousWakes >= p.popRetryLogThreshold {
				logger.WarnF("worker %d saw %d consecutive spurious wakeups with no task delivered", workerNum, spuriousWakes)
				spuriousWakes = 0
			}
			continue
		}

		spuriousWakes = 0
		p.execute(ctx, task)
	}
}

func (p *Pool) execute(ctx context.Context, task *schedule.Task) {
	task.Lock()
	defer task.Unlock()

	p.tasksHandled.Add(1)
	if err := p.handler(ctx, task); err != nil {
		p.tasksFailed.Add(1)
		logger.ErrorF("task %s failed: %v", task.Identity(), err)
	}
}
