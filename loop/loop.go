// Package loop provides a cooperative scheduler: a single goroutine that
// runs posted tasks one at a time, in the order they were posted.
//
// One task is one tick. A task posted while another task is running is
// executed after every task that was already waiting, which is what makes
// "defer to the next tick" coalescing possible for the code running on it.
package loop

import (
	"sync"
	"sync/atomic"

	"github.com/livereload-universal/relay/log"
)

const (
	taskPending int32 = iota
	taskRunning
	taskCancelled
)

// Task is a handle to a posted function.
type Task struct {
	f     func()
	state atomic.Int32
}

// Cancel prevents the task from running. It reports false when the task
// has already started or was cancelled before.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	return t.state.CompareAndSwap(taskPending, taskCancelled)
}

func (t *Task) Cancelled() bool {
	return t != nil && t.state.Load() == taskCancelled
}

type Loop struct {
	mu         sync.Mutex
	queue      []*Task
	wake       chan struct{}
	closed     chan struct{}
	closedOnce sync.Once
	done       chan struct{}
	log        log.Logger
}

func New(logger log.Logger) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
		log:    logger.WithPrefix("loop"),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.wake:
			for task := l.next(); task != nil; task = l.next() {
				select {
				case <-l.closed:
					return
				default:
				}
				l.exec(task)
			}
		case <-l.closed:
			return
		}
	}
}

func (l *Loop) next() *Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task
}

func (l *Loop) exec(task *Task) {
	if !task.state.CompareAndSwap(taskPending, taskRunning) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("task panicked: %v", r)
		}
	}()
	task.f()
}

// Post appends f to the end of the queue and returns without waiting.
// Posting to a closed loop returns an already cancelled task.
func (l *Loop) Post(f func()) *Task {
	task := &Task{f: f}
	select {
	case <-l.closed:
		task.state.Store(taskCancelled)
		return task
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return task
}

// Call runs f on the loop and waits for it to return. It reports false
// when the loop stopped before f could run. Calling it from a task running
// on the same loop deadlocks.
func (l *Loop) Call(f func()) bool {
	finished := make(chan struct{})
	task := l.Post(func() {
		defer close(finished)
		f()
	})
	if task.Cancelled() {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Len returns the number of tasks waiting to run, cancelled ones included.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Done is closed once the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Close stops the loop. Tasks still waiting are dropped.
func (l *Loop) Close() {
	l.closedOnce.Do(func() {
		close(l.closed)
	})
}
