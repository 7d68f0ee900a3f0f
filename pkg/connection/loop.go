package connection

import "sync"

// loop runs queued closures one at a time on a single goroutine.
type loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	active  bool
	running bool
	quit    bool
}

func newLoop() *loop {
	l := &loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// start launches the worker goroutine. It returns false if the loop
// already ran.
func (l *loop) start() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running || l.quit {
		return false
	}
	l.running = true
	go l.run()
	return true
}

func (l *loop) run() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		for len(l.queue) == 0 && !l.quit {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.running = false
			l.cond.Broadcast()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.active = true
		l.mu.Unlock()

		fn()

		l.mu.Lock()
		l.active = false
		l.cond.Broadcast()
	}
}

// enqueue appends fn. It returns false once the loop has been stopped.
// Closures enqueued before stop always run.
func (l *loop) enqueue(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quit {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Broadcast()
	return true
}

// isRunning reports whether the worker goroutine is live.
func (l *loop) isRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// flush blocks until the queue is empty and nothing is executing.
func (l *loop) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.running && (len(l.queue) > 0 || l.active) {
		l.cond.Wait()
	}
}

// stop drains the queue and ends the worker goroutine. It blocks until
// the worker has exited.
func (l *loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quit = true
	l.cond.Broadcast()
	for l.running {
		l.cond.Wait()
	}
	l.queue = nil
}
