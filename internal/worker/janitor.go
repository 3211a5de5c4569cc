package worker

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Janitor runs a job on a fixed interval until stopped.
type Janitor struct {
	name     string
	interval time.Duration
	job      func() int
	logger   *zap.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewJanitor creates a stopped janitor. job returns the number of items it removed.
func NewJanitor(name string, interval time.Duration, job func() int, logger *zap.Logger) *Janitor {
	return &Janitor{name: name, interval: interval, job: job, logger: logger}
}

// Start launches the background loop. Calling Start on a running janitor is a no-op.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running || j.interval <= 0 {
		return
	}
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	j.running = true
	go j.loop(j.stop, j.done)
	j.logger.Info("janitor started", zap.String("job", j.name), zap.Duration("interval", j.interval))
}

// Stop halts the loop and waits for an in-flight run to finish.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stop)
	done := j.done
	j.running = false
	j.mu.Unlock()

	<-done
	j.logger.Info("janitor stopped", zap.String("job", j.name))
}

// Running reports whether the loop is active.
func (j *Janitor) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *Janitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.job(); n > 0 {
				j.logger.Info("janitor run", zap.String("job", j.name), zap.Int("removed", n))
			}
		case <-stop:
			return
		}
	}
}
