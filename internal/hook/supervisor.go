package hook

import (
	"context"
	"log/slog"
	"sync"
)

// Supervisor tracks background analysis tasks so the process can drain
// them before exit. Every task gets its own cancellable context and is
// removed from the set when it returns.
type Supervisor struct {
	logger *slog.Logger

	mu     sync.Mutex
	next   int
	cancel map[int]context.CancelFunc
	wg     sync.WaitGroup
}

func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{logger: logger, cancel: make(map[int]context.CancelFunc)}
}

// Go runs fn on its own goroutine under a cancellable context derived
// from ctx.
func (s *Supervisor) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	id := s.next
	s.next++
	s.cancel[id] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.cancel, id)
			s.mu.Unlock()
			cancel()
			s.wg.Done()
		}()
		fn(ctx)
		if ctx.Err() != nil {
			s.logger.Debug("task cancelled", "task", name)
		}
	}()
}

// Active reports how many tasks are still running.
func (s *Supervisor) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancel)
}

// Wait blocks until every tracked task has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Shutdown cancels every tracked task and waits for them to return.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.cancel {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
