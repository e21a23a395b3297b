package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Sweep периодически вызывает tick с фиксированным интервалом.
// Первый tick выполняется сразу при старте, остальные по тикеру.
// Остановка между тиками безопасна: всё состояние живёт в БД.
type Sweep struct {
	name     string
	interval time.Duration
	tick     func(context.Context)
	log      *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(name string, interval time.Duration, log *slog.Logger, tick func(context.Context)) (*Sweep, error) {
	if interval <= 0 {
		return nil, errors.New("scheduler: interval must be > 0")
	}
	if tick == nil {
		return nil, errors.New("scheduler: tick must not be nil")
	}
	return &Sweep{name: name, interval: interval, tick: tick, log: log}, nil
}

// Start запускает цикл. false — если уже запущен.
func (s *Sweep) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(runCtx)
	return true
}

func (s *Sweep) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweep started", "name", s.name, "interval", s.interval.String())
	s.safeTick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep stopped", "name", s.name)
			return
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *Sweep) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.cancel()
	<-s.done
	s.running = false
	return true
}

func (s *Sweep) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// safeTick не даёт панике одного тика убить весь цикл.
func (s *Sweep) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sweep tick panic recovered", "name", s.name, "panic", r)
		}
	}()
	s.tick(ctx)
}
