package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
)

// HealthChecker is satisfied by the ingest API client
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober polls the backend health endpoint and reports reachability transitions.
// It starts pessimistic (offline) until the first probe succeeds.
type Prober struct {
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration

	mu        sync.RWMutex
	connected bool
	subs      subscribers
	log       *logrus.Entry
}

func NewProber(checker HealthChecker, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	return &Prober{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		log:      logrus.WithField("component", "connectivity"),
	}
}

var _ domain.ConnectivityObserver = (*Prober)(nil)

func (p *Prober) IsConnected(ctx context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

func (p *Prober) Subscribe(fn func(bool)) func() {
	return p.subs.add(fn)
}

// Probe runs one health check, updates the state and returns it
func (p *Prober) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.checker.Health(probeCtx)
	connected := err == nil

	p.mu.Lock()
	changed := p.connected != connected
	p.connected = connected
	p.mu.Unlock()

	if changed {
		if connected {
			p.log.Info("backend reachable")
		} else {
			p.log.WithError(err).Warn("backend unreachable")
		}
		p.subs.notify(connected)
	}
	return connected
}

// Run probes immediately and then every interval until ctx is cancelled
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
