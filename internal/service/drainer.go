package service

import (
	"context"
	"sync"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
)

// QueueProcessor is the drain pass the Drainer schedules
type QueueProcessor interface {
	ProcessQueue(ctx context.Context) DrainResult
}

// Drainer funnels foreground and connectivity signals into one worker.
// At most one pass runs at a time; any number of requests that arrive during a pass
// collapse into a single trailing pass.
type Drainer struct {
	queue   QueueProcessor
	pending chan struct{}
	log     *logrus.Entry

	mu      sync.Mutex
	last    DrainResult
	running bool
}

func NewDrainer(queue QueueProcessor) *Drainer {
	return &Drainer{
		queue:   queue,
		pending: make(chan struct{}, 1),
		log:     logrus.WithField("component", "drainer"),
	}
}

// Request schedules a pass without blocking
func (d *Drainer) Request() {
	select {
	case d.pending <- struct{}{}:
	default:
	}
}

// Run processes requests until ctx is cancelled
func (d *Drainer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.pending:
			d.drain(ctx)
		}
	}
}

func (d *Drainer) drain(ctx context.Context) {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()

	res := d.queue.ProcessQueue(ctx)

	d.mu.Lock()
	d.running = false
	d.last = res
	d.mu.Unlock()

	if res.Offline || res.Attempted == 0 {
		return
	}
	d.log.WithFields(logrus.Fields{
		"attempted": res.Attempted,
		"delivered": res.Delivered,
		"failed":    res.Failed,
		"remaining": res.Remaining,
	}).Info("drain pass finished")
}

// Watch requests a pass now and again every time the observer reports connectivity restored
func (d *Drainer) Watch(ctx context.Context, observer domain.ConnectivityObserver) {
	unsubscribe := observer.Subscribe(func(connected bool) {
		if connected {
			d.log.Info("connectivity restored, requesting drain")
			d.Request()
		}
	})
	d.Request()

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
}

// Status reports whether a pass is in flight and the result of the last finished one
func (d *Drainer) Status() (running bool, last DrainResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running, d.last
}
