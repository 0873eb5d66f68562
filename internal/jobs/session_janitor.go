package jobs

import (
	"context"
	"log"
	"time"
)

// SessionEvictor defines the interface for evicting idle sessions
type SessionEvictor interface {
	EvictIdle(ctx context.Context, ttl time.Duration) int
}

// SessionJanitor periodically evicts sessions idle past the TTL,
// dropping their index chunks so abandoned sessions do not accumulate.
type SessionJanitor struct {
	evictor  SessionEvictor
	ttl      time.Duration
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSessionJanitor creates a new SessionJanitor instance
func NewSessionJanitor(evictor SessionEvictor, ttl, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		evictor:  evictor,
		ttl:      ttl,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the janitor's sweep loop
func (j *SessionJanitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	defer close(j.doneChan)

	log.Printf("Session janitor started: ttl=%v sweep interval=%v", j.ttl, j.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Session janitor stopped: context cancelled")
			return
		case <-j.stopChan:
			log.Println("Session janitor stopped: stop signal received")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *SessionJanitor) sweep(ctx context.Context) {
	if evicted := j.evictor.EvictIdle(ctx, j.ttl); evicted > 0 {
		log.Printf("Session janitor evicted %d idle session(s)", evicted)
	}
}

// Stop gracefully stops the janitor
func (j *SessionJanitor) Stop() {
	close(j.stopChan)
	<-j.doneChan
	log.Println("Session janitor shutdown complete")
}
