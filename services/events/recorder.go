package eventsvc

import (
	"context"
	"sync"

	"github.com/koinonia-app/koinonia/core"
)

// Recorder keeps published events in memory. Used in tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Envelope
}

var _ core.Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, subject string, payload interface{}) error {
	r.mu.Lock()
	r.Events = append(r.Events, Envelope{Subject: subject, OccurredAt: core.NowFunc().UTC(), Data: payload})
	r.mu.Unlock()
	return nil
}

// Subjects lists the recorded subjects in publishing order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	subjects := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		subjects = append(subjects, e.Subject)
	}
	return subjects
}
