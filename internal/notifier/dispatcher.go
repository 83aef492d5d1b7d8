// Package notifier fans an enriched record out to the configured
// notification channels. Channel failures are isolated: each channel is
// attempted regardless of the others, and no failure ever propagates to
// the pipeline. The enrichment is already durably stored by the time
// notifications go out.
package notifier

import (
	"context"
	"sync/atomic"

	"leadpipeline_backend/internal/crmevent"
	"leadpipeline_backend/platform/logger"
)

// Channel is a single notification delivery target.
type Channel interface {
	Name() string
	Send(ctx context.Context, rec crmevent.EnrichedRecord) error
}

type channelState struct {
	channel  Channel
	failures atomic.Int64
}

// Dispatcher fans out to zero or more channels.
type Dispatcher struct {
	channels []*channelState
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher over the given channels.
func NewDispatcher(log *logger.Logger, channels ...Channel) *Dispatcher {
	d := &Dispatcher{log: log}
	for _, ch := range channels {
		d.channels = append(d.channels, &channelState{channel: ch})
	}
	return d
}

// Dispatch sends the record to every channel. Failures are logged and
// counted per channel, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, rec crmevent.EnrichedRecord) {
	for _, state := range d.channels {
		if err := state.channel.Send(ctx, rec); err != nil {
			state.failures.Add(1)
			d.log.NotificationError(state.channel.Name(), rec.LeadID, err)
		}
	}
}

// Failures returns the number of failed deliveries for the named
// channel, for observability.
func (d *Dispatcher) Failures(name string) int64 {
	for _, state := range d.channels {
		if state.channel.Name() == name {
			return state.failures.Load()
		}
	}
	return 0
}
