package isup

import (
	"context"

	"go-skud/internal/event"
)

// Sink receives the event documents terminals push over ISUP.
// *ingest.Worker and *ForwardQueue implement it; *HTTPForwarder does too but
// blocks for a full round trip, so it sits behind a ForwardQueue.
type Sink interface {
	Submit(ctx context.Context, raw event.RawEvent) error
}
