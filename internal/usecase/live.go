package usecase

import (
	"context"

	domrepo "CurveDash/internal/domain/repository"
	applogger "CurveDash/pkg/logger"
)

// Broadcaster fans a payload out to connected subscribers. Implemented by the
// websocket hub.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// LiveFeed pipes tick payloads from the stream to the broadcaster verbatim.
// No ordering or delivery guarantees beyond what the stream itself provides.
type LiveFeed struct {
	stream domrepo.TickStream
	hub    Broadcaster
	logger *applogger.Logger
}

// NewLiveFeed creates the live tick pipe.
func NewLiveFeed(stream domrepo.TickStream, hub Broadcaster, logger *applogger.Logger) *LiveFeed {
	return &LiveFeed{stream: stream, hub: hub, logger: logger}
}

// Start consumes until ctx is cancelled or the stream fails terminally.
func (f *LiveFeed) Start(ctx context.Context) {
	ticks, errc := f.stream.Consume(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errc:
				if !ok {
					return
				}
				if err != nil {
					f.logger.Error("tick stream terminated", applogger.Error(err))
					return
				}
			case payload, ok := <-ticks:
				if !ok {
					return
				}
				if len(payload) == 0 {
					continue
				}
				f.hub.Broadcast(payload)
			}
		}
	}()
}

// Stop closes the underlying stream.
func (f *LiveFeed) Stop() error {
	return f.stream.Close()
}
