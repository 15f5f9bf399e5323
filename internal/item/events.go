package item

import "context"

// EventSink receives item events. Implementations must not block for long;
// sinks that talk to the network should hand off to their own buffers.
type EventSink interface {
	ItemChanged(ctx context.Context, ev Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev Event)

// ItemChanged implements EventSink.
func (f SinkFunc) ItemChanged(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// MultiSink fans an event out to every non-nil sink in order.
type MultiSink []EventSink

// ItemChanged implements EventSink.
func (m MultiSink) ItemChanged(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.ItemChanged(ctx, ev)
		}
	}
}

type noopSink struct{}

func (noopSink) ItemChanged(context.Context, Event) {}

type actorKey struct{}

// WithActor records the authenticated username on ctx so events carry it.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, username)
}

// ActorFromContext returns the username stored by WithActor, if any.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string) //nolint:errcheck // missing actor is ""
	return actor
}
