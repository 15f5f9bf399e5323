package notify

import (
	"context"
	"time"

	"github.com/nerrad567/itemvault/internal/item"
)

// PointWriter records item events. *influxdb.Client satisfies it.
type PointWriter interface {
	WriteItemEvent(action, itemID string, at time.Time)
}

// InfluxSink writes one item_event point per mutation.
type InfluxSink struct {
	w PointWriter
}

// NewInfluxSink creates a sink writing through w.
func NewInfluxSink(w PointWriter) *InfluxSink {
	return &InfluxSink{w: w}
}

// ItemChanged implements item.EventSink.
func (s *InfluxSink) ItemChanged(_ context.Context, ev item.Event) {
	at := ev.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	s.w.WriteItemEvent(string(ev.Action), ev.Item.ID, at)
}
