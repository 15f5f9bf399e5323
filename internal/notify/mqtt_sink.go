package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/itemvault/internal/infrastructure/mqtt"
	"github.com/nerrad567/itemvault/internal/item"
)

// DefaultQueueSize is the number of events buffered ahead of the broker.
const DefaultQueueSize = 256

// Publisher is the MQTT operation the sink needs. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// Logger is the logging interface used by the sinks.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MQTTSink publishes item events to MQTT from a single worker goroutine.
//
// Thread Safety: ItemChanged is safe for concurrent use.
type MQTTSink struct {
	pub    Publisher
	topics mqtt.Topics
	queue  chan item.Event

	dropped atomic.Uint64

	// Shutdown coordination
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewMQTTSink creates a sink publishing under topics. A queueSize of zero
// or less uses DefaultQueueSize. Call Start before the first event.
func NewMQTTSink(pub Publisher, topics mqtt.Topics, queueSize int) *MQTTSink {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &MQTTSink{
		pub:    pub,
		topics: topics,
		queue:  make(chan item.Event, queueSize),
		done:   make(chan struct{}),
		logger: noopLogger{},
	}
}

// Start launches the publishing worker.
func (s *MQTTSink) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
}

// Stop publishes whatever is still queued and waits for the worker.
func (s *MQTTSink) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.getLogger().Info("mqtt event sink stopped", "dropped", s.dropped.Load())
	})
}

// ItemChanged implements item.EventSink. It never blocks: when the queue
// is full the event is dropped and counted.
func (s *MQTTSink) ItemChanged(_ context.Context, ev item.Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
		s.getLogger().Warn("mqtt event queue full, dropping event",
			"action", string(ev.Action),
			"item_id", ev.Item.ID,
		)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (s *MQTTSink) Dropped() uint64 {
	return s.dropped.Load()
}

// SetLogger sets the logger for the sink.
func (s *MQTTSink) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	defer s.loggerMu.Unlock()
	s.logger = logger
}

func (s *MQTTSink) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

func (s *MQTTSink) run() {
	for {
		select {
		case ev := <-s.queue:
			s.publish(ev)
		case <-s.done:
			for {
				select {
				case ev := <-s.queue:
					s.publish(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *MQTTSink) publish(ev item.Event) {
	topic := s.topics.ItemEvent(ev.Item.ID, string(ev.Action))
	if err := s.pub.PublishJSON(topic, ev); err != nil {
		s.getLogger().Error("publishing item event failed",
			"topic", topic,
			"error", err,
		)
	}
}
