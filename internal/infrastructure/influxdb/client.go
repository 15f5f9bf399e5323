package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/itemvault/internal/infrastructure/config"
)

// Measurement names written by itemvault.
const (
	MeasurementAuthEvent = "auth_event"
	MeasurementItemEvent = "item_event"
)

// Auth outcomes recorded in the auth_event measurement.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Tags added to every point so several instances can share a bucket.
const (
	TagService  = "service"
	TagInstance = "instance"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	fallbackBatchSize     = 100
	fallbackFlushInterval = 10 * time.Second
)

// Client records itemvault auth and item events as batched InfluxDB points.
//
// Writes never block the request path and are dropped once the client is
// closed. Batch failures reach the callback set with SetOnError.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	// mu guards closed against in-flight writes; Close takes it exclusively
	// so no point is handed to a write API that has shut down.
	mu     sync.RWMutex
	closed bool

	errMu   sync.Mutex
	onError func(err error)
}

// Connect pings the server and opens a batching write API for cfg's org and
// bucket. Every point is tagged with the service name and instance id from
// svc; empty values are left off.
func Connect(cfg config.InfluxDBConfig, svc config.ServiceConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(batchSize(cfg)).
		SetFlushInterval(flushIntervalMillis(cfg))
	if svc.Name != "" {
		opts.AddDefaultTag(TagService, svc.Name)
	}
	if svc.InstanceID != "" {
		opts.AddDefaultTag(TagInstance, svc.InstanceID)
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	if err := ping(context.Background(), client, connectTimeout); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	go c.forwardErrors(c.writeAPI.Errors())

	return c, nil
}

func batchSize(cfg config.InfluxDBConfig) uint {
	if cfg.BatchSize <= 0 {
		return fallbackBatchSize
	}
	return uint(cfg.BatchSize) // #nosec G115 -- checked positive above
}

func flushIntervalMillis(cfg config.InfluxDBConfig) uint {
	interval := fallbackFlushInterval
	if cfg.FlushInterval > 0 {
		interval = time.Duration(cfg.FlushInterval) * time.Second
	}
	return uint(interval.Milliseconds()) // #nosec G115 -- always positive
}

func ping(ctx context.Context, client influxdb2.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("server not healthy")
	}
	return nil
}

func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.errMu.Lock()
		callback := c.onError
		c.errMu.Unlock()

		if callback != nil {
			callback(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
	}
}

// SetOnError sets the callback for failed batch writes. Errors wrap
// ErrWriteFailed.
func (c *Client) SetOnError(callback func(err error)) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	c.onError = callback
}

// WriteAuthEvent records one signup, login or refresh attempt with its
// outcome (OutcomeSuccess or OutcomeFailure). Usernames are not tagged;
// their cardinality is unbounded.
func (c *Client) WriteAuthEvent(event, outcome string) {
	c.write(write.NewPoint(
		MeasurementAuthEvent,
		map[string]string{"event": event, "outcome": outcome},
		map[string]interface{}{"count": 1},
		time.Now(),
	))
}

// WriteItemEvent records one item mutation ("created", "updated" or
// "deleted"). The item id is a field, not a tag.
func (c *Client) WriteItemEvent(action, itemID string, at time.Time) {
	c.write(write.NewPoint(
		MeasurementItemEvent,
		map[string]string{"action": action},
		map[string]interface{}{"id": itemID},
		at,
	))
}

func (c *Client) write(p *write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.writeAPI == nil {
		return
	}
	c.writeAPI.WritePoint(p)
}

// HealthCheck pings the server. It returns ErrNotConnected after Close.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed || c.client == nil
	c.mu.RUnlock()
	if closed {
		return ErrNotConnected
	}

	if err := ping(ctx, c.client, pingTimeout); err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	return nil
}

// Close flushes buffered points and shuts the client down. Calling it more
// than once is safe.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.client == nil {
		return nil
	}
	c.closed = true

	c.writeAPI.Flush()
	c.client.Close()
	return nil
}
