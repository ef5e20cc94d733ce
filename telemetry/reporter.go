package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kiket-dev/dispatch/observability"
)

// FeedbackHook is a user-supplied callback invoked with each record.
// Its failures are isolated and do not affect the remote sink or the
// response path.
type FeedbackHook func(Record)

// Defaults for the remote sink.
const (
	DefaultQueueSize   = 256
	DefaultMaxAttempts = 3
	DefaultSendTimeout = 2 * time.Second
)

// DefaultBackoff defines the waits between remote send attempts. It is
// deliberately short: telemetry must never become a source of backpressure.
var DefaultBackoff = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	2 * time.Second,
}

// Config configures a Reporter.
type Config struct {
	// Enabled is the global switch. When false, Record is a no-op and no
	// record construction happens upstream.
	Enabled bool

	// URL is the remote sink endpoint. Empty disables the remote sink.
	URL string

	// Hook is the local feedback sink. Nil disables it.
	Hook FeedbackHook

	// QueueSize bounds the remote sink's handoff queue. Full queue drops.
	QueueSize int

	// MaxAttempts caps remote send retries per record.
	MaxAttempts int

	// Backoff defines the waits between attempts.
	Backoff []time.Duration

	// SendTimeout bounds each remote POST.
	SendTimeout time.Duration

	// ExtensionID and ExtensionVersion are stamped onto every record.
	ExtensionID      string
	ExtensionVersion string

	// Metrics, when set, counts dropped records.
	Metrics *observability.Metrics
}

// Reporter dispatches invocation records to the configured sinks.
//
// The remote sink is decoupled from the request path by a bounded channel
// and a single worker goroutine; enqueueing never blocks, and a full queue
// drops the record with a log line.
type Reporter struct {
	cfg    Config
	queue  chan Record
	client *http.Client
	logger *slog.Logger

	mu     sync.RWMutex // guards closed against the enqueue path
	closed bool
	wg     sync.WaitGroup
}

// NewReporter creates a Reporter and starts its remote sink worker when a
// URL is configured.
func NewReporter(cfg Config, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	r := &Reporter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.SendTimeout},
		logger: logger,
	}

	if cfg.Enabled && cfg.URL != "" {
		r.queue = make(chan Record, cfg.QueueSize)
		r.wg.Add(1)
		go r.worker()
	}

	return r
}

// Enabled reports whether any telemetry work should be performed at all.
// Callers use it to short-circuit record construction.
func (r *Reporter) Enabled() bool {
	return r.cfg.Enabled && (r.cfg.Hook != nil || r.cfg.URL != "")
}

// Record dispatches one record to both sinks. It never blocks beyond the
// feedback hook and never returns or propagates an error.
func (r *Reporter) Record(rec Record) {
	if !r.cfg.Enabled {
		return
	}

	// The read lock holds the queue open across the enqueue, so a
	// concurrent Close can never close it mid-send.
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}

	rec.ExtensionID = r.cfg.ExtensionID
	rec.ExtensionVersion = r.cfg.ExtensionVersion
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if r.cfg.Hook != nil {
		r.runHook(rec)
	}

	if r.queue == nil {
		return
	}
	select {
	case r.queue <- rec:
	default:
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.TelemetryDropped.Inc()
		}
		r.logger.Debug("telemetry queue full, record dropped",
			"event", rec.Event, "version", rec.Version)
	}
}

// Close stops the remote sink worker after draining queued records.
// Records arriving after Close are discarded.
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.queue != nil {
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// runHook invokes the feedback hook, isolating panics and keeping the
// failure away from the other sink.
func (r *Reporter) runHook(rec Record) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug("telemetry feedback hook panicked", "panic", fmt.Sprint(p))
		}
	}()
	r.cfg.Hook(rec)
}

// worker drains the queue, posting each record with bounded retries.
// Exhausting retries logs and discards: telemetry is explicitly lossy under
// sustained failure.
func (r *Reporter) worker() {
	defer r.wg.Done()

	for rec := range r.queue {
		if err := r.post(rec); err != nil {
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.TelemetryDropped.Inc()
			}
			r.logger.Debug("telemetry dispatch failed, record dropped",
				"event", rec.Event, "version", rec.Version, "error", err)
		}
	}
}

// post attempts the remote send up to MaxAttempts times.
func (r *Reporter) post(rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("telemetry: marshal record: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(r.backoffFor(attempt))
		}
		lastErr = r.send(body)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (r *Reporter) send(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.SendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telemetry: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telemetry: sink returned %d", resp.StatusCode)
	}
	return nil
}

func (r *Reporter) backoffFor(attempt int) time.Duration {
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(r.cfg.Backoff) {
		idx = len(r.cfg.Backoff) - 1
	}
	return r.cfg.Backoff[idx]
}
