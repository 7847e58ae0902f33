// Package events announces finished analyses and rule reloads to other
// services over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Subject suffixes, appended to the configured prefix.
const (
	SubjectAnalysisCompleted = "analysis.completed"
	SubjectRulesReloaded     = "rules.reloaded"
)

// DefaultPrefix namespaces every subject.
const DefaultPrefix = "wingman"

// Event is a payload that knows its subject suffix.
type Event interface {
	Subject() string
}

// AnalysisCompleted is published after every successful analysis.
type AnalysisCompleted struct {
	RecordID       string    `json:"record_id,omitempty"`
	SubjectName    string    `json:"subject_name,omitempty"`
	Interpretation string    `json:"interpretation"`
	Percentile     int       `json:"percentile"`
	Severity       string    `json:"severity"`
	Tactics        []string  `json:"tactics"`
	RulesVersion   string    `json:"rules_version"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// Subject implements Event.
func (AnalysisCompleted) Subject() string { return SubjectAnalysisCompleted }

// RulesReloaded is published when a new rulebook replaces the active one.
type RulesReloaded struct {
	Version    string    `json:"version"`
	Source     string    `json:"source"`
	ReloadedAt time.Time `json:"reloaded_at"`
}

// Subject implements Event.
func (RulesReloaded) Subject() string { return SubjectRulesReloaded }

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// FullSubject joins prefix and the event's subject suffix.
func FullSubject(prefix string, ev Event) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return ev.Subject()
	}
	return prefix + "." + ev.Subject()
}

// NATSPublisher publishes JSON-encoded events to a NATS server.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to url. The connection retries in the
// background, so a server that is briefly down does not fail startup.
func NewNATSPublisher(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	opts := []nats.Option{
		nats.Name("wingman"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, prefix: prefix, logger: logger}, nil
}

// Publish encodes ev and publishes it.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Subject(), err)
	}
	subject := FullSubject(p.prefix, ev)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", "subject", subject, "bytes", len(payload))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
