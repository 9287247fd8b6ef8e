package relay

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// OutputMode selects what the relay does with a staged payload.
type OutputMode string

// Output modes. ModeEcho taps the staged payload to the log instead of
// republishing; ModeBoth echoes and republishes.
const (
	ModePublish OutputMode = "publish"
	ModeEcho    OutputMode = "echo"
	ModeBoth    OutputMode = "both"
)

// ParseOutputMode converts a configuration string into an OutputMode.
// Empty selects ModePublish.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(strings.ToLower(s)) {
	case ModePublish, "":
		return ModePublish, nil
	case ModeEcho:
		return ModeEcho, nil
	case ModeBoth:
		return ModeBoth, nil
	default:
		return ModePublish, fmt.Errorf("unknown relay output mode %q", s)
	}
}

// Publisher is the outbound half of the broker session consumed by the
// relay. Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Strategy stages a private copy of the inbound payload and hands the
// staged bytes to emit. The inbound slice is only valid for the duration
// of the call; emit must receive storage the caller cannot invalidate.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Relay stages payload and invokes emit exactly once with the staged
	// copy, or returns an error without emitting.
	Relay(ctx context.Context, payload []byte, emit func(staged []byte) error) error
}

// Recorder receives relay outcomes for telemetry. Implementations must not
// block; the relay calls it inline.
type Recorder interface {
	RecordRelay(strategy string, bytes int, duration time.Duration, success bool)
}

// Logger is the logging interface consumed by the relay.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Config controls relay behaviour.
type Config struct {
	// InboundTopic is the subscription topic messages arrive on.
	InboundTopic string

	// OutboundTopic is where staged payloads are republished.
	OutboundTopic string

	// QoS is the quality-of-service level for outbound publishes.
	QoS byte

	// Mode selects publish, echo, or both. Empty means publish.
	Mode OutputMode
}

// Relay forwards inbound messages to the outbound topic through a staging
// strategy.
//
// Thread Safety: HandleMessage serialises itself; all other methods are
// safe for concurrent use.
type Relay struct {
	cfg      Config
	strategy Strategy

	// pub is attached after construction via Bind, breaking the cycle
	// between session construction and handler wiring.
	pub   Publisher
	pubMu sync.RWMutex

	// handleMu enforces the one-message-at-a-time invariant that makes
	// the single staging slot safe to reuse.
	handleMu sync.Mutex

	relayed atomic.Uint64
	failed  atomic.Uint64

	recorder   Recorder
	recorderMu sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates an unbound Relay. Attach the session with Bind before
// messages are expected.
func New(cfg Config, strategy Strategy) *Relay {
	if cfg.Mode == "" {
		cfg.Mode = ModePublish
	}
	return &Relay{
		cfg:      cfg,
		strategy: strategy,
		logger:   noopLogger{},
	}
}

// Bind attaches the live session publisher. Safe to call more than once;
// the latest publisher wins.
func (r *Relay) Bind(p Publisher) {
	r.pubMu.Lock()
	r.pub = p
	r.pubMu.Unlock()
}

// SetRecorder sets the telemetry recorder. Optional.
func (r *Relay) SetRecorder(rec Recorder) {
	r.recorderMu.Lock()
	r.recorder = rec
	r.recorderMu.Unlock()
}

// SetLogger sets the logger. Optional.
func (r *Relay) SetLogger(l Logger) {
	if l == nil {
		return
	}
	r.loggerMu.Lock()
	r.logger = l
	r.loggerMu.Unlock()
}

// Relayed returns the count of successfully relayed messages.
func (r *Relay) Relayed() uint64 {
	return r.relayed.Load()
}

// Failed returns the count of messages that could not be relayed.
func (r *Relay) Failed() uint64 {
	return r.failed.Load()
}

// HandleMessage is the inbound message handler wired into the session
// subscription. The payload is only valid for the duration of the call.
//
// Parameters:
//   - topic: The topic the message arrived on
//   - payload: The raw payload, transiently owned by the MQTT driver
//
// Returns:
//   - error: nil when the message was relayed, or the staging/publish
//     failure
func (r *Relay) HandleMessage(topic string, payload []byte) error {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()

	if !r.topicMatches(topic) {
		r.failed.Add(1)
		return fmt.Errorf("%w: got %q, want %q", ErrTopicMismatch, topic, r.cfg.InboundTopic)
	}

	start := time.Now()
	err := r.strategy.Relay(context.Background(), payload, r.emit)
	r.record(len(payload), time.Since(start), err == nil)

	if err != nil {
		r.failed.Add(1)
		r.getLogger().Warn("relay failed",
			"strategy", r.strategy.Name(),
			"bytes", len(payload),
			"error", err,
		)
		return err
	}

	r.relayed.Add(1)
	return nil
}

// emit delivers a staged payload according to the configured output mode.
func (r *Relay) emit(staged []byte) error {
	if r.cfg.Mode == ModeEcho || r.cfg.Mode == ModeBoth {
		r.getLogger().Info("relay echo",
			"bytes", len(staged),
			"payload", string(staged),
		)
	}
	if r.cfg.Mode == ModeEcho {
		return nil
	}

	r.pubMu.RLock()
	pub := r.pub
	r.pubMu.RUnlock()
	if pub == nil {
		return ErrNotBound
	}
	return pub.Publish(r.cfg.OutboundTopic, staged, r.cfg.QoS, false)
}

// topicMatches checks an arriving topic against the configured inbound
// topic. Wildcard subscriptions are matched by the broker; only exact
// topics are re-checked here.
func (r *Relay) topicMatches(topic string) bool {
	if strings.ContainsAny(r.cfg.InboundTopic, "+#") {
		return true
	}
	return topic == r.cfg.InboundTopic
}

// record delivers the outcome to the recorder, if one is set.
func (r *Relay) record(bytes int, d time.Duration, success bool) {
	r.recorderMu.RLock()
	rec := r.recorder
	r.recorderMu.RUnlock()
	if rec != nil {
		rec.RecordRelay(r.strategy.Name(), bytes, d, success)
	}
}

// getLogger returns the current logger.
func (r *Relay) getLogger() Logger {
	r.loggerMu.RLock()
	defer r.loggerMu.RUnlock()
	return r.logger
}
