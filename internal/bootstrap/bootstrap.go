package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gatelink/gatelink-core/internal/radio"
)

// Default intervals and deadlines for the polled stages.
const (
	// defaultPollInterval is the fixed interval between driver polls.
	defaultPollInterval = 100 * time.Millisecond

	// defaultDHCPTimeout bounds the wait for a DHCP lease.
	defaultDHCPTimeout = 60 * time.Second

	// defaultAddressTimeout bounds the wait for a full address record.
	defaultAddressTimeout = 30 * time.Second
)

// Stage names used in StageError and logs.
const (
	stageRadioInit     = "radio-init"
	stageClearProfiles = "clear-profiles"
	stageAssociate     = "associate"
	stageAwaitDHCP     = "await-dhcp"
	stageAwaitAddress  = "await-address"
)

// State is the connection state of the bootstrap sequence.
// Strictly forward-progressing on the success path.
type State int

// Bootstrap states, in transition order.
const (
	StateUninitialized State = iota
	StateRadioReady
	StateAssociated
	StateDhcpBound
)

// String returns the state name for logs and tests.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRadioReady:
		return "radio-ready"
	case StateAssociated:
		return "associated"
	case StateDhcpBound:
		return "dhcp-bound"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// StageTiming records how long a completed stage took, how many attempts
// it needed, and when it finished. Collected during Run for telemetry.
type StageTiming struct {
	Stage       string
	Duration    time.Duration
	Attempts    int
	CompletedAt time.Time
}

// Logger is the logging interface consumed by the bootstrap sequence.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Config controls the bootstrap sequence.
type Config struct {
	// Credentials identify the access point to join.
	Credentials radio.Credentials

	// PollInterval is the fixed interval between driver polls.
	// Zero selects the default (100ms).
	PollInterval time.Duration

	// DHCPTimeout bounds the wait for a DHCP lease. Zero selects the
	// default (60s).
	DHCPTimeout time.Duration

	// AddressTimeout bounds the wait for a full address record. Zero
	// selects the default (30s).
	AddressTimeout time.Duration

	// AssociateAttempts is how many times association is tried before
	// the stage fails fatally. Zero or one reproduces the strict
	// fail-once policy of embedded targets.
	AssociateAttempts int
}

// Bootstrap drives a radio.Driver through the connection state machine.
//
// Not safe for concurrent Run calls; State may be read from other
// goroutines.
type Bootstrap struct {
	drv radio.Driver
	cfg Config

	state   State
	timings []StageTiming
	mu      sync.RWMutex

	logger Logger
}

// New creates a Bootstrap for the given driver.
func New(drv radio.Driver, cfg Config) *Bootstrap {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.DHCPTimeout <= 0 {
		cfg.DHCPTimeout = defaultDHCPTimeout
	}
	if cfg.AddressTimeout <= 0 {
		cfg.AddressTimeout = defaultAddressTimeout
	}
	if cfg.AssociateAttempts < 1 {
		cfg.AssociateAttempts = 1
	}
	return &Bootstrap{
		drv:    drv,
		cfg:    cfg,
		state:  StateUninitialized,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for stage diagnostics.
func (b *Bootstrap) SetLogger(l Logger) {
	if l != nil {
		b.logger = l
	}
}

// State returns the current connection state.
func (b *Bootstrap) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Timings returns the per-stage timings collected by the last Run, in
// stage order. Only completed stages appear.
func (b *Bootstrap) Timings() []StageTiming {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]StageTiming, len(b.timings))
	copy(out, b.timings)
	return out
}

// Reset regresses the state machine to Uninitialized so Run can be
// reattempted after a detected failure.
func (b *Bootstrap) Reset() {
	b.mu.Lock()
	b.state = StateUninitialized
	b.timings = nil
	b.mu.Unlock()
}

// Run executes the full bootstrap sequence and blocks until the radio is
// DHCP-bound or a stage fails.
//
// On a fatal stage failure no further driver calls are made. Poll stages
// respect ctx cancellation and their configured deadlines; expiry returns
// a non-fatal StageError wrapping ErrStageTimeout.
//
// Parameters:
//   - ctx: Context for cancellation of the polled stages
//
// Returns:
//   - radio.AddressRecord: The resolved network parameters
//   - error: *StageError describing the failed stage, or nil
func (b *Bootstrap) Run(ctx context.Context) (radio.AddressRecord, error) {
	b.mu.Lock()
	b.timings = nil
	b.mu.Unlock()

	if err := b.initializeRadio(); err != nil {
		return radio.AddressRecord{}, err
	}
	if err := b.clearStoredProfiles(); err != nil {
		return radio.AddressRecord{}, err
	}
	if err := b.associate(ctx); err != nil {
		return radio.AddressRecord{}, err
	}
	if err := b.awaitDHCP(ctx); err != nil {
		return radio.AddressRecord{}, err
	}
	rec, err := b.awaitConnectionDetails(ctx)
	if err != nil {
		return radio.AddressRecord{}, err
	}

	b.logger.Info("bootstrap complete",
		"ip", rec.IP.String(),
		"netmask", rec.Netmask.String(),
		"gateway", rec.Gateway.String(),
	)
	return rec, nil
}

// initializeRadio powers up and resets the radio. Failure is fatal: no
// network functionality can proceed, and the driver may be in an undefined
// state.
func (b *Bootstrap) initializeRadio() error {
	start := time.Now()
	if err := b.drv.Begin(); err != nil {
		return newStageError(stageRadioInit, true, err)
	}
	b.setState(StateRadioReady)
	b.recordTiming(stageRadioInit, start, 1)

	// Diagnostics only; failures here don't affect the sequence.
	if fw, err := b.drv.FirmwareVersion(); err == nil {
		b.logger.Info("radio initialised", "firmware", fw)
	}
	if mac, err := b.drv.MACAddress(); err == nil {
		b.logger.Info("radio address", "mac", mac)
	}
	return nil
}

// clearStoredProfiles removes persisted association profiles so the
// configured credentials are authoritative. Failure is fatal.
func (b *Bootstrap) clearStoredProfiles() error {
	start := time.Now()
	if err := b.drv.DeleteProfiles(); err != nil {
		return newStageError(stageClearProfiles, true, err)
	}
	b.recordTiming(stageClearProfiles, start, 1)
	return nil
}

// associate joins the configured access point, retrying up to
// AssociateAttempts times. Exhausting the attempts is fatal.
func (b *Bootstrap) associate(ctx context.Context) error {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= b.cfg.AssociateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return newStageError(stageAssociate, false, err)
		}

		lastErr = b.drv.ConnectToAP(b.cfg.Credentials)
		if lastErr == nil {
			b.setState(StateAssociated)
			b.recordTiming(stageAssociate, start, attempt)
			b.logger.Info("associated",
				"ssid", b.cfg.Credentials.SSID,
				"security", b.cfg.Credentials.Security.String(),
			)
			return nil
		}

		b.logger.Warn("association attempt failed",
			"attempt", attempt,
			"of", b.cfg.AssociateAttempts,
			"error", lastErr,
		)
		if attempt < b.cfg.AssociateAttempts {
			if err := sleepCtx(ctx, b.cfg.PollInterval); err != nil {
				return newStageError(stageAssociate, false, err)
			}
		}
	}
	return newStageError(stageAssociate, true, lastErr)
}

// awaitDHCP polls the driver for DHCP completion at the configured
// interval until the deadline expires.
func (b *Bootstrap) awaitDHCP(ctx context.Context) error {
	start := time.Now()
	polls := 0
	err := b.poll(ctx, b.cfg.DHCPTimeout, func() (bool, error) {
		polls++
		return b.drv.CheckDHCP()
	})
	if err != nil {
		return newStageError(stageAwaitDHCP, false, err)
	}
	b.setState(StateDhcpBound)
	b.recordTiming(stageAwaitDHCP, start, polls)
	return nil
}

// awaitConnectionDetails polls until the driver reports a full address
// record.
func (b *Bootstrap) awaitConnectionDetails(ctx context.Context) (radio.AddressRecord, error) {
	start := time.Now()
	polls := 0
	var rec radio.AddressRecord
	err := b.poll(ctx, b.cfg.AddressTimeout, func() (bool, error) {
		polls++
		r, ok, err := b.drv.AddressRecord()
		if err != nil {
			return false, err
		}
		rec = r
		return ok, nil
	})
	if err != nil {
		return radio.AddressRecord{}, newStageError(stageAwaitAddress, false, err)
	}
	b.recordTiming(stageAwaitAddress, start, polls)
	return rec, nil
}

// poll invokes check at the configured interval until it reports ready,
// returns an error, the deadline expires, or ctx is cancelled.
func (b *Bootstrap) poll(ctx context.Context, timeout time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ready, err := check()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: after %v", ErrStageTimeout, timeout)
		}
		if err := sleepCtx(ctx, b.cfg.PollInterval); err != nil {
			return err
		}
	}
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// recordTiming appends a completed stage's timing.
func (b *Bootstrap) recordTiming(stage string, start time.Time, attempts int) {
	b.mu.Lock()
	b.timings = append(b.timings, StageTiming{
		Stage:       stage,
		Duration:    time.Since(start),
		Attempts:    attempts,
		CompletedAt: time.Now(),
	})
	b.mu.Unlock()
}

// setState advances the state machine.
func (b *Bootstrap) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}
