package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatelink/gatelink-core/internal/radio"
)

// fakeDriver is a scripted radio.Driver. Each hook defaults to success;
// tests override the calls they care about and inspect the recorded call
// sequence afterwards.
type fakeDriver struct {
	calls []string

	beginErr       error
	deleteErr      error
	connectErrs    []error // consumed per attempt; nil slice means success
	connectCalls   int
	dhcpResults    []bool // consumed per poll; true is sticky once reached
	dhcpErr        error
	recordAfter    int // polls before the record is reported complete
	recordPolls    int
	record         radio.AddressRecord
	recordErr      error
	firmwareErr    error
	macErr         error
	connectTCPErr  error
}

func (d *fakeDriver) Begin() error {
	d.calls = append(d.calls, "begin")
	return d.beginErr
}

func (d *fakeDriver) DeleteProfiles() error {
	d.calls = append(d.calls, "delete-profiles")
	return d.deleteErr
}

func (d *fakeDriver) ConnectToAP(radio.Credentials) error {
	d.calls = append(d.calls, "connect-ap")
	i := d.connectCalls
	d.connectCalls++
	if i < len(d.connectErrs) {
		return d.connectErrs[i]
	}
	return nil
}

func (d *fakeDriver) CheckDHCP() (bool, error) {
	d.calls = append(d.calls, "check-dhcp")
	if d.dhcpErr != nil {
		return false, d.dhcpErr
	}
	if len(d.dhcpResults) == 0 {
		return true, nil
	}
	r := d.dhcpResults[0]
	if len(d.dhcpResults) > 1 {
		d.dhcpResults = d.dhcpResults[1:]
	}
	return r, nil
}

func (d *fakeDriver) AddressRecord() (radio.AddressRecord, bool, error) {
	d.calls = append(d.calls, "address-record")
	if d.recordErr != nil {
		return radio.AddressRecord{}, false, d.recordErr
	}
	d.recordPolls++
	if d.recordPolls <= d.recordAfter {
		return radio.AddressRecord{}, false, nil
	}
	return d.record, true, nil
}

func (d *fakeDriver) FirmwareVersion() (string, error) {
	if d.firmwareErr != nil {
		return "", d.firmwareErr
	}
	return "fake/1.0", nil
}

func (d *fakeDriver) MACAddress() (string, error) {
	if d.macErr != nil {
		return "", d.macErr
	}
	return "de:ad:be:ef:00:01", nil
}

func (d *fakeDriver) ConnectTCP(radio.Endpoint) error {
	d.calls = append(d.calls, "connect-tcp")
	return d.connectTCPErr
}

// fastConfig keeps poll loops short so tests run in milliseconds.
func fastConfig() Config {
	return Config{
		Credentials:    radio.Credentials{SSID: "workshop", Security: radio.SecurityWPA2},
		PollInterval:   time.Millisecond,
		DHCPTimeout:    50 * time.Millisecond,
		AddressTimeout: 50 * time.Millisecond,
	}
}

func TestRun_HappyPath(t *testing.T) {
	drv := &fakeDriver{
		record: radio.AddressRecord{
			IP:      radio.Octets{192, 168, 1, 10},
			Netmask: radio.Octets{255, 255, 255, 0},
			Gateway: radio.Octets{192, 168, 1, 1},
		},
	}
	b := New(drv, fastConfig())

	rec, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if rec.IP != (radio.Octets{192, 168, 1, 10}) {
		t.Errorf("IP = %v, want 192.168.1.10", rec.IP)
	}

	if got := b.State(); got != StateDhcpBound {
		t.Errorf("State() = %v, want %v", got, StateDhcpBound)
	}

	// The driver must be exercised in strict stage order.
	want := []string{"begin", "delete-profiles", "connect-ap", "check-dhcp", "address-record"}
	if len(drv.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", drv.calls, want)
	}
	for i := range want {
		if drv.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, drv.calls[i], want[i])
		}
	}
}

func TestRun_StateProgression(t *testing.T) {
	drv := &fakeDriver{}
	b := New(drv, fastConfig())

	if got := b.State(); got != StateUninitialized {
		t.Fatalf("initial State() = %v, want %v", got, StateUninitialized)
	}

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := b.State(); got != StateDhcpBound {
		t.Errorf("final State() = %v, want %v", got, StateDhcpBound)
	}
}

func TestRun_InitFailureIsFatalAndStopsSequence(t *testing.T) {
	drv := &fakeDriver{beginErr: errors.New("no radio present")}
	b := New(drv, fastConfig())

	_, err := b.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error, got nil")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %T, want *StageError", err)
	}
	if stageErr.Stage != "radio-init" {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, "radio-init")
	}
	if !IsFatal(err) {
		t.Error("IsFatal() = false, want true")
	}

	// No driver call may follow the failed stage.
	if len(drv.calls) != 1 || drv.calls[0] != "begin" {
		t.Errorf("calls = %v, want [begin] only", drv.calls)
	}

	if got := b.State(); got != StateUninitialized {
		t.Errorf("State() = %v, want %v", got, StateUninitialized)
	}
}

func TestRun_AssociationFailureIsFatal(t *testing.T) {
	drv := &fakeDriver{connectErrs: []error{errors.New("auth failed")}}
	b := New(drv, fastConfig())

	_, err := b.Run(context.Background())
	if !IsFatal(err) {
		t.Fatalf("Run() error = %v, want fatal StageError", err)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %T, want *StageError", err)
	}
	if stageErr.Stage != "associate" {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, "associate")
	}

	// The poll stages must never start after a failed association.
	for _, c := range drv.calls {
		if c == "check-dhcp" || c == "address-record" {
			t.Errorf("driver call %q after failed association", c)
		}
	}
}

func TestRun_AssociationRetriesThenSucceeds(t *testing.T) {
	cfg := fastConfig()
	cfg.AssociateAttempts = 3

	drv := &fakeDriver{
		connectErrs: []error{errors.New("busy"), errors.New("busy")},
	}
	b := New(drv, cfg)

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if drv.connectCalls != 3 {
		t.Errorf("ConnectToAP calls = %d, want 3", drv.connectCalls)
	}
}

func TestRun_AssociationRetriesExhausted(t *testing.T) {
	cfg := fastConfig()
	cfg.AssociateAttempts = 2

	drv := &fakeDriver{
		connectErrs: []error{errors.New("busy"), errors.New("busy")},
	}
	b := New(drv, cfg)

	_, err := b.Run(context.Background())
	if !IsFatal(err) {
		t.Fatalf("Run() error = %v, want fatal StageError", err)
	}
	if drv.connectCalls != 2 {
		t.Errorf("ConnectToAP calls = %d, want 2", drv.connectCalls)
	}
}

func TestRun_DHCPTimeout(t *testing.T) {
	drv := &fakeDriver{dhcpResults: []bool{false}}
	b := New(drv, fastConfig())

	_, err := b.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected timeout error, got nil")
	}

	if !errors.Is(err, ErrStageTimeout) {
		t.Errorf("Run() error = %v, want ErrStageTimeout", err)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %T, want *StageError", err)
	}
	if stageErr.Stage != "await-dhcp" {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, "await-dhcp")
	}
	if IsFatal(err) {
		t.Error("IsFatal() = true for timeout, want false")
	}
}

func TestRun_DHCPSucceedsAfterPolls(t *testing.T) {
	drv := &fakeDriver{dhcpResults: []bool{false, false, true}}
	b := New(drv, fastConfig())

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	polls := 0
	for _, c := range drv.calls {
		if c == "check-dhcp" {
			polls++
		}
	}
	if polls != 3 {
		t.Errorf("CheckDHCP polls = %d, want 3", polls)
	}
}

func TestRun_AddressRecordTimeout(t *testing.T) {
	cfg := fastConfig()
	drv := &fakeDriver{recordAfter: 1 << 30}
	b := New(drv, cfg)

	_, err := b.Run(context.Background())
	if !errors.Is(err, ErrStageTimeout) {
		t.Fatalf("Run() error = %v, want ErrStageTimeout", err)
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Run() error = %T, want *StageError", err)
	}
	if stageErr.Stage != "await-address" {
		t.Errorf("Stage = %q, want %q", stageErr.Stage, "await-address")
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	cfg := fastConfig()
	cfg.DHCPTimeout = time.Hour // only cancellation can end the poll

	drv := &fakeDriver{dhcpResults: []bool{false}}
	b := New(drv, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := b.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if IsFatal(err) {
		t.Error("IsFatal() = true for cancellation, want false")
	}
}

func TestRun_DriverErrorDuringPoll(t *testing.T) {
	drv := &fakeDriver{dhcpErr: errors.New("radio gone")}
	b := New(drv, fastConfig())

	_, err := b.Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error, got nil")
	}
	if errors.Is(err, ErrStageTimeout) {
		t.Error("driver error must not be reported as timeout")
	}
}

func TestReset(t *testing.T) {
	drv := &fakeDriver{}
	b := New(drv, fastConfig())

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := b.State(); got != StateDhcpBound {
		t.Fatalf("State() = %v, want %v", got, StateDhcpBound)
	}

	b.Reset()
	if got := b.State(); got != StateUninitialized {
		t.Errorf("State() after Reset = %v, want %v", got, StateUninitialized)
	}

	// The sequence must be repeatable after Reset.
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() after Reset error = %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUninitialized, "uninitialized"},
		{StateRadioReady, "radio-ready"},
		{StateAssociated, "associated"},
		{StateDhcpBound, "dhcp-bound"},
		{State(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestStageError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := newStageError("associate", true, inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is() failed to find wrapped error")
	}
	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}
}

func TestTimings_RecordedInStageOrder(t *testing.T) {
	drv := &fakeDriver{
		connectErrs: []error{errors.New("busy"), errors.New("busy")},
		dhcpResults: []bool{false, false, true},
	}
	cfg := fastConfig()
	cfg.AssociateAttempts = 3
	b := New(drv, cfg)

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	timings := b.Timings()
	wantStages := []string{"radio-init", "clear-profiles", "associate", "await-dhcp", "await-address"}
	if len(timings) != len(wantStages) {
		t.Fatalf("Timings() = %d entries, want %d", len(timings), len(wantStages))
	}
	for i, want := range wantStages {
		if timings[i].Stage != want {
			t.Errorf("timings[%d].Stage = %q, want %q", i, timings[i].Stage, want)
		}
		if timings[i].Duration < 0 {
			t.Errorf("timings[%d].Duration = %v, want >= 0", i, timings[i].Duration)
		}
		if timings[i].CompletedAt.IsZero() {
			t.Errorf("timings[%d].CompletedAt is zero", i)
		}
	}

	if got := timings[2].Attempts; got != 3 {
		t.Errorf("associate Attempts = %d, want 3", got)
	}
	if got := timings[3].Attempts; got != 3 {
		t.Errorf("await-dhcp Attempts = %d, want 3 polls", got)
	}
}

func TestTimings_NotRecordedForFailedStage(t *testing.T) {
	drv := &fakeDriver{connectErrs: []error{errors.New("auth failed")}}
	b := New(drv, fastConfig())

	if _, err := b.Run(context.Background()); err == nil {
		t.Fatal("Run() expected error, got nil")
	}

	for _, st := range b.Timings() {
		if st.Stage == "associate" {
			t.Error("failed associate stage must not be recorded")
		}
	}
}

func TestTimings_ClearedByResetAndRerun(t *testing.T) {
	drv := &fakeDriver{}
	b := New(drv, fastConfig())

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	b.Reset()
	if got := len(b.Timings()); got != 0 {
		t.Fatalf("Timings() after Reset = %d entries, want 0", got)
	}

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := len(b.Timings()); got != 5 {
		t.Errorf("Timings() after rerun = %d entries, want 5", got)
	}
}
