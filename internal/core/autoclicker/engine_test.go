package autoclicker

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

type recordedClick struct {
	code uint16
	at   time.Time
}

type recordingInjector struct {
	mu      sync.Mutex
	events  []Event
	presses []recordedClick
	closed  bool
	failErr error
	panics  bool
}

func (r *recordingInjector) WriteEvents(events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panics {
		panic("injector exploded")
	}
	if r.failErr != nil {
		return r.failErr
	}
	now := time.Now()
	for _, event := range events {
		if event.Type == EventTypeKey && event.Value == KeyPressed {
			r.presses = append(r.presses, recordedClick{code: event.Code, at: now})
		}
	}
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingInjector) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingInjector) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingInjector) clicks() []recordedClick {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedClick, len(r.presses))
	copy(out, r.presses)
	return out
}

func (r *recordingInjector) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func testConfig(cps float64) Config {
	return Config{Settings: Settings{CPS: cps, Button: ButtonLeft}}
}

func newTestEngine(t *testing.T, cfg Config, injector Injector) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg, injector, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (e *Engine) hasWorker() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workerActive
}

func TestNewEngineDefaults(t *testing.T) {
	engine := newTestEngine(t, Config{}, &recordingInjector{})

	if got := engine.Settings(); got != DefaultSettings() {
		t.Fatalf("Settings() = %+v, want %+v", got, DefaultSettings())
	}
	if engine.IsRunning() {
		t.Fatalf("engine should start idle")
	}
	if engine.pause != DefaultPauseInterval {
		t.Fatalf("pause = %v, want %v", engine.pause, DefaultPauseInterval)
	}
}

func TestNewEngineRejectsInvalidInput(t *testing.T) {
	if _, err := NewEngine(testConfig(10), nil, noopLogger{}); err == nil {
		t.Fatalf("expected error for nil injector")
	}
	if _, err := NewEngine(testConfig(10), &recordingInjector{}, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
	cfg := testConfig(10)
	cfg.Settings.Button = "middle"
	if _, err := NewEngine(cfg, &recordingInjector{}, noopLogger{}); err == nil {
		t.Fatalf("expected error for unknown button")
	}
}

func TestClickCountTracksRate(t *testing.T) {
	const cps = 20.0
	const window = time.Second

	injector := &recordingInjector{}
	engine := newTestEngine(t, testConfig(cps), injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(window)
	engine.Stop()

	got := len(injector.clicks())
	want := int(cps * window.Seconds())
	if got < want-1 || got > want+1 {
		t.Fatalf("clicks = %d, want %d±1", got, want)
	}
}

func TestStartTwiceKeepsSingleWorker(t *testing.T) {
	injector := &recordingInjector{}
	engine := newTestEngine(t, testConfig(20), injector)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = engine.Start()
		}()
	}
	wg.Wait()
	_ = engine.Start()

	time.Sleep(500 * time.Millisecond)
	engine.Stop()

	if got := len(injector.clicks()); got > 11 {
		t.Fatalf("clicks = %d, want at most 11 (one click stream)", got)
	}
}

func TestStopEndsWorkerPromptly(t *testing.T) {
	engine := newTestEngine(t, testConfig(0.5), &recordingInjector{})

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, "worker", engine.hasWorker)
	time.Sleep(30 * time.Millisecond)

	stopped := time.Now()
	engine.Stop()
	waitFor(t, time.Second, "worker exit", func() bool { return !engine.hasWorker() })
	if elapsed := time.Since(stopped); elapsed > 500*time.Millisecond {
		t.Fatalf("worker took %v to exit, want well under one 2s interval", elapsed)
	}
}

func TestStopThenStartUsesCurrentSettings(t *testing.T) {
	injector := &recordingInjector{}
	engine := newTestEngine(t, testConfig(50), injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, "first click", func() bool { return len(injector.clicks()) > 0 })

	engine.Stop()
	engine.Apply(Settings{CPS: 50, Button: ButtonRight})
	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	before := len(injector.clicks())
	waitFor(t, time.Second, "clicks after restart", func() bool { return len(injector.clicks()) >= before+3 })
	engine.Stop()

	clicks := injector.clicks()
	for _, click := range clicks[before:] {
		if click.code != RightButtonCode {
			t.Fatalf("click after restart used code %#x, want right button", click.code)
		}
	}
}

func TestApplyWhileRunningChangesInterval(t *testing.T) {
	injector := &recordingInjector{}
	engine := newTestEngine(t, testConfig(4), injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, "first click", func() bool { return len(injector.clicks()) > 0 })

	engine.Apply(Settings{CPS: 50, Button: ButtonLeft})
	applied := time.Now()
	time.Sleep(400 * time.Millisecond)
	engine.Stop()

	if !engine.State().Settings.Button.Valid() {
		t.Fatalf("unexpected settings after apply")
	}

	var after []time.Time
	for _, click := range injector.clicks() {
		if click.at.After(applied) {
			after = append(after, click.at)
		}
	}
	// 4 cps would allow at most two clicks in 400ms.
	if len(after) < 10 {
		t.Fatalf("clicks after apply = %d, want the 50 cps cadence", len(after))
	}
	if first := after[0].Sub(applied); first > 100*time.Millisecond {
		t.Fatalf("first click after apply came %v later, want within one new interval", first)
	}
}

func TestNonPositiveRatePausesInsteadOfClicking(t *testing.T) {
	injector := &recordingInjector{}
	cfg := testConfig(0)
	cfg.Settings.CPS = -1
	cfg.PauseInterval = 10 * time.Millisecond
	engine := newTestEngine(t, cfg, injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := len(injector.clicks()); got != 0 {
		t.Fatalf("clicks = %d, want none while rate is not positive", got)
	}
	if !engine.IsRunning() {
		t.Fatalf("engine should stay running while paused")
	}

	engine.Apply(Settings{CPS: 50, Button: ButtonLeft})
	waitFor(t, time.Second, "clicks after rate fix", func() bool { return len(injector.clicks()) > 0 })
}

func TestIntervalSaturatesForTinyRates(t *testing.T) {
	tests := []struct {
		cps  float64
		want time.Duration
	}{
		{cps: 10, want: 100 * time.Millisecond},
		{cps: 0.5, want: 2 * time.Second},
		{cps: 0, want: 0},
		{cps: math.NaN(), want: 0},
		{cps: 1e-10, want: math.MaxInt64},
		{cps: 1e-300, want: math.MaxInt64},
	}
	for _, tc := range tests {
		if got := (Settings{CPS: tc.cps}).Interval(); got != tc.want {
			t.Fatalf("Interval() at cps %v = %v, want %v", tc.cps, got, tc.want)
		}
	}
}

func TestTinyRateClicksOnceAndWaits(t *testing.T) {
	injector := &recordingInjector{}
	engine := newTestEngine(t, testConfig(1e-10), injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := len(injector.clicks()); got != 1 {
		t.Fatalf("clicks = %d, want 1 at a rate of 1e-10", got)
	}

	engine.Stop()
	waitFor(t, 200*time.Millisecond, "worker exit", func() bool { return !engine.hasWorker() })
}

func TestClickEmitsPressAndReleaseWithSync(t *testing.T) {
	injector := &recordingInjector{}
	engine := newTestEngine(t, testConfig(10), injector)

	if err := engine.clickOnce(ButtonRight, 100*time.Millisecond); err != nil {
		t.Fatalf("clickOnce() error = %v", err)
	}

	want := []Event{
		{Type: EventTypeKey, Code: RightButtonCode, Value: KeyPressed},
		{Type: EventTypeSyn, Code: SynReportCode},
		{Type: EventTypeKey, Code: RightButtonCode, Value: KeyReleased},
		{Type: EventTypeSyn, Code: SynReportCode},
	}
	got := injector.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestRepeatedClickFailuresStopEngine(t *testing.T) {
	injector := &recordingInjector{failErr: errors.New("input rejected")}
	cfg := testConfig(100)
	cfg.MaxClickFailures = 3
	engine := newTestEngine(t, cfg, injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, "engine fault", func() bool { return !engine.IsRunning() })

	state := engine.State()
	if state.Err == nil {
		t.Fatalf("expected fault to be reported in state")
	}
	if !errors.Is(state.Err, injector.failErr) {
		t.Fatalf("State().Err = %v, want wrapping %v", state.Err, injector.failErr)
	}
	waitFor(t, time.Second, "worker exit", func() bool { return !engine.hasWorker() })

	injector.mu.Lock()
	injector.failErr = nil
	injector.mu.Unlock()
	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if engine.State().Err != nil {
		t.Fatalf("Start should clear the previous fault")
	}
}

func TestInjectorPanicDoesNotKillEngineSilently(t *testing.T) {
	injector := &recordingInjector{panics: true}
	cfg := testConfig(100)
	cfg.MaxClickFailures = 1
	engine := newTestEngine(t, cfg, injector)

	if err := engine.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, "engine fault", func() bool { return !engine.IsRunning() })
	if engine.State().Err == nil {
		t.Fatalf("expected panic to surface as engine fault")
	}
}

func TestChangesSignalsStateTransitions(t *testing.T) {
	engine := newTestEngine(t, testConfig(0.5), &recordingInjector{})

	expectSignal := func(step string) {
		t.Helper()
		select {
		case <-engine.Changes():
		case <-time.After(time.Second):
			t.Fatalf("no change signal after %s", step)
		}
	}

	_ = engine.Start()
	expectSignal("Start")
	engine.Apply(Settings{CPS: 3, Button: ButtonRight})
	expectSignal("Apply")
	engine.Stop()
	expectSignal("Stop")

	engine.Stop()
	select {
	case <-engine.Changes():
		t.Fatalf("Stop while idle should not signal")
	default:
	}
}

func TestCloseReleasesHeldButtonBeforeClosingInjector(t *testing.T) {
	injector := &recordingInjector{}
	engine, err := NewEngine(testConfig(10), injector, noopLogger{})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if err := engine.writeEvents(
		Event{Type: EventTypeKey, Code: LeftButtonCode, Value: KeyPressed},
		Event{Type: EventTypeSyn, Code: SynReportCode},
	); err != nil {
		t.Fatalf("writeEvents() error = %v", err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !injector.isClosed() {
		t.Fatalf("expected injector to be closed")
	}

	events := injector.snapshot()
	if len(events) < 2 {
		t.Fatalf("expected release events, got %#v", events)
	}
	if up := events[len(events)-2]; up != (Event{Type: EventTypeKey, Code: LeftButtonCode, Value: KeyReleased}) {
		t.Fatalf("unexpected release event: %#v", up)
	}
	if _, ok := <-engine.Changes(); ok {
		t.Fatalf("expected Changes to be closed")
	}
	if err := engine.Start(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Start() after Close error = %v, want ErrClosed", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestWaitWithWakeReturnsOnSignal(t *testing.T) {
	engine := newTestEngine(t, testConfig(10), &recordingInjector{})

	done := make(chan time.Duration, 1)
	go func() {
		start := time.Now()
		if !engine.waitWithWake(5 * time.Second) {
			done <- -1
			return
		}
		done <- time.Since(start)
	}()

	time.Sleep(20 * time.Millisecond)
	engine.signalWake()

	select {
	case elapsed := <-done:
		if elapsed < 0 {
			t.Fatalf("waitWithWake returned false")
		}
		if elapsed > 150*time.Millisecond {
			t.Fatalf("waitWithWake did not wake promptly: %v", elapsed)
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("timeout waiting for wake")
	}
}
