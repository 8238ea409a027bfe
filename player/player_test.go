package player_test

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/generalfuzz/acrn"
	"github.com/generalfuzz/acrn/player"
	"github.com/generalfuzz/acrn/store"
)

var errBoom = errors.New("boom")

// fakeEngine records every call made on it, in order.
type fakeEngine struct {
	calls      []string
	startErr   error
	stopErr    error
	notes      []float64
	sequence   *fakeSequence
	sequences  int
	oscRunning bool
}

type (
	fakeTransport  fakeEngine
	fakeOscillator fakeEngine
	fakeVoice      fakeEngine
	fakeMaster     fakeEngine
	fakeClock      fakeEngine
)

type fakeSequence struct {
	eng       *fakeEngine
	callback  acrn.TickFunc
	grid      acrn.BeatGrid
	index     int
	started   bool
	cancelled bool
}

func (e *fakeEngine) Transport() acrn.Transport   { return (*fakeTransport)(e) }
func (e *fakeEngine) Oscillator() acrn.Oscillator { return (*fakeOscillator)(e) }
func (e *fakeEngine) Voice() acrn.Voice           { return (*fakeVoice)(e) }
func (e *fakeEngine) Master() acrn.MasterGain     { return (*fakeMaster)(e) }
func (e *fakeEngine) Clock() acrn.Clock           { return (*fakeClock)(e) }

func (e *fakeEngine) record(format string, args ...any) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

func (e *fakeEngine) reset() { e.calls = nil }

func (t *fakeTransport) Start() error {
	(*fakeEngine)(t).record("transport.start")
	return t.startErr
}
func (t *fakeTransport) Stop() error {
	(*fakeEngine)(t).record("transport.stop")
	return t.stopErr
}
func (t *fakeTransport) SetBPM(bpm float64) { (*fakeEngine)(t).record("transport.bpm %v", bpm) }

func (o *fakeOscillator) Start() error {
	(*fakeEngine)(o).record("osc.start")
	o.oscRunning = true
	return nil
}
func (o *fakeOscillator) Stop() error {
	(*fakeEngine)(o).record("osc.stop")
	o.oscRunning = false
	return nil
}
func (o *fakeOscillator) SetFrequency(hz float64) { (*fakeEngine)(o).record("osc.freq %v", hz) }

func (v *fakeVoice) TriggerAttackRelease(hz float64, d time.Duration) {
	v.notes = append(v.notes, hz)
}

func (m *fakeMaster) RampTo(db float64, d time.Duration) {
	(*fakeEngine)(m).record("master.ramp %.2f %v", db, d)
}

func (c *fakeClock) NewSequence(callback acrn.TickFunc, grid acrn.BeatGrid) (acrn.Sequence, error) {
	e := (*fakeEngine)(c)
	e.record("sequence.new %d", len(grid))
	e.sequences++
	e.sequence = &fakeSequence{eng: e, callback: callback, grid: grid}
	return e.sequence, nil
}

func (s *fakeSequence) Start(offset int) error {
	s.eng.record("sequence.start %d", offset)
	s.started = true
	return nil
}
func (s *fakeSequence) Cancel()  { s.eng.record("sequence.cancel"); s.cancelled = true }
func (s *fakeSequence) Dispose() { s.eng.record("sequence.dispose") }

// tick delivers n beats, as the transport would while the sequence runs.
func (s *fakeSequence) tick(n int) {
	for range n {
		if !s.started || s.cancelled {
			return
		}
		s.callback(acrn.Tick{Index: s.index, Slot: s.grid[s.index%len(s.grid)]})
		s.index++
	}
}

func newPlayer(t *testing.T, st store.Store, opts ...player.Option) (*player.Player, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	p, err := player.New(player.DefaultConfig(), eng, st, rand.New(rand.NewPCG(1, 2)), opts...)
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}
	return p, eng
}

func checkCalls(t *testing.T, eng *fakeEngine, want ...string) {
	t.Helper()
	if !slices.Equal(eng.calls, want) {
		t.Fatalf("engine calls:\n got %q\nwant %q", eng.calls, want)
	}
}

func TestNewWithEmptyStore(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	s := p.State()
	if s.Frequency != 1000 || s.Derived != (acrn.FrequencySet{728, 881, 1142, 1421}) {
		t.Errorf("frequency %v derived %v", s.Frequency, s.Derived)
	}
	if s.Volume != -10 || s.Mode != player.ToneMode || s.Status != player.Stopped {
		t.Errorf("unexpected initial state %+v", s)
	}
	if !s.SliderEnabled || s.ButtonLabel != player.PlayToneText {
		t.Errorf("slider enabled %v, label %q", s.SliderEnabled, s.ButtonLabel)
	}
	checkCalls(t, eng, "transport.bpm 360", "osc.freq 1000", "master.ramp -Inf 50ms")
}

func TestNewReadsStore(t *testing.T) {
	st := store.NewMemory()
	st.Set("freq", 4000)
	st.Set("volume", -1005)
	st.Set("playerState", 1)
	p, eng := newPlayer(t, st)
	s := p.State()
	if s.Frequency != 4000 || s.Mode != player.SequenceMode || math.Abs(s.Volume+10.05) > 1e-9 {
		t.Errorf("unexpected state %+v", s)
	}
	if s.ButtonLabel != player.PlayPatternText || !s.SliderEnabled {
		t.Errorf("label %q slider %v", s.ButtonLabel, s.SliderEnabled)
	}
	if eng.calls[1] != "osc.freq 4000" {
		t.Errorf("oscillator started at %q, want the stored frequency", eng.calls[1])
	}
}

func TestNewIgnoresInvalidStoredMode(t *testing.T) {
	st := store.NewMemory()
	st.Set("playerState", 7)
	p, _ := newPlayer(t, st)
	if p.State().Mode != player.ToneMode {
		t.Errorf("mode %v, want tone", p.State().Mode)
	}
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	cfg := player.DefaultConfig()
	cfg.Pattern.LoopRepeat = 0
	_, err := player.New(cfg, &fakeEngine{}, store.NewMemory(), rand.New(rand.NewPCG(1, 2)))
	if !errors.Is(err, acrn.ErrInvalidPattern) {
		t.Fatalf("got %v, want ErrInvalidPattern", err)
	}
}

func TestPlayAndStopTone(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	eng.reset()
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	s := p.State()
	if s.Status != player.Playing || s.Mode != player.ToneMode || !s.SliderEnabled || s.ButtonLabel != player.StopToneText {
		t.Fatalf("after play: %+v", s)
	}
	checkCalls(t, eng, "master.ramp -10.00 50ms", "transport.start", "osc.freq 1000", "osc.start")
	eng.reset()
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	s = p.State()
	if s.Status != player.Stopped || s.ButtonLabel != player.PlayToneText {
		t.Fatalf("after stop: %+v", s)
	}
	checkCalls(t, eng, "master.ramp -Inf 50ms", "transport.stop", "osc.stop")
}

func TestSwitchToPatternWhilePlaying(t *testing.T) {
	type seen struct {
		t player.Transition
		s player.State
	}
	var observed []seen
	st := store.NewMemory()
	p, eng := newPlayer(t, st, player.WithObserver(func(t player.Transition, s player.State) {
		observed = append(observed, seen{t, s})
	}))
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	eng.reset()
	observed = nil
	before := p.State().Version
	if err := p.SetMode(player.SequenceMode); err != nil {
		t.Fatal(err)
	}
	s := p.State()
	if s.Version != before+1 {
		t.Errorf("version went from %d to %d, want a single commit", before, s.Version)
	}
	if len(observed) != 1 || observed[0].t != player.SwitchMode || observed[0].s.Status != player.Playing {
		t.Errorf("observers saw %+v, want one playing switch-mode state", observed)
	}
	if s.SliderEnabled || s.ButtonLabel != player.StopPatternText || s.Status != player.Playing {
		t.Errorf("after switch: %+v", s)
	}
	checkCalls(t, eng,
		"master.ramp -Inf 50ms", "transport.stop", "osc.stop",
		"master.ramp -10.00 50ms", "transport.start", "sequence.new 21", "sequence.start 0")
	if got := st.Get("playerState").Or(-1); got != 1 {
		t.Errorf("persisted mode %d, want 1", got)
	}
}

func TestSwitchModeWhileStopped(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	eng.reset()
	if err := p.SetMode(player.SequenceMode); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, eng)
	if s := p.State(); s.ButtonLabel != player.PlayPatternText || !s.SliderEnabled {
		t.Errorf("after switch: %+v", s)
	}
	version := p.State().Version
	if err := p.SetMode(player.SequenceMode); err != nil {
		t.Fatal(err)
	}
	if p.State().Version != version {
		t.Error("selecting the current mode committed a new state")
	}
	if err := p.SetMode(player.Mode(3)); !errors.Is(err, player.ErrInvalidMode) {
		t.Errorf("got %v, want ErrInvalidMode", err)
	}
}

func TestPatternPlayback(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	if err := p.SetMode(player.SequenceMode); err != nil {
		t.Fatal(err)
	}
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	seq := eng.sequence
	seq.tick(3 * 21)
	if len(eng.notes) != 48 {
		t.Fatalf("got %d notes in three cycles, want 48", len(eng.notes))
	}
	count := map[float64]int{}
	for _, hz := range eng.notes {
		count[hz]++
	}
	for _, f := range acrn.DeriveFrequencies(1000) {
		if count[f.Hz()] != 12 {
			t.Errorf("%v Hz played %d times, want 12", f, count[f.Hz()])
		}
	}
	eng.reset()
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, eng, "master.ramp -Inf 50ms", "transport.stop", "sequence.cancel", "sequence.dispose")
	seq.tick(21)
	if len(eng.notes) != 48 {
		t.Errorf("cancelled sequence kept triggering notes")
	}
	if !p.State().SliderEnabled {
		t.Error("slider still disabled after stop")
	}
}

func TestFrequencyChangeReachesNextShuffle(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	p.SetMode(player.SequenceMode)
	p.TogglePlay()
	eng.sequence.tick(4)
	if err := p.SetFrequency(2000); err != nil {
		t.Fatal(err)
	}
	eng.sequence.tick(4)
	derived := acrn.DeriveFrequencies(2000)
	for _, hz := range eng.notes[4:] {
		if !slices.Contains(derived.Slice(), acrn.Frequency(hz)) {
			t.Errorf("note %v Hz is not derived from 2000 Hz", hz)
		}
	}
}

func TestSetFrequency(t *testing.T) {
	st := store.NewMemory()
	p, eng := newPlayer(t, st)
	eng.reset()
	if err := p.SetFrequency(3000); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, eng, "osc.freq 3000")
	first := p.State().Derived
	if first != acrn.DeriveFrequencies(3000) {
		t.Errorf("derived %v", first)
	}
	for range 5 {
		p.SetFrequency(3000)
		if p.State().Derived != first {
			t.Fatalf("derived set drifted to %v", p.State().Derived)
		}
	}
	if got := st.Get("freq").Or(0); got != 3000 {
		t.Errorf("persisted frequency %d", got)
	}
	p.SetMode(player.SequenceMode)
	eng.reset()
	p.SetFrequency(500)
	checkCalls(t, eng)
}

func TestSetFrequencyText(t *testing.T) {
	for _, tc := range []struct {
		text string
		want acrn.Frequency
	}{
		{"1234", 1234},
		{"  77hz", 77},
		{"+12", 12},
		{"-5", -5},
		{"1e3", 1},
		{"99999", 99999},
		{"abc", 1000},
		{"", 1000},
		{" - 3", 1000},
	} {
		t.Run(tc.text, func(t *testing.T) {
			p, _ := newPlayer(t, store.NewMemory())
			version := p.State().Version
			if err := p.SetFrequencyText(tc.text); err != nil {
				t.Fatal(err)
			}
			if got := p.State().Frequency; got != tc.want {
				t.Errorf("frequency %v, want %v", got, tc.want)
			}
			if tc.want == 1000 && p.State().Version != version {
				t.Error("ignored text committed a new state")
			}
		})
	}
}

func TestSetVolume(t *testing.T) {
	st := store.NewMemory()
	p, eng := newPlayer(t, st)
	eng.reset()
	if err := p.SetVolume(-10); err != nil {
		t.Fatal(err)
	}
	if v := p.State().Volume; math.Abs(v+10.05) > 1e-9 {
		t.Errorf("volume %v, want -10.05", v)
	}
	if got := st.Get("volume").Or(0); got != -1005 {
		t.Errorf("persisted volume %d, want -1005", got)
	}
	checkCalls(t, eng)
	p.TogglePlay()
	eng.reset()
	p.SetVolume(0)
	checkCalls(t, eng, "master.ramp -0.05 50ms")
}

func TestSettingsRoundTrip(t *testing.T) {
	st := store.NewMemory()
	p, _ := newPlayer(t, st)
	p.SetFrequency(2345)
	p.SetVolume(-20)
	p.SetMode(player.SequenceMode)
	want := p.State()
	q, _ := newPlayer(t, st)
	got := q.State()
	if got.Frequency != want.Frequency || got.Derived != want.Derived || got.Mode != want.Mode {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if math.Abs(got.Volume-want.Volume) > 1e-9 {
		t.Errorf("volume %v, want %v", got.Volume, want.Volume)
	}
}

func TestEngineErrorLeavesStateUnchanged(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	eng.startErr = errBoom
	before := p.State()
	err := p.TogglePlay()
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want errBoom", err)
	}
	if p.State() != before {
		t.Errorf("state changed to %+v", p.State())
	}
}

func TestFailedModeSwitchEndsSession(t *testing.T) {
	st := store.NewMemory()
	p, eng := newPlayer(t, st)
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	eng.startErr = errBoom
	before := p.State().Version
	err := p.SetMode(player.SequenceMode)
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want errBoom", err)
	}
	s := p.State()
	if s.Status != player.Stopped || s.Mode != player.SequenceMode || s.ButtonLabel != player.PlayPatternText {
		t.Errorf("after failed switch: %+v", s)
	}
	if !s.SliderEnabled || s.Version != before+1 {
		t.Errorf("slider %v, version %d after %d", s.SliderEnabled, s.Version, before)
	}
	if eng.oscRunning {
		t.Error("oscillator still running")
	}
	if got := st.Get("playerState").Or(-1); got != 1 {
		t.Errorf("persisted mode %d, want 1", got)
	}
	eng.startErr = nil
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	if s := p.State(); s.Status != player.Playing || s.ButtonLabel != player.StopPatternText {
		t.Errorf("could not restart after failure: %+v", s)
	}
}

func TestFailedStopEndsSession(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	p.SetMode(player.SequenceMode)
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	seq := eng.sequence
	eng.stopErr = errBoom
	if err := p.TogglePlay(); !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want errBoom", err)
	}
	if s := p.State(); s.Status != player.Stopped || s.ButtonLabel != player.PlayPatternText || !s.SliderEnabled {
		t.Errorf("after failed stop: %+v", s)
	}
	if !seq.cancelled {
		t.Error("sequence not released after failed stop")
	}
}

func TestSwitchBackAndForthWhilePlaying(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	if err := p.TogglePlay(); err != nil {
		t.Fatal(err)
	}
	if err := p.SetMode(player.SequenceMode); err != nil {
		t.Fatal(err)
	}
	first := eng.sequence
	first.tick(2)
	eng.reset()
	if err := p.SetMode(player.ToneMode); err != nil {
		t.Fatal(err)
	}
	checkCalls(t, eng,
		"master.ramp -Inf 50ms", "transport.stop", "sequence.cancel", "sequence.dispose",
		"master.ramp -10.00 50ms", "transport.start", "osc.freq 1000", "osc.start")
	if s := p.State(); s.Mode != player.ToneMode || s.Status != player.Playing || !s.SliderEnabled || s.ButtonLabel != player.StopToneText {
		t.Errorf("after switch to tone: %+v", s)
	}
	if err := p.SetMode(player.SequenceMode); err != nil {
		t.Fatal(err)
	}
	if eng.sequences != 2 {
		t.Errorf("created %d sequences, want 2", eng.sequences)
	}
	if eng.sequence == first {
		t.Fatal("second pattern reused the first sequence")
	}
	notes := len(eng.notes)
	first.tick(21)
	if len(eng.notes) != notes {
		t.Errorf("released sequence triggered %d notes", len(eng.notes)-notes)
	}
	eng.sequence.tick(4)
	if len(eng.notes) != notes+4 {
		t.Errorf("new sequence triggered %d notes, want 4", len(eng.notes)-notes)
	}
}

func TestSliders(t *testing.T) {
	p, _ := newPlayer(t, store.NewMemory())
	freq := p.FrequencySlider().Int()
	if ok, err := freq.Set(20000); !ok || err != nil {
		t.Fatalf("Set: %v %v", ok, err)
	}
	if freq.Value() != 15000 {
		t.Errorf("slider not clamped: %d", freq.Value())
	}
	if ok, _ := freq.Set(15000); ok {
		t.Error("setting the same value reported a change")
	}
	vol := p.VolumeSlider().Int()
	vol.Set(-12)
	if vol.Value() != -12 || math.Abs(p.State().Volume+12.05) > 1e-9 {
		t.Errorf("volume slider %d, state %v", vol.Value(), p.State().Volume)
	}
	if err := p.Pattern().Bool().Set(true); err != nil {
		t.Fatal(err)
	}
	if err := p.Playing().Bool().Toggle(); err != nil {
		t.Fatal(err)
	}
	if freq.Enabled() {
		t.Error("frequency slider enabled while the pattern plays")
	}
	if ok, _ := freq.Set(500); ok || p.State().Frequency != 15000 {
		t.Error("disabled slider changed the frequency")
	}
}

func TestBrokerEvents(t *testing.T) {
	p, _ := newPlayer(t, store.NewMemory())
	b := player.NewBroker()
	events := []player.Event{
		player.ChangeFrequency{Frequency: 1500},
		player.ChangeVolume{Volume: -30},
		player.SelectMode{Mode: player.SequenceMode},
		player.TogglePlay{},
		player.SlideFrequency{Value: 900},
		player.ChangeFrequencyText{Text: "oops"},
		player.SlideVolume{Value: -6},
	}
	for _, e := range events {
		if !player.TrySend(b.Events, e) {
			t.Fatal("broker full")
		}
	}
	for range events {
		if err := p.Handle(<-b.Events); err != nil {
			t.Fatal(err)
		}
	}
	s := p.State()
	if s.Frequency != 1500 || s.Status != player.Playing || s.Mode != player.SequenceMode {
		t.Errorf("unexpected state %+v", s)
	}
	if math.Abs(s.Volume+6.05) > 1e-9 {
		t.Errorf("volume %v, want -6.05", s.Volume)
	}
}

func TestTrySendFull(t *testing.T) {
	c := make(chan int, 1)
	if !player.TrySend(c, 1) || player.TrySend(c, 2) {
		t.Error("TrySend should succeed once and then report a full channel")
	}
}

func TestCloseStopsPlayback(t *testing.T) {
	p, eng := newPlayer(t, store.NewMemory())
	p.TogglePlay()
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if p.State().IsPlaying() || eng.oscRunning {
		t.Error("still playing after Close")
	}
}

func TestTransitionStrings(t *testing.T) {
	for _, tc := range []struct {
		t    player.Transition
		want string
	}{
		{player.Init, "init"},
		{player.Start, "start"},
		{player.Stop, "stop"},
		{player.SwitchMode, "switch-mode"},
		{player.FrequencyChanged, "frequency-changed"},
		{player.VolumeChanged, "volume-changed"},
	} {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
	if player.SequenceMode.String() != "sequence" {
		t.Error("unexpected mode name")
	}
}

func TestObserversSeeChangeTransitions(t *testing.T) {
	var seen []player.Transition
	p, _ := newPlayer(t, store.NewMemory(), player.WithObserver(func(t player.Transition, _ player.State) {
		seen = append(seen, t)
	}))
	p.Handle(player.ChangeFrequency{Frequency: 800})
	p.Handle(player.ChangeVolume{Volume: -3})
	want := []player.Transition{player.Init, player.FrequencyChanged, player.VolumeChanged}
	if !slices.Equal(seen, want) {
		t.Errorf("got %v, want %v", seen, want)
	}
}
