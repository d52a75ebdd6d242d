package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// sweepTransport records every frame and answers RSSI samples from a
// queue, one raw byte per GetRssiInst, in sweep order. Every other
// command gets an all-zero reply, which the driver accepts.
type sweepTransport struct {
	frames [][]byte
	rssi   []byte
}

func (s *sweepTransport) Exchange(w []byte) ([]byte, error) {
	s.frames = append(s.frames, append([]byte(nil), w...))
	r := make([]byte, len(w))
	if w[0] == sx1262.OpGetRssiInst {
		r[1] = 0x54 // chip reports RX
		if len(s.rssi) > 0 {
			r[2] = s.rssi[0]
			s.rssi = s.rssi[1:]
		}
	}
	return r, nil
}

func (s *sweepTransport) opcodes() []byte {
	ops := make([]byte, len(s.frames))
	for i, f := range s.frames {
		ops[i] = f[0]
	}
	return ops
}

func sweepConfig() *ScanConfig {
	return &ScanConfig{
		CoarseFrequencies: []uint32{433920000, 868350000, 915000000},
		RSSIThreshold:     -93,
		FineScanRange:     20000,
		FineScanStep:      20000,
		DwellTime:         time.Millisecond,
		ScanInterval:      time.Millisecond,
		HoldMax:           DefaultHoldMax,
		LostThreshold:     DefaultLostThreshold,
	}
}

func TestScanOnceFindsStrongestFrequency(t *testing.T) {
	st := &sweepTransport{}
	// Coarse: -90, -60, -100 dBm. Fine around the winner: -65, -55, -70.
	st.rssi = []byte{180, 120, 200, 130, 110, 140}

	s := New(sx1262.New(st), sweepConfig())
	result, err := s.ScanOnce()
	require.NoError(t, err)

	assert.True(t, result.SignalDetected)
	assert.Equal(t, uint32(868350000), result.CoarseFrequency)
	assert.Equal(t, float32(-60), result.CoarseRSSI)
	assert.Equal(t, uint32(868350000), result.FineFrequency)
	assert.Equal(t, float32(-55), result.FineRSSI)

	// Every scripted sample was consumed: 3 coarse plus 3 fine.
	assert.Empty(t, st.rssi)
}

func TestScanOnceCommandSequence(t *testing.T) {
	st := &sweepTransport{}
	st.rssi = []byte{180, 120, 200, 130, 110, 140}

	s := New(sx1262.New(st), sweepConfig())
	_, err := s.ScanOnce()
	require.NoError(t, err)

	ops := st.opcodes()
	// The coarse preset loads once, then each frequency is measured
	// as standby, tune, receive, sample.
	want := []byte{
		sx1262.OpSetStandby, sx1262.OpSetPacketType, sx1262.OpSetModulationParams,
		sx1262.OpSetStandby, sx1262.OpSetRfFrequency, sx1262.OpSetRx, sx1262.OpGetRssiInst,
	}
	require.GreaterOrEqual(t, len(ops), len(want))
	assert.Equal(t, want, ops[:len(want)])
}

func TestScanOnceBelowThresholdSkipsFineScan(t *testing.T) {
	st := &sweepTransport{}
	// All three frequencies read -110 dBm.
	st.rssi = []byte{220, 220, 220}

	s := New(sx1262.New(st), sweepConfig())
	result, err := s.ScanOnce()
	require.NoError(t, err)

	assert.False(t, result.SignalDetected)
	assert.Equal(t, uint32(0), result.FineFrequency)

	// 3 preset frames plus 4 frames per coarse frequency, no fine pass.
	assert.Len(t, st.frames, 15)
}

func TestScanOnceSkipsRedundantPresetLoad(t *testing.T) {
	st := &sweepTransport{}
	st.rssi = []byte{220, 220, 220, 220, 220, 220}

	s := New(sx1262.New(st), sweepConfig())
	_, err := s.ScanOnce()
	require.NoError(t, err)
	require.Len(t, st.frames, 15)

	// The coarse preset is still loaded, so the second cycle goes
	// straight to measuring.
	_, err = s.ScanOnce()
	require.NoError(t, err)
	assert.Len(t, st.frames, 27)
}

func TestScanOnceUpdatesTracker(t *testing.T) {
	st := &sweepTransport{}
	st.rssi = []byte{180, 120, 200, 130, 110, 140}

	detected := make(chan *SignalInfo, 1)
	cfg := sweepConfig()
	cfg.OnSignalDetected = func(info *SignalInfo) { detected <- info }

	s := New(sx1262.New(st), cfg)
	_, err := s.ScanOnce()
	require.NoError(t, err)

	select {
	case info := <-detected:
		assert.Equal(t, uint32(868350000), info.Frequency)
	case <-time.After(time.Second):
		t.Fatal("detection callback never fired")
	}

	signals := s.GetActiveSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, float32(-55), signals[0].RSSI)
}

func TestScanOnceCompletesWithSparseConfigFile(t *testing.T) {
	// A config file carrying only frequencies, threshold and dwell
	// time gets working fine sweep parameters from the defaults. The
	// watchdog catches a sweep loop that stops advancing.
	path := filepath.Join(t.TempDir(), "scan.json")
	data := []byte(`{
		"version": "1.0",
		"frequencies": {"coarse": [433920000]},
		"scan_parameters": {"rssi_threshold_dbm": -93, "dwell_time_ms": 1}
	}`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	s, err := NewFromConfigFile(sx1262.New(&sweepTransport{}), path)
	require.NoError(t, err)

	cfg := s.GetConfig()
	assert.Equal(t, DefaultFineScanRange, cfg.FineScanRange)
	assert.Equal(t, DefaultFineScanStep, cfg.FineScanStep)

	done := make(chan *ScanResult, 1)
	scanErrs := make(chan error, 1)
	go func() {
		result, scanErr := s.ScanOnce()
		if scanErr != nil {
			scanErrs <- scanErr
			return
		}
		done <- result
	}()

	select {
	case scanErr := <-scanErrs:
		t.Fatalf("scan cycle failed: %v", scanErr)
	case result := <-done:
		// Zero raw samples read as 0 dBm, so the sweep detects and the
		// fine pass covers the whole default range.
		assert.True(t, result.SignalDetected)
		assert.Equal(t, uint32(433920000-DefaultFineScanRange), result.FineFrequency)
	case <-time.After(3 * time.Second):
		t.Fatal("scan cycle never completed")
	}
}

func TestScanContinuousClosesResultsOnCancel(t *testing.T) {
	s := New(sx1262.New(&sweepTransport{}), sweepConfig())

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan *ScanResult, 16)
	errs := make(chan error, 1)
	go func() { errs <- s.ScanContinuous(ctx, results) }()

	// Let a few cycles run, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scan loop never exited")
	}

	// The loop owns the channel and closes it on exit.
	for {
		select {
		case _, ok := <-results:
			if !ok {
				assert.False(t, s.IsRunning())
				return
			}
		case <-time.After(time.Second):
			t.Fatal("results channel left open")
		}
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := New(sx1262.New(&sweepTransport{}), sweepConfig())

	assert.False(t, s.IsRunning())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(), ErrScannerRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrScannerNotRunning)
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	s := New(sx1262.New(&sweepTransport{}), sweepConfig())

	bad := sweepConfig()
	bad.CoarseFrequencies = nil
	assert.ErrorIs(t, s.SetConfig(bad), ErrNoFrequencies)

	good := sweepConfig()
	good.RSSIThreshold = -80
	require.NoError(t, s.SetConfig(good))
	assert.Equal(t, float32(-80), s.GetConfig().RSSIThreshold)
}

func TestGetConfigReturnsCopy(t *testing.T) {
	s := New(sx1262.New(&sweepTransport{}), sweepConfig())

	cfg := s.GetConfig()
	cfg.RSSIThreshold = 10
	cfg.FineScanStep = 0

	// Mutating the copy cannot bypass SetConfig validation.
	assert.Equal(t, float32(-93), s.GetConfig().RSSIThreshold)
	assert.Equal(t, uint32(20000), s.GetConfig().FineScanStep)
}

func TestClearSignalHistory(t *testing.T) {
	st := &sweepTransport{}
	st.rssi = []byte{180, 120, 200, 130, 110, 140}
	cfg := sweepConfig()
	cfg.SmoothingEnabled = true
	cfg.SmoothThreshold = DefaultSmoothThreshold
	cfg.SmoothKFast = DefaultKFast
	cfg.SmoothKSlow = DefaultKSlow

	s := New(sx1262.New(st), cfg)
	_, err := s.ScanOnce()
	require.NoError(t, err)
	require.Len(t, s.GetActiveSignals(), 1)

	s.ClearSignalHistory()
	assert.Empty(t, s.GetActiveSignals())
}
