package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detection(freq uint32, rssi float32) *ScanResult {
	return &ScanResult{
		FineFrequency:  freq,
		FineRSSI:       rssi,
		Timestamp:      time.Now(),
		SignalDetected: true,
	}
}

func noDetection() *ScanResult {
	return &ScanResult{Timestamp: time.Now()}
}

func TestTrackerDetectsNewSignal(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)

	detected := make(chan *SignalInfo, 1)
	tr.SetCallbacks(func(info *SignalInfo) { detected <- info }, nil)

	tr.Update(detection(433920000, -60))

	select {
	case info := <-detected:
		assert.Equal(t, uint32(433920000), info.Frequency)
		assert.Equal(t, float32(-60), info.RSSI)
	case <-time.After(time.Second):
		t.Fatal("detection callback never fired")
	}

	assert.True(t, tr.IsActive())
	assert.Equal(t, 20, tr.HoldCounter())
	assert.Equal(t, 1, tr.GetSignalCount())
}

func TestTrackerGroupsByResolution(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)

	// Three measurements within 10 kHz of each other are the same
	// signal, not three.
	tr.Update(detection(433921000, -60))
	tr.Update(detection(433924000, -58))
	tr.Update(detection(433928000, -62))

	assert.Equal(t, 1, tr.GetSignalCount())

	info := tr.GetActiveSignal()
	require.NotNil(t, info)
	assert.Equal(t, uint32(3), info.DetectionCount)
	assert.Equal(t, uint32(433928000), info.RawFrequency)
	assert.Equal(t, float32(-58), info.MaxRSSI)
}

func TestTrackerHoldsThroughDropouts(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)
	tr.Update(detection(433920000, -60))

	// A few empty sweeps decrement the hold counter but the signal
	// stays active.
	for i := 0; i < 4; i++ {
		tr.Update(noDetection())
	}
	assert.True(t, tr.IsActive())
	assert.Equal(t, 16, tr.HoldCounter())

	// A fresh detection refills the counter.
	tr.Update(detection(433920000, -61))
	assert.Equal(t, 20, tr.HoldCounter())
}

func TestTrackerLostCallbackFiresAtThreshold(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)

	lost := make(chan *SignalInfo, 1)
	tr.SetCallbacks(nil, func(info *SignalInfo) { lost <- info })

	tr.Update(detection(433920000, -60))

	// Five empty sweeps take the counter from 20 to 15, the lost
	// threshold.
	for i := 0; i < 5; i++ {
		tr.Update(noDetection())
	}

	select {
	case info := <-lost:
		assert.Equal(t, uint32(433920000), info.Frequency)
	case <-time.After(time.Second):
		t.Fatal("lost callback never fired")
	}
}

func TestTrackerDeactivatesWhenCounterReachesZero(t *testing.T) {
	tr := NewSignalTracker(3, 2, 10000)
	tr.Update(detection(433920000, -60))

	for i := 0; i < 3; i++ {
		tr.Update(noDetection())
	}

	assert.False(t, tr.IsActive())
	assert.Nil(t, tr.GetActiveSignal())
	// History survives deactivation.
	assert.Equal(t, 1, tr.GetSignalCount())
}

func TestTrackerClear(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)
	tr.Update(detection(433920000, -60))
	tr.Update(detection(915000000, -70))

	tr.Clear()
	assert.Equal(t, 0, tr.GetSignalCount())
	assert.False(t, tr.IsActive())
}

func TestTrackerPruneOld(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)
	tr.Update(detection(433920000, -60))
	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	tr.Update(detection(915000000, -70))

	pruned := tr.PruneOld(cutoff)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 1, tr.GetSignalCount())
}

func TestTrackerReturnsCopies(t *testing.T) {
	tr := NewSignalTracker(20, 15, 10000)
	tr.Update(detection(433920000, -60))

	info := tr.GetActiveSignal()
	require.NotNil(t, info)
	info.RSSI = 0

	again := tr.GetActiveSignal()
	assert.Equal(t, float32(-60), again.RSSI)
}
