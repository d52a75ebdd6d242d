package scanner

import (
	"sync"
	"time"
)

// SignalTracker turns raw sweep results into stable signal detections.
// A hold counter provides hysteresis: every detection refills it, every
// empty sweep drains it, and the lost callback fires only when it
// drains to the lost threshold, so a transmitter that keys on and off
// is reported once, not on every sweep.
type SignalTracker struct {
	mu sync.RWMutex

	// Signals keyed by frequency rounded to the resolution, so
	// measurement jitter maps to the same entry
	signals    map[uint32]*SignalInfo
	resolution uint32

	holdCounter int
	holdMax     int
	lostAt      int // counter value at which the lost callback fires

	activeFrequency uint32
	activeSignal    *SignalInfo

	onDetected func(*SignalInfo)
	onLost     func(*SignalInfo)
}

// NewSignalTracker returns a tracker. holdMax is the counter refill
// value, lostAt the drain level that fires the lost callback, and
// resolution the grouping granularity in Hz.
func NewSignalTracker(holdMax, lostAt int, resolution uint32) *SignalTracker {
	return &SignalTracker{
		signals:    make(map[uint32]*SignalInfo),
		holdMax:    holdMax,
		lostAt:     lostAt,
		resolution: resolution,
	}
}

// SetCallbacks installs the detection callbacks. Either may be nil.
// Callbacks run on their own goroutine with a copy of the signal, so
// they may call back into the tracker.
func (t *SignalTracker) SetCallbacks(onDetected, onLost func(*SignalInfo)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDetected = onDetected
	t.onLost = onLost
}

// Update folds one sweep result into the tracking state.
func (t *SignalTracker) Update(result *ScanResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if result.SignalDetected {
		t.noteDetection(result)
	} else {
		t.noteMiss()
	}
}

func (t *SignalTracker) noteDetection(result *ScanResult) {
	t.holdCounter = t.holdMax
	key := t.roundFrequency(result.FineFrequency)

	info, known := t.signals[key]
	if !known {
		info = &SignalInfo{
			Frequency:      result.FineFrequency,
			RawFrequency:   result.FineFrequency,
			RSSI:           result.FineRSSI,
			MaxRSSI:        result.FineRSSI,
			FirstSeen:      result.Timestamp,
			LastSeen:       result.Timestamp,
			DetectionCount: 1,
		}
		t.signals[key] = info

		if t.activeSignal == nil || key != t.activeFrequency {
			if t.onDetected != nil {
				copied := *info
				go t.onDetected(&copied)
			}
		}
	} else {
		info.RawFrequency = result.FineFrequency
		info.RSSI = result.FineRSSI
		info.LastSeen = result.Timestamp
		info.DetectionCount++
		if result.FineRSSI > info.MaxRSSI {
			info.MaxRSSI = result.FineRSSI
		}
	}

	t.activeSignal = info
	t.activeFrequency = key
}

func (t *SignalTracker) noteMiss() {
	if t.holdCounter <= 0 {
		return
	}
	t.holdCounter--

	if t.holdCounter == t.lostAt && t.activeSignal != nil && t.onLost != nil {
		copied := *t.activeSignal
		go t.onLost(&copied)
	}

	if t.holdCounter == 0 {
		t.activeSignal = nil
		t.activeFrequency = 0
	}
}

func (t *SignalTracker) roundFrequency(freq uint32) uint32 {
	if t.resolution == 0 {
		return freq
	}
	return (freq / t.resolution) * t.resolution
}

// GetActiveSignal returns a copy of the signal currently holding the
// tracker, or nil.
func (t *SignalTracker) GetActiveSignal() *SignalInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.activeSignal == nil {
		return nil
	}
	info := *t.activeSignal
	return &info
}

// GetAllSignals returns copies of every signal seen since the last
// Clear, active or not.
func (t *SignalTracker) GetAllSignals() []*SignalInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	signals := make([]*SignalInfo, 0, len(t.signals))
	for _, info := range t.signals {
		copied := *info
		signals = append(signals, &copied)
	}
	return signals
}

// GetSignalCount returns the number of tracked signals.
func (t *SignalTracker) GetSignalCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.signals)
}

// Clear drops all history and deactivates the tracker.
func (t *SignalTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.signals = make(map[uint32]*SignalInfo)
	t.activeSignal = nil
	t.activeFrequency = 0
	t.holdCounter = 0
}

// PruneOld drops signals last seen before the given time and returns
// how many were dropped.
func (t *SignalTracker) PruneOld(since time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for key, info := range t.signals {
		if info.LastSeen.Before(since) {
			delete(t.signals, key)
			count++
		}
	}
	return count
}

// IsActive reports whether a signal currently holds the tracker.
func (t *SignalTracker) IsActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeSignal != nil && t.holdCounter > 0
}

// HoldCounter returns the current hold counter value.
func (t *SignalTracker) HoldCounter() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.holdCounter
}
