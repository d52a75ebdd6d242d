package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmootherFirstValuePassesThrough(t *testing.T) {
	s := NewFrequencySmoother()
	assert.Equal(t, 433920000.0, s.Update(433920000.0))
	assert.Equal(t, 433920000.0, s.Value())
}

func TestSmootherSlowAdaptationForSmallChanges(t *testing.T) {
	s := NewFrequencySmootherWithParams(500000, 0.9, 0.03)
	s.Update(433920000.0)

	// 100 kHz jitter is under the threshold, so only 3% of it moves
	// the smoothed value.
	got := s.Update(434020000.0)
	assert.InDelta(t, 433923000.0, got, 1.0)
}

func TestSmootherFastAdaptationForLargeChanges(t *testing.T) {
	s := NewFrequencySmootherWithParams(500000, 0.9, 0.03)
	s.Update(433920000.0)

	// A hop to another band clears the threshold and snaps 90% of
	// the way there.
	got := s.Update(915000000.0)
	assert.InDelta(t, 433920000.0+0.9*(915000000.0-433920000.0), got, 1.0)
}

func TestSmootherConvergesUnderSlowAdaptation(t *testing.T) {
	s := NewFrequencySmootherWithParams(500000, 0.9, 0.03)
	s.Update(433900000.0)
	for i := 0; i < 500; i++ {
		s.Update(433920000.0)
	}
	assert.InDelta(t, 433920000.0, s.Value(), 100.0)
}

func TestSmootherReset(t *testing.T) {
	s := NewFrequencySmoother()
	s.Update(433920000.0)
	s.Reset()
	assert.Equal(t, 0.0, s.Value())

	// After a reset the next value passes through again.
	assert.Equal(t, 915000000.0, s.Update(915000000.0))
}

func TestSmootherValueHzRounds(t *testing.T) {
	s := NewFrequencySmoother()
	s.Update(433920000.6)
	assert.Equal(t, uint32(433920001), s.ValueHz())
}
