package scanner

import "math"

// FrequencySmoother is an exponential moving average with two
// adaptation rates. Small sweep-to-sweep jitter is averaged away with
// the slow coefficient; a jump past the threshold, which means the
// transmitter actually moved, snaps most of the way with the fast one.
type FrequencySmoother struct {
	value     float64
	threshold float64 // Hz separating jitter from a real move
	kFast     float64
	kSlow     float64
}

// NewFrequencySmoother returns a smoother with the default threshold
// and coefficients.
func NewFrequencySmoother() *FrequencySmoother {
	return NewFrequencySmootherWithParams(DefaultSmoothThreshold, DefaultKFast, DefaultKSlow)
}

// NewFrequencySmootherWithParams returns a smoother with explicit
// threshold and coefficients. Coefficients are 0-1; 1 disables
// smoothing for that branch.
func NewFrequencySmootherWithParams(threshold, kFast, kSlow float64) *FrequencySmoother {
	return &FrequencySmoother{
		threshold: threshold,
		kFast:     kFast,
		kSlow:     kSlow,
	}
}

// Update folds a new measurement in and returns the smoothed value.
// The first measurement after construction or Reset passes through
// unchanged.
func (s *FrequencySmoother) Update(measured float64) float64 {
	if s.value == 0 {
		s.value = measured
		return measured
	}

	k := s.kSlow
	if math.Abs(measured-s.value) > s.threshold {
		k = s.kFast
	}
	s.value += (measured - s.value) * k

	return s.value
}

// Value returns the current smoothed value.
func (s *FrequencySmoother) Value() float64 {
	return s.value
}

// ValueHz returns the current smoothed value rounded to whole hertz.
func (s *FrequencySmoother) ValueHz() uint32 {
	return uint32(math.Round(s.value))
}

// Reset forgets the history; the next Update passes through.
func (s *FrequencySmoother) Reset() {
	s.value = 0
}

// SetThreshold changes the jitter/move boundary.
func (s *FrequencySmoother) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// SetCoefficients changes the adaptation coefficients.
func (s *FrequencySmoother) SetCoefficients(kFast, kSlow float64) {
	s.kFast = kFast
	s.kSlow = kSlow
}
