package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// Scanner provides frequency scanning capabilities
type Scanner interface {
	// Lifecycle
	Start() error
	Stop() error
	IsRunning() bool

	// Configuration
	SetConfig(config *ScanConfig) error
	GetConfig() *ScanConfig

	// Scanning. ScanContinuous takes ownership of the results channel
	// and closes it when the scan loop exits.
	ScanOnce() (*ScanResult, error)
	ScanContinuous(ctx context.Context, results chan<- *ScanResult) error

	// Signal tracking
	GetActiveSignals() []*SignalInfo
	ClearSignalHistory()
}

// scanner implements the Scanner interface
type scanner struct {
	device *sx1262.Device
	config *ScanConfig

	// State
	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}

	// Signal tracking
	tracker *SignalTracker

	// Smoothing
	smoother *FrequencySmoother

	// Receiver presets for the two sweep passes
	coarsePreset ModemPreset
	finePreset   ModemPreset

	// Preset currently loaded into the chip, to skip redundant reloads
	loadedPreset *ModemPreset
}

// New creates a new Scanner with the given device and configuration
func New(device *sx1262.Device, config *ScanConfig) Scanner {
	if config == nil {
		config = DefaultConfig()
	}

	s := &scanner{
		device:       device,
		config:       config,
		stopChan:     make(chan struct{}),
		coarsePreset: CoarsePreset,
		finePreset:   FinePreset,
		tracker: NewSignalTracker(
			config.HoldMax,
			config.LostThreshold,
			config.FrequencyResolution,
		),
	}

	if config.SmoothingEnabled {
		s.smoother = NewFrequencySmootherWithParams(
			config.SmoothThreshold,
			config.SmoothKFast,
			config.SmoothKSlow,
		)
	}

	s.tracker.SetCallbacks(config.OnSignalDetected, config.OnSignalLost)

	return s
}

// NewFromConfigFile creates a Scanner from a JSON configuration file
func NewFromConfigFile(device *sx1262.Device, configPath string) (Scanner, error) {
	configFile, err := LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := New(device, configFile.ToScanConfig()).(*scanner)
	s.coarsePreset = configFile.GetCoarsePreset()
	s.finePreset = configFile.GetFinePreset()

	return s, nil
}

// debug logs a debug message if the debug callback is set
func (s *scanner) debug(format string, args ...interface{}) {
	if s.config.DebugLog != nil {
		s.config.DebugLog(format, args...)
	}
}

// Start begins continuous scanning in the background
func (s *scanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrScannerRunning
	}

	s.running = true
	s.stopChan = make(chan struct{})
	return nil
}

// Stop stops the scanner
func (s *scanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrScannerNotRunning
	}

	close(s.stopChan)
	s.running = false
	return nil
}

// IsRunning returns true if the scanner is running
func (s *scanner) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SetConfig updates the scanner configuration
func (s *scanner) SetConfig(config *ScanConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = config

	s.tracker = NewSignalTracker(
		config.HoldMax,
		config.LostThreshold,
		config.FrequencyResolution,
	)
	s.tracker.SetCallbacks(config.OnSignalDetected, config.OnSignalLost)

	if config.SmoothingEnabled {
		s.smoother = NewFrequencySmootherWithParams(
			config.SmoothThreshold,
			config.SmoothKFast,
			config.SmoothKSlow,
		)
	} else {
		s.smoother = nil
	}

	return nil
}

// GetConfig returns a copy of the current configuration. Changes to
// the copy take effect only through SetConfig.
func (s *scanner) GetConfig() *ScanConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	config := *s.config
	return &config
}

// ScanOnce performs a single scan cycle (coarse + fine if signal detected)
func (s *scanner) ScanOnce() (*ScanResult, error) {
	s.mu.RLock()
	config := s.config
	s.mu.RUnlock()

	s.debug("ScanOnce: starting scan cycle")

	result, err := s.coarseScan(config)
	if err != nil {
		s.debug("ScanOnce: coarse scan failed: %v", err)
		return nil, fmt.Errorf("coarse scan failed: %w", err)
	}

	if result.SignalDetected {
		s.debug("ScanOnce: signal detected at %.3f MHz, starting fine scan",
			float64(result.CoarseFrequency)/1e6)
		result, err = s.fineScan(config, result)
		if err != nil {
			s.debug("ScanOnce: fine scan failed: %v", err)
			return nil, fmt.Errorf("fine scan failed: %w", err)
		}

		if s.smoother != nil && result.FineFrequency > 0 {
			smoothed := s.smoother.Update(float64(result.FineFrequency))
			s.debug("ScanOnce: smoothed frequency %.3f -> %.3f MHz",
				float64(result.FineFrequency)/1e6, smoothed/1e6)
			result.FineFrequency = uint32(smoothed)
		}
	}

	s.tracker.Update(result)

	s.debug("ScanOnce: complete - detected=%v, freq=%.3f MHz, rssi=%.1f dBm",
		result.SignalDetected, float64(result.CoarseFrequency)/1e6, result.CoarseRSSI)

	return result, nil
}

// ScanContinuous performs continuous scanning until the context is
// cancelled or Stop is called. The scanner takes ownership of results
// and closes it on return; the channel must not be reused for a
// later run.
func (s *scanner) ScanContinuous(ctx context.Context, results chan<- *ScanResult) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(results)
			return ctx.Err()
		case <-s.stopChan:
			close(results)
			return nil
		case <-ticker.C:
			result, err := s.ScanOnce()
			if err != nil {
				// A failed cycle leaves the believed mode Unknown;
				// the next loadPreset re-synchronizes through standby
				s.loadedPreset = nil
				continue
			}

			// Non-blocking send
			select {
			case results <- result:
			default:
				// Channel full, skip this result
			}
		}
	}
}

// GetActiveSignals returns all tracked signals
func (s *scanner) GetActiveSignals() []*SignalInfo {
	return s.tracker.GetAllSignals()
}

// ClearSignalHistory clears all tracked signals
func (s *scanner) ClearSignalHistory() {
	s.tracker.Clear()
	if s.smoother != nil {
		s.smoother.Reset()
	}
}

// coarseScan performs a wide-bandwidth sweep across configured frequencies
func (s *scanner) coarseScan(config *ScanConfig) (*ScanResult, error) {
	result := &ScanResult{
		Timestamp:  time.Now(),
		CoarseRSSI: -200.0, // Very low initial value
	}

	s.debug("coarseScan: starting scan of %d frequencies, threshold=%.1f dBm",
		len(config.CoarseFrequencies), config.RSSIThreshold)

	if err := s.loadPreset(s.coarsePreset); err != nil {
		s.debug("coarseScan: failed to load preset: %v", err)
		return nil, fmt.Errorf("failed to load coarse preset: %w", err)
	}

	var scanErrors int
	for i, freq := range config.CoarseFrequencies {
		rssi, err := s.measureRSSI(freq, config.DwellTime)
		if err != nil {
			scanErrors++
			s.debug("coarseScan: [%d] %.3f MHz - ERROR: %v", i, float64(freq)/1e6, err)
			continue
		}

		s.debug("coarseScan: [%d] %.3f MHz = %.1f dBm", i, float64(freq)/1e6, rssi)

		if rssi > result.CoarseRSSI {
			result.CoarseRSSI = rssi
			result.CoarseFrequency = freq
		}
	}

	result.SignalDetected = result.CoarseRSSI >= config.RSSIThreshold

	s.debug("coarseScan: complete - best=%.3f MHz @ %.1f dBm, detected=%v, errors=%d",
		float64(result.CoarseFrequency)/1e6, result.CoarseRSSI, result.SignalDetected, scanErrors)

	return result, nil
}

// fineScan performs a narrow-bandwidth sweep around the detected frequency
func (s *scanner) fineScan(config *ScanConfig, coarseResult *ScanResult) (*ScanResult, error) {
	if !coarseResult.SignalDetected {
		return coarseResult, nil
	}

	if err := s.loadPreset(s.finePreset); err != nil {
		return nil, fmt.Errorf("failed to load fine preset: %w", err)
	}

	center := coarseResult.CoarseFrequency
	startFreq := center - config.FineScanRange
	endFreq := center + config.FineScanRange

	// Validated configs never carry a zero step, but a sweep that
	// cannot advance must not hang the cycle
	step := config.FineScanStep
	if step == 0 {
		step = DefaultFineScanStep
	}

	var maxRSSI float32 = -200.0
	var maxFreq uint32 = 0

	for freq := startFreq; freq <= endFreq; freq += step {
		if !IsValidFrequency(freq) {
			continue
		}

		rssi, err := s.measureRSSI(freq, config.DwellTime)
		if err != nil {
			continue
		}

		if rssi > maxRSSI {
			maxRSSI = rssi
			maxFreq = freq
		}
	}

	coarseResult.FineFrequency = maxFreq
	coarseResult.FineRSSI = maxRSSI

	return coarseResult, nil
}

// loadPreset configures the receiver for a sweep pass. Image
// calibration is left alone: a sweep compares RSSI samples against
// each other, not against an absolute sensitivity floor.
func (s *scanner) loadPreset(preset ModemPreset) error {
	if s.loadedPreset != nil && *s.loadedPreset == preset {
		return nil
	}

	mod, err := preset.modParams()
	if err != nil {
		return err
	}

	if err := s.device.SetStandby(sx1262.ModeStandbyRC); err != nil {
		return fmt.Errorf("failed to enter standby: %w", err)
	}
	if err := s.device.SetPacketType(sx1262.PacketTypeGfsk); err != nil {
		return fmt.Errorf("failed to set packet type: %w", err)
	}
	if err := s.device.SetModulationParams(mod); err != nil {
		return fmt.Errorf("failed to set modulation params: %w", err)
	}

	s.debug("loadPreset: bw=%d Hz, bitrate=%d b/s", preset.RxBandwidthHz, preset.BitRateBps)

	p := preset
	s.loadedPreset = &p
	return nil
}

// measureRSSI samples the RSSI at a specific frequency
func (s *scanner) measureRSSI(freqHz uint32, dwellTime time.Duration) (float32, error) {
	// 1. Park in standby so the frequency command is legal
	if err := s.device.SetStandby(sx1262.ModeStandbyRC); err != nil {
		return 0, fmt.Errorf("failed to enter standby: %w", err)
	}

	// 2. Tune
	if err := s.device.SetRfFrequency(freqHz); err != nil {
		return 0, fmt.Errorf("failed to set frequency: %w", err)
	}

	// 3. Open the receiver
	if err := s.device.SetRx(sx1262.RxContinuous); err != nil {
		return 0, fmt.Errorf("failed to enter RX: %w", err)
	}

	// 4. Let the AGC settle
	time.Sleep(dwellTime)

	// 5. Sample
	rssi, err := s.device.GetRssiInst()
	if err != nil {
		return 0, fmt.Errorf("failed to read RSSI: %w", err)
	}

	s.debug("measureRSSI: %.3f MHz = %.1f dBm", float64(freqHz)/1e6, rssi)

	return float32(rssi), nil
}

// GetTracker returns the signal tracker (for advanced usage)
func (s *scanner) GetTracker() *SignalTracker {
	return s.tracker
}

// GetSmoother returns the frequency smoother (for advanced usage)
func (s *scanner) GetSmoother() *FrequencySmoother {
	return s.smoother
}
