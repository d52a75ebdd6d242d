package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

// ScanConfig defines runtime scanning parameters
type ScanConfig struct {
	// Frequency lists
	CoarseFrequencies []uint32 // Hz - frequencies for coarse scan

	// Scan parameters
	RSSIThreshold float32       // dBm - minimum signal detection threshold
	FineScanRange uint32        // Hz - range around detected signal (± this value)
	FineScanStep  uint32        // Hz - step size for fine scan
	DwellTime     time.Duration // Time to wait for RSSI measurement
	ScanInterval  time.Duration // Delay between scan cycles

	// Signal tracking
	HoldMax             int    // Maximum hold counter value
	LostThreshold       int    // Counter value when signal is considered lost
	FrequencyResolution uint32 // Hz - grouping resolution for signals

	// Smoothing
	SmoothingEnabled bool
	SmoothThreshold  float64
	SmoothKFast      float64
	SmoothKSlow      float64

	// Callbacks (optional, not serialized)
	OnSignalDetected func(info *SignalInfo) `json:"-"`
	OnSignalLost     func(info *SignalInfo) `json:"-"`

	// Debug callback (optional)
	DebugLog func(format string, args ...interface{}) `json:"-"`
}

// DefaultConfig returns a ScanConfig with default values
func DefaultConfig() *ScanConfig {
	return &ScanConfig{
		CoarseFrequencies:   DefaultFrequencies,
		RSSIThreshold:       DefaultRSSIThreshold,
		FineScanRange:       DefaultFineScanRange,
		FineScanStep:        DefaultFineScanStep,
		DwellTime:           DefaultDwellTime,
		ScanInterval:        DefaultScanInterval,
		HoldMax:             DefaultHoldMax,
		LostThreshold:       DefaultLostThreshold,
		FrequencyResolution: DefaultFrequencyResolution,
		SmoothingEnabled:    true,
		SmoothThreshold:     DefaultSmoothThreshold,
		SmoothKFast:         DefaultKFast,
		SmoothKSlow:         DefaultKSlow,
	}
}

// Validate checks the configuration for errors
func (c *ScanConfig) Validate() error {
	if len(c.CoarseFrequencies) == 0 {
		return ErrNoFrequencies
	}

	for _, freq := range c.CoarseFrequencies {
		if !IsValidFrequency(freq) {
			return fmt.Errorf("%w: %d Hz", ErrFrequencyOutOfRange, freq)
		}
	}

	if c.RSSIThreshold > 0 {
		return ErrInvalidThreshold
	}

	if c.DwellTime < time.Millisecond || c.DwellTime > 100*time.Millisecond {
		return ErrInvalidDwellTime
	}

	// A zero step would keep the fine sweep loop on its start frequency
	if c.FineScanStep == 0 {
		return fmt.Errorf("%w: fine scan step", ErrInvalidScanStep)
	}

	return nil
}

// ModemPreset is the receiver configuration for one sweep pass. The
// channel filter bandwidth sets the sweep resolution; bit rate and
// deviation just have to be legal for the modem.
type ModemPreset struct {
	BitRateBps      uint32
	RxBandwidthHz   uint32
	FreqDeviationHz uint32
}

// modParams converts the preset to the chip's modulation parameters.
func (p ModemPreset) modParams() (sx1262.GfskModParams, error) {
	code, err := rxBandwidthCode(p.RxBandwidthHz)
	if err != nil {
		return sx1262.GfskModParams{}, err
	}
	return sx1262.GfskModParams{
		BitRate:       p.BitRateBps,
		PulseShape:    sx1262.ShapeOff,
		Bandwidth:     code,
		FreqDeviation: p.FreqDeviationHz,
	}, nil
}

// rxBandwidthCode maps a nominal channel filter bandwidth to its code.
func rxBandwidthCode(hz uint32) (sx1262.GfskBandwidth, error) {
	codes := []struct {
		hz   uint32
		code sx1262.GfskBandwidth
	}{
		{4800, sx1262.GfskBw4}, {5800, sx1262.GfskBw5}, {7300, sx1262.GfskBw7},
		{9700, sx1262.GfskBw9}, {11700, sx1262.GfskBw11}, {14600, sx1262.GfskBw14},
		{19500, sx1262.GfskBw19}, {23400, sx1262.GfskBw23}, {29300, sx1262.GfskBw29},
		{39000, sx1262.GfskBw39}, {46900, sx1262.GfskBw46}, {58600, sx1262.GfskBw58},
		{78200, sx1262.GfskBw78}, {93800, sx1262.GfskBw93}, {117300, sx1262.GfskBw117},
		{156200, sx1262.GfskBw156}, {187200, sx1262.GfskBw187}, {234300, sx1262.GfskBw234},
		{312000, sx1262.GfskBw312}, {373600, sx1262.GfskBw373}, {467000, sx1262.GfskBw467},
	}
	for _, c := range codes {
		if c.hz == hz {
			return c.code, nil
		}
	}
	return 0, fmt.Errorf("%w: %d Hz is not a channel filter bandwidth", ErrInvalidConfig, hz)
}

// --- JSON Configuration File Types ---

// ConfigFile represents the JSON configuration file structure
type ConfigFile struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	Created     time.Time `json:"created"`

	Frequencies    FrequencyConfigJSON `json:"frequencies"`
	ScanParameters ScanParametersJSON  `json:"scan_parameters"`
	SignalTracking SignalTrackingJSON  `json:"signal_tracking"`
	Smoothing      SmoothingJSON       `json:"smoothing"`
	RadioPresets   RadioPresetsJSON    `json:"radio_presets"`
	Output         OutputConfigJSON    `json:"output"`
}

// FrequencyConfigJSON defines frequency lists and bands in JSON
type FrequencyConfigJSON struct {
	Coarse []uint32         `json:"coarse"`
	Hopper []uint32         `json:"hopper,omitempty"`
	Bands  []BandConfigJSON `json:"bands,omitempty"`
}

// BandConfigJSON defines a frequency band for scanning
type BandConfigJSON struct {
	Name    string `json:"name"`
	StartHz uint32 `json:"start_hz"`
	EndHz   uint32 `json:"end_hz"`
	StepHz  uint32 `json:"step_hz"`
	Enabled bool   `json:"enabled"`
}

// ScanParametersJSON holds scan timing and threshold settings
type ScanParametersJSON struct {
	RSSIThresholdDBm float32 `json:"rssi_threshold_dbm"`
	FineScanRangeHz  uint32  `json:"fine_scan_range_hz"`
	FineScanStepHz   uint32  `json:"fine_scan_step_hz"`
	DwellTimeMs      uint32  `json:"dwell_time_ms"`
	ScanIntervalMs   uint32  `json:"scan_interval_ms"`
}

// SignalTrackingJSON holds signal detection hysteresis settings
type SignalTrackingJSON struct {
	HoldMax               int    `json:"hold_max"`
	LostThreshold         int    `json:"lost_threshold"`
	FrequencyResolutionHz uint32 `json:"frequency_resolution_hz"`
}

// SmoothingJSON holds frequency smoothing algorithm settings
type SmoothingJSON struct {
	Enabled     bool    `json:"enabled"`
	ThresholdHz float64 `json:"threshold_hz"`
	KFast       float64 `json:"k_fast"`
	KSlow       float64 `json:"k_slow"`
}

// RadioPresetsJSON holds receiver settings for the sweep passes
type RadioPresetsJSON struct {
	Coarse ModemPresetJSON `json:"coarse"`
	Fine   ModemPresetJSON `json:"fine"`
}

// ModemPresetJSON allows partial receiver configuration; nil fields
// keep the built-in preset value
type ModemPresetJSON struct {
	BitRateBps      *uint32 `json:"bit_rate_bps,omitempty"`
	RxBandwidthHz   *uint32 `json:"rx_bandwidth_hz,omitempty"`
	FreqDeviationHz *uint32 `json:"freq_deviation_hz,omitempty"`
}

// merge overlays the non-nil JSON fields on a built-in preset.
func (j ModemPresetJSON) merge(base ModemPreset) ModemPreset {
	if j.BitRateBps != nil {
		base.BitRateBps = *j.BitRateBps
	}
	if j.RxBandwidthHz != nil {
		base.RxBandwidthHz = *j.RxBandwidthHz
	}
	if j.FreqDeviationHz != nil {
		base.FreqDeviationHz = *j.FreqDeviationHz
	}
	return base
}

// OutputConfigJSON defines signal logging options
type OutputConfigJSON struct {
	LogSignals bool   `json:"log_signals"`
	LogPath    string `json:"log_path,omitempty"`
	LogFormat  string `json:"log_format,omitempty"` // csv, json, text
}

// LoadConfigFile loads scanner configuration from a JSON file
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ConfigFile
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration file for errors
func (c *ConfigFile) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("%w: %s", ErrConfigVersion, c.Version)
	}

	if len(c.Frequencies.Coarse) == 0 && len(c.Frequencies.Bands) == 0 {
		return ErrNoFrequencies
	}

	for _, freq := range c.Frequencies.Coarse {
		if !IsValidFrequency(freq) {
			return fmt.Errorf("%w: %d Hz", ErrFrequencyOutOfRange, freq)
		}
	}

	if c.ScanParameters.RSSIThresholdDBm > 0 {
		return ErrInvalidThreshold
	}

	if c.ScanParameters.DwellTimeMs < 1 || c.ScanParameters.DwellTimeMs > 100 {
		return ErrInvalidDwellTime
	}

	for _, band := range c.Frequencies.Bands {
		if band.Enabled && band.StepHz == 0 {
			return fmt.Errorf("%w: band %q", ErrInvalidScanStep, band.Name)
		}
	}

	return nil
}

// ToScanConfig converts JSON config to runtime ScanConfig
func (c *ConfigFile) ToScanConfig() *ScanConfig {
	frequencies := c.Frequencies.Coarse
	if len(frequencies) == 0 {
		frequencies = c.expandBands()
	}

	fineRange := c.ScanParameters.FineScanRangeHz
	if fineRange == 0 {
		fineRange = DefaultFineScanRange
	}

	fineStep := c.ScanParameters.FineScanStepHz
	if fineStep == 0 {
		fineStep = DefaultFineScanStep
	}

	dwellTime := time.Duration(c.ScanParameters.DwellTimeMs) * time.Millisecond
	if dwellTime == 0 {
		dwellTime = DefaultDwellTime
	}

	scanInterval := time.Duration(c.ScanParameters.ScanIntervalMs) * time.Millisecond
	if scanInterval == 0 {
		scanInterval = DefaultScanInterval
	}

	holdMax := c.SignalTracking.HoldMax
	if holdMax == 0 {
		holdMax = DefaultHoldMax
	}

	lostThreshold := c.SignalTracking.LostThreshold
	if lostThreshold == 0 {
		lostThreshold = DefaultLostThreshold
	}

	freqResolution := c.SignalTracking.FrequencyResolutionHz
	if freqResolution == 0 {
		freqResolution = DefaultFrequencyResolution
	}

	smoothThreshold := c.Smoothing.ThresholdHz
	if smoothThreshold == 0 {
		smoothThreshold = DefaultSmoothThreshold
	}

	kFast := c.Smoothing.KFast
	if kFast == 0 {
		kFast = DefaultKFast
	}

	kSlow := c.Smoothing.KSlow
	if kSlow == 0 {
		kSlow = DefaultKSlow
	}

	return &ScanConfig{
		CoarseFrequencies:   frequencies,
		RSSIThreshold:       c.ScanParameters.RSSIThresholdDBm,
		FineScanRange:       fineRange,
		FineScanStep:        fineStep,
		DwellTime:           dwellTime,
		ScanInterval:        scanInterval,
		HoldMax:             holdMax,
		LostThreshold:       lostThreshold,
		FrequencyResolution: freqResolution,
		SmoothingEnabled:    c.Smoothing.Enabled,
		SmoothThreshold:     smoothThreshold,
		SmoothKFast:         kFast,
		SmoothKSlow:         kSlow,
	}
}

// expandBands generates frequency list from band definitions
func (c *ConfigFile) expandBands() []uint32 {
	var freqs []uint32
	for _, band := range c.Frequencies.Bands {
		if !band.Enabled || band.StepHz == 0 {
			continue
		}
		for freq := band.StartHz; freq <= band.EndHz; freq += band.StepHz {
			if IsValidFrequency(freq) {
				freqs = append(freqs, freq)
			}
		}
	}
	return freqs
}

// GetCoarsePreset returns the coarse sweep preset with config overrides
func (c *ConfigFile) GetCoarsePreset() ModemPreset {
	return c.RadioPresets.Coarse.merge(CoarsePreset)
}

// GetFinePreset returns the fine sweep preset with config overrides
func (c *ConfigFile) GetFinePreset() ModemPreset {
	return c.RadioPresets.Fine.merge(FinePreset)
}

// SaveConfigFile saves scanner configuration to a JSON file
func SaveConfigFile(config *ConfigFile, path string) error {
	config.Created = time.Now()

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
