package profiles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BroderickCarlin/gosx1262/pkg/sx1262"
)

func TestLoRaBandwidthLookup(t *testing.T) {
	bw, err := loRaBandwidthFromHz(125000)
	require.NoError(t, err)
	require.Equal(t, sx1262.LoRaBw125, bw)

	bw, err = loRaBandwidthFromHz(7810)
	require.NoError(t, err)
	require.Equal(t, sx1262.LoRaBw7, bw)

	_, err = loRaBandwidthFromHz(100000)
	var re *sx1262.RangeError
	require.ErrorAs(t, err, &re)
}

func TestGfskBandwidthLookup(t *testing.T) {
	bw, err := gfskBandwidthFromHz(117300)
	require.NoError(t, err)
	require.Equal(t, sx1262.GfskBw117, bw)

	_, err = gfskBandwidthFromHz(118000)
	var re *sx1262.RangeError
	require.ErrorAs(t, err, &re)
}

func TestAutoGfskBandwidth(t *testing.T) {
	require.Equal(t, uint32(4800), autoGfskBandwidthHz(4800))
	require.Equal(t, uint32(117300), autoGfskBandwidthHz(100000))
	require.Equal(t, uint32(312000), autoGfskBandwidthHz(300000))
	// Nothing covers 600 kHz; the widest filter is the fallback.
	require.Equal(t, uint32(467000), autoGfskBandwidthHz(600000))
}

func TestCodingRateFromDenom(t *testing.T) {
	cr, err := codingRateFromDenom(5)
	require.NoError(t, err)
	require.Equal(t, sx1262.CR45, cr)

	cr, err = codingRateFromDenom(8)
	require.NoError(t, err)
	require.Equal(t, sx1262.CR48, cr)

	var re *sx1262.RangeError
	_, err = codingRateFromDenom(4)
	require.ErrorAs(t, err, &re)
	_, err = codingRateFromDenom(9)
	require.ErrorAs(t, err, &re)
}

func TestPreambleDetectorFromBits(t *testing.T) {
	det, err := preambleDetectorFromBits(0)
	require.NoError(t, err)
	require.Equal(t, sx1262.PreambleDetectorOff, det)

	det, err = preambleDetectorFromBits(16)
	require.NoError(t, err)
	require.Equal(t, sx1262.PreambleDetector16Bits, det)

	_, err = preambleDetectorFromBits(12)
	var re *sx1262.RangeError
	require.ErrorAs(t, err, &re)
}

func TestLdroRequired(t *testing.T) {
	cases := []struct {
		sf   sx1262.SpreadingFactor
		bw   sx1262.LoRaBandwidth
		want bool
	}{
		{sx1262.SF12, sx1262.LoRaBw125, true},
		{sx1262.SF12, sx1262.LoRaBw250, true},
		{sx1262.SF11, sx1262.LoRaBw125, true},
		{sx1262.SF12, sx1262.LoRaBw500, false},
		{sx1262.SF10, sx1262.LoRaBw125, false},
		// 16.384 ms symbols sit right on the threshold.
		{sx1262.SF10, sx1262.LoRaBw62, true},
		{sx1262.SF7, sx1262.LoRaBw125, false},
	}
	for _, c := range cases {
		require.Equal(t, c.want, ldroRequired(c.sf, c.bw), "SF%d bw %d Hz", c.sf, c.bw.Hz())
	}
}

func TestFormatBitRate(t *testing.T) {
	require.Equal(t, "50k", formatBitRate(50000))
	require.Equal(t, "38.4k", formatBitRate(38400))
	require.Equal(t, "2.4k", formatBitRate(2400))
	require.Equal(t, "300k", formatBitRate(300000))
}

func TestPaPreset(t *testing.T) {
	require.Equal(t, sx1262.PaSX1262Power22, paPreset(sx1262.PartSX1262, 22))
	require.Equal(t, sx1262.PaSX1262Power22, paPreset(sx1262.PartSX1262, 21))
	require.Equal(t, sx1262.PaSX1262Power20, paPreset(sx1262.PartSX1262, 18))
	require.Equal(t, sx1262.PaSX1262Power17, paPreset(sx1262.PartSX1262, 15))
	require.Equal(t, sx1262.PaSX1262Power14, paPreset(sx1262.PartSX1262, 14))
	require.Equal(t, sx1262.PaSX1262Power14, paPreset(sx1262.PartSX1262, -9))

	require.Equal(t, sx1262.PaSX1261Power15, paPreset(sx1262.PartSX1261, 15))
	require.Equal(t, sx1262.PaSX1261Power14, paPreset(sx1262.PartSX1261, 11))
	require.Equal(t, sx1262.PaSX1261Power10, paPreset(sx1262.PartSX1261, 10))
}

func TestHexBytesJSON(t *testing.T) {
	p := New915Gfsk(50000)

	path := filepath.Join(t.TempDir(), "hex.json")
	require.NoError(t, p.SaveToFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"sync_word": "d391"`)
}

func TestProfileJSONRoundTrip(t *testing.T) {
	profiles := []*Profile{
		New915LoRaLongRange(),
		New915Gfsk(100000),
		New915GfskAddressed(0x13, 0xFF),
		NewSpectrumMonitor(868300000),
	}

	dir := t.TempDir()
	for _, p := range profiles {
		path := filepath.Join(dir, p.Name+".json")
		require.NoError(t, p.SaveToFile(path))

		config, err := LoadProfileFromFile(path)
		require.NoError(t, err)
		require.Equal(t, *p, config.Profile)
		require.False(t, config.Timestamp.IsZero())
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfileFromFile(filepath.Join(t.TempDir(), "gone.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read profile file")
}

func TestGenerateProfiles(t *testing.T) {
	generators := map[string]struct {
		generate func(string) error
		sample   string
	}{
		"915":      {Generate915Profiles, "915-lora-std-sf7.json"},
		"868":      {Generate868Profiles, "868-gfsk-38.4k.json"},
		"433":      {Generate433Profiles, "433-lora-narrow-sf9-bw62.json"},
		"315":      {Generate315Profiles, "315-gfsk-remote-2.4k.json"},
		"special":  {GenerateSpecialProfiles, "915-longrange.json"},
		"encoding": {GenerateEncodingProfiles, "enc-crc-2byte.json"},
		"packet":   {GeneratePacketProfiles, "pkt-lora-inverted-iq.json"},
	}

	for name, g := range generators {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), name)
			require.NoError(t, g.generate(dir))

			config, err := LoadProfileFromFile(filepath.Join(dir, g.sample))
			require.NoError(t, err)
			require.NoError(t, config.Profile.Validate())
			require.Equal(t, strings.TrimSuffix(g.sample, ".json"), config.Profile.Name)
		})
	}
}
