package settings_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/naomi/eeprom"
	"github.com/bodgit/naomi/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definitionsDir() string {
	return filepath.Join("testdata", "definitions")
}

// copyFixture seeds a temporary definitions directory with one of the
// testdata descriptors.
func copyFixture(t *testing.T, dir, filename string) {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(definitionsDir(), filename))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0o666))
}

func TestManagerDefault(t *testing.T) {
	manager := settings.NewManager(definitionsDir())

	cfg, err := manager.Default("BBG0")
	require.NoError(t, err)

	assert.Equal(t, "BBG0", cfg.Serial)

	assert.Equal(t, settings.RegionSystem, cfg.System.Kind)
	assert.Equal(t, "system.settings", cfg.System.Schema.Filename())
	assert.Equal(t, 9, cfg.System.Schema.Len())

	assert.Equal(t, settings.RegionGame, cfg.Game.Kind)
	assert.Equal(t, "BBG0.settings", cfg.Game.Schema.Filename())
	assert.Equal(t, 7, cfg.Game.Schema.Len())

	for name, want := range map[string]int64{
		"Difficulty":       0x02,
		"Lives":            0x03,
		"Extend Every":     0x01,
		"Vs Rounds":        0x03,
		"Event Mode":       0x00,
		"Event Timer":      0x78,
		"Sound In Attract": 0x01,
	} {
		value, ok := cfg.Game.Lookup(name)
		assert.True(t, ok, "expected a value for %s", name)
		assert.Equal(t, want, value, "wrong default for %s", name)
	}

	value, ok := cfg.System.Lookup("Serial Number")
	assert.True(t, ok)
	assert.Equal(t, int64(0x30474242), value, "the stock system block carries the serial")

	value, ok = cfg.System.Lookup("Cabinet Type")
	assert.True(t, ok)
	assert.Equal(t, int64(0), value)
}

func TestManagerDefaultUnknownSerial(t *testing.T) {
	manager := settings.NewManager(definitionsDir())

	cfg, err := manager.Default("ZZZZ")
	require.NoError(t, err)

	assert.Equal(t, "ZZZZ", cfg.Serial)
	assert.Equal(t, settings.NoFile, cfg.Game.Schema.Filename())
	assert.Equal(t, 0, cfg.Game.Schema.Len())
	assert.Empty(t, cfg.Game.Values)

	_, ok := cfg.System.Lookup("Coin Chute Type")
	assert.True(t, ok, "system settings survive a missing game descriptor")
}

func TestManagerEncodeDecodeRoundTrip(t *testing.T) {
	manager := settings.NewManager(definitionsDir())

	cfg, err := manager.Default("BBG0")
	require.NoError(t, err)

	require.NoError(t, cfg.Set("Cabinet Type", 2))
	require.NoError(t, cfg.Set("Lives", 4))
	require.NoError(t, cfg.Set("Event Mode", 1))
	require.NoError(t, cfg.Set("Event Timer", 0xf0))

	raw, err := manager.Encode(cfg)
	require.NoError(t, err)
	require.Len(t, raw, eeprom.Size)

	// Both game headers agree on the length and the two data copies
	// mirror each other.
	assert.Equal(t, byte(7), raw[38])
	assert.Equal(t, byte(7), raw[39])
	assert.Equal(t, byte(7), raw[42])
	assert.Equal(t, raw[44:51], raw[51:58])

	decoded, err := manager.Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "BBG0", decoded.Serial)
	assert.Equal(t, cfg.System.Values, decoded.System.Values)
	assert.Equal(t, cfg.Game.Values, decoded.Game.Values)

	value, ok := decoded.Game.Lookup("Event Timer")
	assert.True(t, ok)
	assert.Equal(t, int64(0xf0), value, "the timer is writable while event mode is on")
}

func TestManagerEncodeTimerReadOnly(t *testing.T) {
	manager := settings.NewManager(definitionsDir())

	cfg, err := manager.Default("BBG0")
	require.NoError(t, err)

	// With event mode off the timer is read-only, so the edit loses to
	// the conditional default on the way out.
	require.NoError(t, cfg.Set("Event Timer", 0xf0))

	raw, err := manager.Encode(cfg)
	require.NoError(t, err)

	decoded, err := manager.Decode(raw)
	require.NoError(t, err)

	value, ok := decoded.Game.Lookup("Event Timer")
	assert.True(t, ok)
	assert.Equal(t, int64(0x78), value)
}

func TestManagerMissingSystemDescriptor(t *testing.T) {
	manager := settings.NewManager(t.TempDir())

	img, err := eeprom.Default([]byte("BBG0"), nil)
	require.NoError(t, err)

	_, err = manager.Decode(img.Bytes())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManagerSerialLookupIsExact(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "system.settings")

	data, err := os.ReadFile(filepath.Join(definitionsDir(), "BBG0.settings"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bbg0.settings"), data, 0o666))

	cfg, err := settings.NewManager(dir).Default("BBG0")
	require.NoError(t, err)

	assert.Equal(t, settings.NoFile, cfg.Game.Schema.Filename(), "a lowercase descriptor must not match an uppercase serial")
}

func TestManagerDecodeShortImage(t *testing.T) {
	manager := settings.NewManager(definitionsDir())

	_, err := manager.Decode(make([]byte, 16))
	assert.Error(t, err)
}

func TestManagerDescriptorErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.settings"), []byte("Test: byte\n"), 0o666))

	img, err := eeprom.Default([]byte("BBG0"), nil)
	require.NoError(t, err)

	_, err = settings.NewManager(dir).Decode(img.Bytes())
	require.Error(t, err)

	var perr *settings.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "system.settings", perr.Filename)
}
