package settings_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/naomi/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T, filename string) *settings.Schema {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "definitions", filename))
	require.NoError(t, err)

	schema, err := settings.Parse(filename, data)
	require.NoError(t, err)

	return schema
}

func TestParseSystemDescriptor(t *testing.T) {
	schema := parseFixture(t, "system.settings")

	require.Equal(t, 9, schema.Len())
	fields := schema.Settings()

	assert.Equal(t, "Unknown", fields[0].Name)
	assert.Equal(t, settings.SizeByte, fields[0].Size)
	assert.Equal(t, 1, fields[0].Length)
	assert.Equal(t, settings.ReadOnlyAlways, fields[0].ReadOnly.Kind)
	assert.Equal(t, settings.DefaultLiteral, fields[0].Default.Kind)
	assert.Equal(t, int64(0x10), fields[0].Default.Value)

	assert.Equal(t, "Serial Number", fields[1].Name)
	assert.Equal(t, 4, fields[1].Length)
	assert.Equal(t, settings.ReadOnlyAlways, fields[1].ReadOnly.Kind)
	assert.Equal(t, settings.DefaultNone, fields[1].Default.Kind, "read-only settings may omit both values and defaults")
	assert.Empty(t, fields[1].Values)

	assert.Equal(t, int64(0x1009), fields[2].Default.Value, "multi byte defaults decode little-endian")

	assert.Equal(t, "Cabinet Type", fields[3].Name)
	assert.Equal(t, settings.ReadOnlyNever, fields[3].ReadOnly.Kind)
	assert.Equal(t, map[int64]string{
		0: "1 Player(s)",
		1: "2 Player(s)",
		2: "3 Player(s)",
		3: "4 Player(s)",
	}, fields[3].Values)

	assert.Len(t, fields[5].Values, 28, "1 to 1C spans 28 values")
	assert.Equal(t, "28", fields[5].Values[0x1c], "range labels are decimal")

	assert.Equal(t, int64(0x11111111), fields[8].Default.Value)
}

func TestParseGameDescriptor(t *testing.T) {
	schema := parseFixture(t, "BBG0.settings")

	require.Equal(t, 7, schema.Len())
	fields := schema.Settings()

	assert.Equal(t, settings.SizeNibble, fields[0].Size)
	assert.Equal(t, settings.SizeNibble, fields[1].Size)
	assert.Equal(t, int64(0x02), fields[0].Default.Value)
	assert.Equal(t, int64(0x03), fields[1].Default.Value)

	// "Extend Every" is written across continuation lines.
	assert.Equal(t, "Extend Every", fields[2].Name)
	assert.Equal(t, settings.SizeByte, fields[2].Size)
	assert.Equal(t, map[int64]string{
		0: "Off",
		1: "Every 2 Levels",
		2: "Every 5 Levels",
	}, fields[2].Values)
	assert.Equal(t, int64(0x01), fields[2].Default.Value)

	require.Equal(t, settings.DefaultConditional, fields[3].Default.Kind)
	require.Len(t, fields[3].Default.Rules, 2)
	assert.Equal(t, "Event Mode", fields[3].Default.Rules[0].Condition.Name)
	assert.True(t, fields[3].Default.Rules[0].Condition.Negate, "an unless rule negates")
	assert.Equal(t, int64(0x03), fields[3].Default.Rules[0].Value)
	assert.False(t, fields[3].Default.Rules[1].Condition.Negate, "an if rule does not")
	assert.Equal(t, int64(0x01), fields[3].Default.Rules[1].Value)

	assert.Equal(t, "Event Timer", fields[5].Name)
	assert.Equal(t, 2, fields[5].Length)
	require.Equal(t, settings.ReadOnlyWhen, fields[5].ReadOnly.Kind)
	assert.Equal(t, "Event Mode", fields[5].ReadOnly.Condition.Name)
	assert.Equal(t, []int64{1}, fields[5].ReadOnly.Condition.Values)
	assert.False(t, fields[5].ReadOnly.Condition.Negate, "read-only unless stores negate false")
	assert.Equal(t, int64(0x0078), fields[5].Default.Value)

	assert.Equal(t, "Sound In Attract", fields[6].Name)
	assert.Equal(t, settings.SizeByte, fields[6].Size)
}

func TestParseDuplicateNames(t *testing.T) {
	schema := parseFixture(t, "system.settings")

	unknowns := 0
	for _, field := range schema.Settings() {
		if field.Name == "Unknown" {
			unknowns++
		}
	}
	assert.Equal(t, 3, unknowns, "placeholder names repeat and all survive")
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	schema, err := settings.Parse("test.settings", []byte("# a comment\n\nTest: byte, 0 to 1\n   \n# another\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, schema.Len())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		message    string
	}{
		{
			name:       "missing colon",
			descriptor: "byte, 0 - Off",
			message:    "test.settings: Missing setting name before size, read-only specifier, defaults or value in \"byte, 0 - Off\". Perhaps you forgot a colon?",
		},
		{
			name:       "missing size",
			descriptor: "Test: 0 to 1",
			message:    "test.settings: Setting \"Test\" is missing a size specifier!",
		},
		{
			name:       "missing values",
			descriptor: "Test: byte",
			message:    "test.settings: Setting \"Test\" is missing any valid values!",
		},
		{
			name:       "byte after lone nibble",
			descriptor: "A: nibble, 0 to 1\nB: byte, 0 to 1",
			message:    "test.settings: The setting \"B\" follows a lonesome nibble. Nibble settings must always be in pairs!",
		},
		{
			name:       "length on a nibble",
			descriptor: "Test: 1 nibble, 0 to 1",
			message:    "test.settings: Invalid length \"1\" for setting \"Test\". You should only specify a length for bytes.",
		},
		{
			name:       "unparseable length",
			descriptor: "Test: two bytes, 0 to 1",
			message:    "test.settings: Failed to parse setting \"Test\", could not understand length \"two\".",
		},
		{
			name:       "dash inside a range",
			descriptor: "Test: byte, 20 to E0 - Label",
			message:    "test.settings: Setting \"Test\" cannot have a range for valid values that includes a dash! \"20 to E0 - Label\" should be specified like \"20 to E0\".",
		},
		{
			name:       "unparseable value",
			descriptor: "Test: byte, XY",
			message:    "test.settings: Failed to parse setting \"Test\", could not understand value \"XY\".",
		},
		{
			name:       "malformed read-only clause",
			descriptor: "Test: byte, 0 to 1, always read-only",
			message:    "test.settings: Cannot parse read-only condition \"always read-only\" for setting \"Test\"!",
		},
		{
			name:       "read-only condition without is",
			descriptor: "Test: byte, 0 to 1, read-only if Other",
			message:    "test.settings: Failed to parse setting \"Test\", could not understand if condition \"Other\".",
		},
		{
			name:       "default without is",
			descriptor: "Test: byte, 0 to 1, default 5",
			message:    "test.settings: Cannot parse default for setting \"Test\"! Specify defaults like \"default is 0\".",
		},
		{
			name:       "default with wrong keyword",
			descriptor: "Test: byte, 0 to 1, defaults is 05",
			message:    "test.settings: Cannot parse default \"defaults is 05\" for setting \"Test\"!",
		},
		{
			name:       "unparseable default",
			descriptor: "Test: byte, 0 to 1, default is XY",
			message:    "test.settings: Failed to parse setting \"Test\", could not understand default \"XY\".",
		},
		{
			name:       "two unconditional defaults",
			descriptor: "Test: byte, 0 to 1, default is 00, default is 01",
			message:    "test.settings: Cannot specify more than one default for setting \"Test\"!",
		},
		{
			name:       "unconditional default mixed with conditional",
			descriptor: "Test: byte, 0 to 1, default is 00, default is 01 if Test is 1",
			message:    "test.settings: Cannot specify an unconditional default alongside conditional defaults for setting \"Test\"!",
		},
		{
			name:       "default wider than the setting",
			descriptor: "Test: byte, 0 to 1, default is 0100",
			message:    "test.settings: The default for setting \"Test\" does not match its declared size!",
		},
		{
			name:       "default narrower than the setting",
			descriptor: "Test: 2 bytes, 0 to 1, default is 05",
			message:    "test.settings: The default for setting \"Test\" does not match its declared size!",
		},
		{
			name:       "default for an unsupported length",
			descriptor: "Test: 3 bytes, 0 to 1, default is 050505",
			message:    "test.settings: Cannot convert default \"default is 050505\" for setting \"Test\" because we don't know how to handle length \"3\"!",
		},
		{
			name:       "condition referencing a missing setting",
			descriptor: "Test: byte, 0 to 1, default is 00 if Missing is 1",
			message:    "test.settings: The setting \"Test\" depends on the value for \"Missing\" but that setting does not seem to exist! Perhaps you misspelled \"Missing\"?",
		},
		{
			name:       "read-only gate referencing a missing setting",
			descriptor: "Test: byte, 0 to 1, read-only if Missing is 1",
			message:    "test.settings: The setting \"Test\" depends on the value for \"Missing\" but that setting does not seem to exist! Perhaps you misspelled \"Missing\"?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settings.Parse("test.settings", []byte(tt.descriptor))
			require.Error(t, err)

			var perr *settings.ParseError
			require.True(t, errors.As(err, &perr), "expected a descriptor error, got %v", err)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestParseTrailingLoneNibble(t *testing.T) {
	// A lone nibble at the end of the file is tolerated; only a byte
	// setting after one is an error.
	schema, err := settings.Parse("test.settings", []byte("A: nibble, 0 to 1\nB: nibble, 0 to 1\nC: nibble, 0 to 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, schema.Len())
}

func TestParseConditionValueAlternatives(t *testing.T) {
	schema, err := settings.Parse("test.settings", []byte(
		"Mode: byte, 0 to 3, default is 00\nTimer: byte, 0 to 1, read-only unless Mode is 1 or 2 or 3\n"))
	require.NoError(t, err)

	field := schema.Settings()[1]
	require.Equal(t, settings.ReadOnlyWhen, field.ReadOnly.Kind)
	assert.Equal(t, []int64{1, 2, 3}, field.ReadOnly.Condition.Values)
}
