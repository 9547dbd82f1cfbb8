package settings

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Values binds a raw number to each setting that has one, keyed by the
// setting's position in the schema. Positions rather than names because
// placeholder names such as "Unknown" legitimately repeat within a file.
type Values map[int]int64

// Section is the slice of an EEPROM image that a region materializes
// into. Writes land in both stored copies of the section and refresh its
// checksums.
type Section interface {
	io.WriterAt
	Valid() bool
}

// RegionKind identifies which half of the EEPROM a region describes.
type RegionKind int

const (
	RegionUnknown RegionKind = iota
	RegionSystem
	RegionGame
)

func (k RegionKind) String() string {
	switch k {
	case RegionSystem:
		return "SYSTEM"
	case RegionGame:
		return "GAME"
	}
	return "UNKNOWN"
}

// Region pairs a schema with the values currently bound to it.
type Region struct {
	Kind   RegionKind
	Schema *Schema
	Values Values
}

// Lookup returns the bound value of the named setting. The second return
// is false if the name is unknown or the setting has no value bound.
func (r *Region) Lookup(name string) (int64, bool) {
	i, ok := r.Schema.lookup(name)
	if !ok {
		return 0, false
	}
	value, bound := r.Values[i]
	return value, bound
}

// Set binds a value to the named setting, reporting whether the name is
// known to the region's schema.
func (r *Region) Set(name string, value int64) bool {
	i, ok := r.Schema.lookup(name)
	if !ok {
		return false
	}
	if r.Values == nil {
		r.Values = make(Values)
	}
	r.Values[i] = value
	return true
}

// Configuration is a decoded EEPROM image: the game serial plus the
// system and game regions.
type Configuration struct {
	Serial string
	System *Region
	Game   *Region
}

// Set updates the named setting in whichever region defines it, trying
// the system region first.
func (c *Configuration) Set(name string, value int64) error {
	if c.System != nil && c.System.Set(name, value) {
		return nil
	}
	if c.Game != nil && c.Game.Set(name, value) {
		return nil
	}
	return fmt.Errorf("no setting named %q in either the system or game settings", name)
}

// Unpack reads a value for every setting out of a section's byte
// snapshot. Nibbles are read high half first, bytes little-endian.
func (s *Schema) Unpack(data []byte) (Values, error) {
	values := make(Values, len(s.settings))
	location := 0
	halves := 0

	for i := range s.settings {
		setting := &s.settings[i]

		switch setting.Size {
		case SizeNibble:
			if location >= len(data) {
				return nil, parseErrorf(s.filename, "Cannot parse setting %q, ran out of data in the section!", setting.Name)
			}
			if halves == 0 {
				values[i] = int64(data[location]>>4) & 0xf
				halves = 1
			} else {
				values[i] = int64(data[location]) & 0xf
				halves = 0
				location++
			}
		case SizeByte:
			if halves != 0 {
				return nil, parseErrorf(s.filename, "The setting %q follows a lonesome nibble. Nibble settings must always be in pairs!", setting.Name)
			}
			if !validLength(setting.Length) {
				return nil, parseErrorf(s.filename, "Cannot parse setting %q with unrecognized size \"%d\"!", setting.Name, setting.Length)
			}
			if location+setting.Length > len(data) {
				return nil, parseErrorf(s.filename, "Cannot parse setting %q, ran out of data in the section!", setting.Name)
			}

			switch setting.Length {
			case 1:
				values[i] = int64(data[location])
			case 2:
				values[i] = int64(binary.LittleEndian.Uint16(data[location:]))
			case 4:
				values[i] = int64(binary.LittleEndian.Uint32(data[location:]))
			}
			location += setting.Length
		}
	}

	return values, nil
}

// PackedLength returns the number of bytes the schema occupies once
// materialized. A trailing lone nibble contributes nothing.
func (s *Schema) PackedLength() (int, error) {
	halves := 0
	length := 0

	for i := range s.settings {
		setting := &s.settings[i]

		switch setting.Size {
		case SizeNibble:
			if halves == 0 {
				halves = 1
			} else {
				halves = 0
				length++
			}
		case SizeByte:
			if halves != 0 {
				return 0, saveErrorf(s.filename, "The setting %q follows a lonesome nibble. Nibble settings must always be in pairs!", setting.Name)
			}
			if !validLength(setting.Length) {
				return 0, saveErrorf(s.filename, "Cannot save setting %q with unrecognized size %d!", setting.Name, setting.Length)
			}
			length += setting.Length
		}
	}

	return length, nil
}

// Defaults materializes the schema with no values bound, producing the
// byte sequence a fresh EEPROM carries for it. Settings without a default
// count as zero. Resolved values accumulate as the walk proceeds so a
// conditional default can depend on the outcome of an earlier setting.
func (s *Schema) Defaults() ([]byte, error) {
	resolved := make(Values, len(s.settings))
	out := make([]byte, 0, len(s.settings))
	pending := byte(0)
	halves := 0

	for i := range s.settings {
		setting := &s.settings[i]

		var value int64
		switch setting.Default.Kind {
		case DefaultLiteral:
			value = setting.Default.Value
		case DefaultConditional:
			v, err := s.evaluateDefault(resolved, setting.Name, setting.Default.Rules)
			if err != nil {
				return nil, err
			}
			value = v
		}
		resolved[i] = value

		switch setting.Size {
		case SizeNibble:
			if halves == 0 {
				pending = byte(value&0xf) << 4
				halves = 1
			} else {
				out = append(out, byte(value&0xf)|pending)
				halves = 0
			}
		case SizeByte:
			if halves != 0 {
				return nil, saveErrorf(s.filename, "The setting %q follows a lonesome nibble. Nibble settings must always be in pairs!", setting.Name)
			}
			if !validLength(setting.Length) {
				return nil, saveErrorf(s.filename, "Cannot save setting %q with unrecognized size %d!", setting.Name, setting.Length)
			}

			buf, err := packValue(s.filename, setting, value)
			if err != nil {
				return nil, err
			}
			out = append(out, buf...)
		}
	}

	return out, nil
}

// Pack materializes the region into a section. A read-only setting
// prefers its default over the bound value, a writable one prefers the
// bound value. A setting that resolves to no value at all writes nothing
// but still advances the cursor. Sections that fail their checksum are
// skipped wholesale.
func (r *Region) Pack(section Section) error {
	if !section.Valid() {
		return nil
	}

	s := r.Schema
	pending := byte(0)
	halves := 0
	location := 0

	for i := range s.settings {
		setting := &s.settings[i]

		def, defOK, err := s.effectiveDefault(r.Values, setting)
		if err != nil {
			return err
		}

		readOnly, err := s.effectiveReadOnly(r.Values, setting)
		if err != nil {
			return err
		}

		current, bound := r.Values[i]
		var value int64
		valueOK := false
		if readOnly {
			// A read-only setting takes its default in preference to
			// whatever is currently stored.
			switch {
			case defOK:
				value, valueOK = def, true
			case bound:
				value, valueOK = current, true
			}
		} else {
			switch {
			case bound:
				value, valueOK = current, true
			case defOK:
				value, valueOK = def, true
			}
		}

		switch setting.Size {
		case SizeNibble:
			if valueOK {
				if halves == 0 {
					pending = byte(value&0xf) << 4
				} else {
					if err := writeSection(section, s.filename, setting.Name, location, []byte{byte(value&0xf) | pending}); err != nil {
						return err
					}
				}
			}
			if halves == 0 {
				halves = 1
			} else {
				halves = 0
				location++
			}
		case SizeByte:
			if halves != 0 {
				return saveErrorf(s.filename, "The setting %q follows a lonesome nibble. Nibble settings must always be in pairs!", setting.Name)
			}
			if !validLength(setting.Length) {
				return saveErrorf(s.filename, "Cannot save setting %q with unrecognized size %d!", setting.Name, setting.Length)
			}

			if valueOK {
				buf, err := packValue(s.filename, setting, value)
				if err != nil {
					return err
				}
				if err := writeSection(section, s.filename, setting.Name, location, buf); err != nil {
					return err
				}
			}
			location += setting.Length
		}
	}

	return nil
}

func (s *Schema) effectiveDefault(values Values, setting *Setting) (int64, bool, error) {
	switch setting.Default.Kind {
	case DefaultLiteral:
		return setting.Default.Value, true, nil
	case DefaultConditional:
		value, err := s.evaluateDefault(values, setting.Name, setting.Default.Rules)
		if err != nil {
			return 0, false, err
		}
		return value, true, nil
	}
	return 0, false, nil
}

func (s *Schema) effectiveReadOnly(values Values, setting *Setting) (bool, error) {
	switch setting.ReadOnly.Kind {
	case ReadOnlyAlways:
		return true, nil
	case ReadOnlyWhen:
		return s.evaluateGate(values, setting.Name, setting.ReadOnly.Condition)
	}
	return false, nil
}

func validLength(length int) bool {
	switch length {
	case 1, 2, 4:
		return true
	}
	return false
}

func packValue(filename string, setting *Setting, value int64) ([]byte, error) {
	var max int64
	switch setting.Length {
	case 1:
		max = 0xff
	case 2:
		max = 0xffff
	case 4:
		max = 0xffffffff
	}
	if value < 0 || value > max {
		return nil, saveErrorf(filename, "Cannot save setting %q, value %d is too big for its size!", setting.Name, value)
	}

	buf := make([]byte, setting.Length)
	switch setting.Length {
	case 1:
		buf[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(value))
	}
	return buf, nil
}

func writeSection(section Section, filename, name string, location int, p []byte) error {
	if _, err := section.WriteAt(p, int64(location)); err != nil {
		return saveErrorf(filename, "Cannot save setting %q past the end of the section!", name)
	}
	return nil
}
