package settings

import (
	"os"
	"path/filepath"

	"github.com/bodgit/naomi/eeprom"
)

const (
	// SystemFilename is the descriptor for the BIOS-owned system block,
	// required in every definitions directory.
	SystemFilename = "system.settings"

	// Extension is appended to a game serial to form its descriptor
	// filename.
	Extension = ".settings"

	// NoFile labels the blank schema used when a game has no descriptor.
	NoFile = "NO FILE"
)

// Blank returns an empty schema. Decoding against it yields no game
// settings but leaves the system settings fully usable.
func Blank() *Schema {
	return New(NoFile, nil)
}

// Manager loads schemas from a directory of descriptor files and moves
// whole configurations in and out of EEPROM images.
type Manager struct {
	directory string
}

func NewManager(directory string) *Manager {
	return &Manager{directory: directory}
}

func (m *Manager) systemSchema() (*Schema, error) {
	data, err := os.ReadFile(filepath.Join(m.directory, SystemFilename))
	if err != nil {
		return nil, err
	}
	return Parse(SystemFilename, data)
}

// serialSchema returns the schema for a game serial, or nil if the
// directory holds no descriptor for it. The directory listing is matched
// exactly so a case-insensitive filesystem cannot widen the lookup.
func (m *Manager) serialSchema(serial string) (*Schema, error) {
	filename := serial + Extension

	entries, err := os.ReadDir(m.directory)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() != filename {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.directory, entry.Name()))
		if err != nil {
			return nil, err
		}
		return Parse(filename, data)
	}

	return nil, nil
}

// Decode parses an EEPROM image into a configuration, reading the system
// region against the system schema and the game region against the schema
// for the image's serial.
func (m *Manager) Decode(data []byte) (*Configuration, error) {
	img, err := eeprom.New(data)
	if err != nil {
		return nil, err
	}
	serial := string(img.Serial())

	system, err := m.systemSchema()
	if err != nil {
		return nil, err
	}

	game, err := m.serialSchema(serial)
	if err != nil {
		return nil, err
	}
	if game == nil {
		game = Blank()
	}

	systemValues, err := system.Unpack(img.System().Bytes())
	if err != nil {
		return nil, err
	}

	gameValues, err := game.Unpack(img.Game().Bytes())
	if err != nil {
		return nil, err
	}

	return &Configuration{
		Serial: serial,
		System: &Region{Kind: RegionSystem, Schema: system, Values: systemValues},
		Game:   &Region{Kind: RegionGame, Schema: game, Values: gameValues},
	}, nil
}

// Default builds the configuration a game would see on first boot, before
// any EEPROM for it exists. The game region carries the schema defaults;
// without a schema it is left blank and only the system region is
// populated.
func (m *Manager) Default(serial string) (*Configuration, error) {
	game, err := m.serialSchema(serial)
	if err != nil {
		return nil, err
	}

	var gameDefaults []byte
	if game != nil {
		if gameDefaults, err = game.Defaults(); err != nil {
			return nil, err
		}
	}

	img, err := eeprom.Default([]byte(serial), gameDefaults)
	if err != nil {
		return nil, err
	}

	return m.Decode(img.Bytes())
}

// Encode materializes a configuration into EEPROM image bytes. The image
// starts from the stock system block, the game length header is sized
// from the game schema, then both regions are packed over the top.
func (m *Manager) Encode(cfg *Configuration) ([]byte, error) {
	img, err := eeprom.Default([]byte(cfg.Serial), nil)
	if err != nil {
		return nil, err
	}

	length, err := cfg.Game.Schema.PackedLength()
	if err != nil {
		return nil, err
	}
	if err := img.SetGameLength(length); err != nil {
		return nil, err
	}

	if err := cfg.System.Pack(img.System()); err != nil {
		return nil, err
	}
	if err := cfg.Game.Pack(img.Game()); err != nil {
		return nil, err
	}

	return img.Bytes(), nil
}
