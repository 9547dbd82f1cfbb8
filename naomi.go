/*
Package naomi reads and writes the battery-backed EEPROM images that hold
the system and per-game settings of Sega Naomi arcade hardware.

An image on its own is 128 anonymous bytes. Settings take their names,
widths, allowed values and defaults from descriptor files, one
"system.settings" shared by every board plus an optional
"<serial>.settings" per game. The Naomi type ties a directory of those
descriptors to file level operations, with an optional game database for
putting a title to the serials it comes across.
*/
package naomi

import (
	"errors"
	"os"

	"github.com/bodgit/naomi/settings"
	"github.com/rs/zerolog"
)

// Naomi combines a settings directory with an optional game database.
type Naomi struct {
	manager *settings.Manager
	db      *GameDB
	logger  zerolog.Logger
}

// New returns a Naomi using the descriptor files in the definitions
// directory. The database file is optional; if it's empty, title lookups
// are skipped.
func New(definitions, dbFile string, logger zerolog.Logger) (*Naomi, error) {
	n := &Naomi{
		manager: settings.NewManager(definitions),
		logger:  logger,
	}

	if dbFile != "" {
		db, err := NewGameDB(dbFile)
		if err != nil {
			return nil, err
		}
		n.db = db
	}

	return n, nil
}

// Close closes the game database, if one is open.
func (n *Naomi) Close() error {
	if n.db != nil {
		return n.db.Close()
	}

	return nil
}

// Load reads an EEPROM image file into a configuration.
func (n *Naomi) Load(file string) (*settings.Configuration, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	config, err := n.manager.Decode(data)
	if err != nil {
		return nil, err
	}

	n.logger.Debug().Str("file", file).Str("serial", config.Serial).Msg("loaded image")

	return config, nil
}

// Store writes a configuration back out as an EEPROM image file.
func (n *Naomi) Store(file string, config *settings.Configuration) error {
	data, err := n.manager.Encode(config)
	if err != nil {
		return err
	}

	if err := os.WriteFile(file, data, 0666); err != nil {
		return err
	}

	n.logger.Debug().Str("file", file).Str("serial", config.Serial).Msg("stored image")

	return nil
}

// Create writes a fresh image for the given serial, populated with the
// defaults its descriptors declare.
func (n *Naomi) Create(serial, file string) (*settings.Configuration, error) {
	config, err := n.manager.Default(serial)
	if err != nil {
		return nil, err
	}

	if err := n.Store(file, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Edit applies named changes to an existing image file and writes it
// back. Values for read-only settings are recomputed on save, so edits
// to them don't stick.
func (n *Naomi) Edit(file string, changes map[string]int64) (*settings.Configuration, error) {
	config, err := n.Load(file)
	if err != nil {
		return nil, err
	}

	for name, value := range changes {
		if err := config.Set(name, value); err != nil {
			return nil, err
		}
	}

	if err := n.Store(file, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Import replaces the contents of the game database with the games in
// the passed XML file.
func (n *Naomi) Import(file string) error {
	if n.db == nil {
		return errors.New("no game database configured")
	}

	return n.db.ImportXML(file)
}

// Title looks up the game for a serial in the database. It returns nil
// with no error if there is no database or the serial is unknown.
func (n *Naomi) Title(serial string) (*Game, error) {
	if n.db == nil {
		return nil, nil
	}

	return n.db.Title(serial)
}
