package naomi

import (
	"database/sql"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/bodgit/naomi/eeprom"
	_ "github.com/mattn/go-sqlite3"
)

// GameDB maps the four character serial baked into each EEPROM image to
// the title it belongs to.
type GameDB struct {
	db *sql.DB
}

// Game is one database entry. Year and Genre are zero when the source
// game list didn't have them.
type Game struct {
	Serial string
	Name   string
	Year   int64
	Genre  Genre
}

func NewGameDB(file string) (*GameDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS game (id INTEGER PRIMARY KEY NOT NULL, serial TEXT NOT NULL UNIQUE, name STRING NOT NULL, year INTEGER, genre INTEGER)"); err != nil {
		return nil, err
	}

	return &GameDB{
		db: db,
	}, nil
}

type xmlGameDB struct {
	XMLName xml.Name   `xml:"GameDB"`
	Games   []xmlGame  `xml:"Game"`
	Genres  []xmlGenre `xml:"Genre"`
}

type xmlGame struct {
	XMLName xml.Name `xml:"Game"`
	Serial  string   `xml:"Serial"`
	Name    string   `xml:"Name"`
	Year    int64    `xml:"Year"`
	Genre   int64    `xml:"Genre"`
}

type xmlGenre struct {
	XMLName xml.Name `xml:"Genre"`
	Genre   int      `xml:"Genre"`
	Name    string   `xml:"Name"`
}

// ImportXML replaces the database contents with the games listed in the
// passed XML file.
func (db *GameDB) ImportXML(file string) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	var xmlDB xmlGameDB
	if err := xml.Unmarshal(b, &xmlDB); err != nil {
		return err
	}

	if _, err = db.db.Exec("DELETE FROM game"); err != nil {
		return err
	}

	for _, g := range xmlDB.Games {
		serial := strings.ToUpper(strings.TrimSpace(g.Serial))
		if len(serial) != eeprom.SerialSize {
			return fmt.Errorf("invalid serial %q for game %q", g.Serial, g.Name)
		}

		var year sql.NullInt64
		if g.Year != 0 {
			year.Int64 = g.Year
			year.Valid = true
		}

		var genre sql.NullInt64
		if g.Genre != 0 {
			genre.Int64 = g.Genre
			genre.Valid = true
		}

		if err := db.addGame(serial, g.Name, year, genre); err != nil {
			return err
		}
	}

	return nil
}

func (db *GameDB) Close() error {
	return db.db.Close()
}

func (db *GameDB) addGame(serial, name string, year, genre sql.NullInt64) error {
	var id int64
	switch err := db.db.QueryRow("SELECT id FROM game WHERE serial = ?", serial).Scan(&id); err {
	case sql.ErrNoRows:
		if _, err := db.db.Exec("INSERT INTO game (serial, name, year, genre) VALUES (?, ?, ?, ?)", serial, name, year, genre); err != nil {
			return err
		}
		return nil
	case nil:
		// Duplicate serial later in the list, last one wins
		if _, err := db.db.Exec("UPDATE game SET name = ?, year = ?, genre = ? WHERE id = ?", name, year, genre, id); err != nil {
			return err
		}
		return nil
	default:
		return err
	}
}

// Title returns the game for a serial, or nil with no error if the
// serial isn't in the database.
func (db *GameDB) Title(serial string) (*Game, error) {
	game := &Game{
		Serial: strings.ToUpper(serial),
	}

	var year, genre sql.NullInt64
	switch err := db.db.QueryRow("SELECT name, year, genre FROM game WHERE serial = ?", game.Serial).Scan(&game.Name, &year, &genre); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if year.Valid {
			game.Year = year.Int64
		}
		if genre.Valid {
			game.Genre = Genre(genre.Int64)
		}
		return game, nil
	default:
		return nil, err
	}
}
