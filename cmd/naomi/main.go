package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bodgit/naomi"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const (
	defaultDefinitions = "definitions"
	defaultConfig      = "naomi.toml"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func newNaomi(c *cli.Context) (*naomi.Naomi, error) {
	cfg := config{
		Definitions: c.String("definitions"),
		DB:          c.String("db"),
	}

	loaded, err := loadConfig(c.String("config"), cfg)
	switch {
	case err == nil:
		cfg = loaded
	case errors.Is(err, fs.ErrNotExist) && !c.IsSet("config"):
		// The default config location is allowed to not exist
	default:
		return nil, err
	}

	// Flags and environment beat the config file
	if c.IsSet("definitions") {
		cfg.Definitions = c.String("definitions")
	}
	if c.IsSet("db") {
		cfg.DB = c.String("db")
	}

	return naomi.New(cfg.Definitions, cfg.DB, newLogger(c.Bool("verbose")))
}

// parseChanges turns NAME=VALUE arguments into settings changes. Values
// are hexadecimal, matching how the definition files write them.
func parseChanges(args []string) (map[string]int64, error) {
	changes := make(map[string]int64, len(args))

	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not of the form NAME=VALUE", arg)
		}

		v, err := strconv.ParseInt(value, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse value %q for %q", value, name)
		}

		changes[name] = v
	}

	return changes, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "naomi"
	app.Usage = "Sega Naomi EEPROM settings utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"NAOMI_CONFIG"},
			Value:   filepath.Join(cwd, defaultConfig),
			Usage:   "path to config file",
		},
		&cli.StringFlag{
			Name:    "definitions",
			EnvVars: []string{"NAOMI_DEFINITIONS"},
			Value:   filepath.Join(cwd, defaultDefinitions),
			Usage:   "path to settings definition files",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"NAOMI_DB"},
			Usage:   "path to game database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "import",
			Usage:       "Import an XML game list into the database",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				n, err := newNaomi(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer n.Close()

				if err := n.Import(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Scan filesystem and report any EEPROM images",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				n, err := newNaomi(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer n.Close()

				if err := n.Scan(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "view",
			Usage:       "Show the settings held in an EEPROM image",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				n, err := newNaomi(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer n.Close()

				loaded, err := n.Load(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				b, err := json.MarshalIndent(loaded, "", "  ")
				if err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Println(string(b))

				return nil
			},
		},
		{
			Name:        "create",
			Usage:       "Create a fresh EEPROM image with default settings",
			Description: "",
			ArgsUsage:   "SERIAL FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				n, err := newNaomi(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer n.Close()

				if _, err := n.Create(c.Args().Get(0), c.Args().Get(1)); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "edit",
			Usage:       "Change settings in an EEPROM image",
			Description: "Values are hexadecimal, e.g. \"Coins Per Credit=2\" or \"Event Timer=7800\".",
			ArgsUsage:   "FILE NAME=VALUE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				changes, err := parseChanges(c.Args().Slice()[1:])
				if err != nil {
					return cli.Exit(err, 1)
				}

				n, err := newNaomi(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer n.Close()

				if _, err := n.Edit(c.Args().First(), changes); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
