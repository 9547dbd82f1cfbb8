package naomi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/naomi/eeprom"
)

// Extension is the filename extension expected on EEPROM image files.
const Extension = ".eeprom"

func (n *Naomi) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			// Anything that isn't exactly 128 bytes can't be an image
			if filepath.Ext(file) != Extension || info.Size() != eeprom.Size {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (n *Naomi) imageWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := n.scanImage(file); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func (n *Naomi) scanImage(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	img, err := eeprom.New(data)
	if err != nil {
		return err
	}

	config, err := n.manager.Decode(data)
	if err != nil {
		// A corrupt image shouldn't stop the rest of the scan
		n.logger.Warn().Str("file", file).Err(err).Msg("cannot decode image")
		return nil
	}

	var game *Game
	if n.db != nil {
		if game, err = n.db.Title(config.Serial); err != nil {
			return err
		}
	}

	event := n.logger.Info().
		Str("file", file).
		Str("serial", config.Serial).
		Bool("system", img.System().Valid()).
		Bool("game", img.Game().Valid())

	if game != nil {
		event = event.Str("name", game.Name)
		if game.Year != 0 {
			event = event.Int64("year", game.Year)
		}
		if game.Genre != 0 {
			event = event.Stringer("genre", game.Genre)
		}
	}

	event.Msg("image")

	return nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks a directory tree logging every EEPROM image found in it,
// along with its title if the game database knows the serial.
func (n *Naomi) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := n.findImages(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < 10; i++ {
		errc, err := n.imageWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
