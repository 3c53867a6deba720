package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/talgya/hexwar/internal/hex"
	"github.com/talgya/hexwar/internal/world"
)

// ErrLoadFailed wraps every failure to read a persisted map, so callers can
// tell a bad map apart from other errors without aborting.
var ErrLoadFailed = errors.New("load failed")

// WriteMap encodes the world as a JSON object keyed by "q,r,s".
func WriteMap(out io.Writer, w *world.World) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(w.Snapshot())
}

// ReadMap decodes and validates a JSON map.
func ReadMap(in io.Reader) (map[hex.Cube]world.Tile, error) {
	var tiles map[hex.Cube]world.Tile
	if err := json.NewDecoder(in).Decode(&tiles); err != nil {
		return nil, err
	}
	if tiles == nil {
		return nil, errors.New("map is null")
	}
	for c, t := range tiles {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("tile %v: %w", c, err)
		}
	}
	return tiles, nil
}

// SaveMap writes the world to path, replacing the file atomically.
func SaveMap(path string, w *world.World) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("save map: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save map: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteMap(tmp, w); err != nil {
		tmp.Close()
		return fmt.Errorf("save map %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save map %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save map %s: %w", path, err)
	}

	slog.Info("map saved", "path", path, "tiles", w.Len())
	return nil
}

// LoadMap reads a map file into a new world.
func LoadMap(path string) (*world.World, error) {
	tiles, err := readMapFile(path)
	if err != nil {
		return nil, err
	}
	w, err := world.FromTiles(tiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}
	slog.Info("map loaded", "path", path, "tiles", w.Len())
	return w, nil
}

// LoadInto replaces the contents of w with the map at path. On any error w
// keeps its previous contents.
func LoadInto(path string, w *world.World) error {
	tiles, err := readMapFile(path)
	if err != nil {
		return err
	}
	if err := w.Replace(tiles); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}
	return nil
}

func readMapFile(path string) (map[hex.Cube]world.Tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer f.Close()

	tiles, err := ReadMap(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}
	return tiles, nil
}
