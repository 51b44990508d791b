package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultKeep is how many payloads a Store keeps on disk.
const DefaultKeep = 50

// Source is a playable copy of an audio payload.
type Source struct {
	URL      string // file:// URL of Path
	Path     string
	Size     int
	Duration time.Duration // zero when the format is unknown
}

// Store saves audio payloads to a local directory.
type Store struct {
	Dir string
	// Keep caps the number of cached payloads; the least recently saved go
	// first. Zero or less disables pruning.
	Keep int
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ttsdeck")
	}
	return &Store{Dir: dir, Keep: DefaultKeep}
}

// Save writes data to {dir}/{sha256 prefix}.mp3 and reads its duration. The
// same payload always maps to the same file. It touches only the disk, so it
// is safe to call off the UI loop.
func (s *Store) Save(data []byte) (Source, error) {
	if len(data) == 0 {
		return Source{}, fmt.Errorf("empty audio payload")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Source{}, fmt.Errorf("mkdir: %w", err)
	}
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:8]) + ".mp3"
	path, err := filepath.Abs(filepath.Join(s.Dir, name))
	if err != nil {
		return Source{}, fmt.Errorf("abs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Source{}, fmt.Errorf("write audio: %w", err)
	}
	s.prune(name)

	dur, _ := Probe(data)
	return Source{
		URL:      (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
		Path:     path,
		Size:     len(data),
		Duration: dur,
	}, nil
}

// prune removes the oldest cached payloads beyond Keep, sparing the file
// named keep.
// Failures are ignored; the cache is best effort.
func (s *Store) prune(keep string) {
	if s.Keep <= 0 {
		return
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return
	}
	type cached struct {
		name string
		mod  time.Time
	}
	var old []cached
	for _, e := range entries {
		if e.IsDir() || e.Name() == keep || !strings.HasSuffix(e.Name(), ".mp3") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		old = append(old, cached{e.Name(), info.ModTime()})
	}
	if len(old) < s.Keep {
		return
	}
	sort.Slice(old, func(i, j int) bool { return old[i].mod.After(old[j].mod) })
	for _, c := range old[s.Keep-1:] {
		_ = os.Remove(filepath.Join(s.Dir, c.name))
	}
}
