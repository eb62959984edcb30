package catalog

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Sound is one playable asset as presented to clients.
type Sound struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Catalog lists audio assets from a directory on disk. The directory is
// also served statically, URL points at the served file.
type Catalog struct {
	dir       string
	urlPrefix string
}

func New(dir string) *Catalog {
	return &Catalog{dir: dir, urlPrefix: "/sounds"}
}

// List returns every playable file in the catalog directory, ordered by ID.
// A missing directory is created empty rather than treated as an error.
func (c *Catalog) List() ([]Sound, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sounds directory: %w", err)
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("read sounds directory: %w", err)
	}

	sounds := make([]Sound, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !playableExt(ext) {
			continue
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))

		sounds = append(sounds, Sound{
			ID:   id,
			Name: displayName(id),
			URL:  path.Join(c.urlPrefix, name),
		})
	}

	sort.Slice(sounds, func(i, j int) bool { return sounds[i].ID < sounds[j].ID })

	return sounds, nil
}

func playableExt(ext string) bool {
	switch ext {
	case ".mp3", ".wav", ".ogg":
		return true
	}
	return false
}

// displayName turns "air-horn" into "Air Horn".
func displayName(id string) string {
	words := strings.Split(id, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
