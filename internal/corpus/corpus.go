// Package corpus reads the downloaded comic collection: the metadata
// file written by the downloader plus the image bytes on disk.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/comicbench/comicbench/internal/domain"
	"github.com/comicbench/comicbench/internal/provider"
)

// Corpus is the metadata list in download order, with an index by ID
// for single-comic lookups.
type Corpus struct {
	Comics []domain.Comic
	byID   map[string]*domain.Comic

	imageDir string
}

// Load reads the metadata file produced by the downloader. imageDir is
// used to resolve image paths when an entry's local_path is relative or
// missing.
func Load(metadataFile, imageDir string) (*Corpus, error) {
	raw, err := os.ReadFile(metadataFile)
	if err != nil {
		return nil, fmt.Errorf("read comics metadata: %w", err)
	}

	var comics []domain.Comic
	if err := json.Unmarshal(raw, &comics); err != nil {
		return nil, fmt.Errorf("parse comics metadata: %w", err)
	}
	if len(comics) == 0 {
		return nil, fmt.Errorf("comics metadata %s is empty", metadataFile)
	}

	c := &Corpus{
		Comics:   comics,
		byID:     make(map[string]*domain.Comic, len(comics)),
		imageDir: imageDir,
	}
	for i := range c.Comics {
		comic := &c.Comics[i]
		if comic.ID == "" {
			return nil, fmt.Errorf("comics metadata entry %d has no filename", i)
		}
		c.byID[comic.ID] = comic
	}
	return c, nil
}

func (c *Corpus) Len() int {
	return len(c.Comics)
}

// Get returns the comic with the given ID (its image filename).
func (c *Corpus) Get(id string) (*domain.Comic, bool) {
	comic, ok := c.byID[id]
	return comic, ok
}

// ImagePath resolves the on-disk path for a comic's image.
func (c *Corpus) ImagePath(comic *domain.Comic) string {
	if comic.LocalPath != "" {
		return comic.LocalPath
	}
	return filepath.Join(c.imageDir, comic.ID)
}

// ReadImage returns the image bytes and MIME type for a comic.
func (c *Corpus) ReadImage(comic *domain.Comic) ([]byte, string, error) {
	path := c.ImagePath(comic)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read comic image %s: %w", comic.ID, err)
	}
	return data, provider.MediaTypeForPath(path), nil
}
