// Package deck turns deck manifests into cards for a new board.
//
// A manifest stands in for the image-extraction step: it lists the card
// image references of a main deck and an extra deck, and every listed image
// becomes a Card with a fresh id.
package deck

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rushboard/solo-board/internal/board"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned for manifests that cannot produce a board.
var ErrInvalidManifest = errors.New("invalid deck manifest")

// Manifest describes one deck.
type Manifest struct {
	Name  string   `yaml:"name" json:"name"`
	Main  []string `yaml:"main" json:"main"`
	Extra []string `yaml:"extra" json:"extra"`
}

// LoadManifest reads and parses a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses a YAML manifest and validates it.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate requires a non-empty main deck and non-blank image references.
func (m *Manifest) Validate() error {
	if len(m.Main) == 0 {
		return fmt.Errorf("%w: main deck is empty", ErrInvalidManifest)
	}
	for i, img := range m.Main {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: main[%d] has no image", ErrInvalidManifest, i)
		}
	}
	for i, img := range m.Extra {
		if strings.TrimSpace(img) == "" {
			return fmt.Errorf("%w: extra[%d] has no image", ErrInvalidManifest, i)
		}
	}
	return nil
}

// Cards returns freshly identified cards for the main and extra decks.
func (m *Manifest) Cards() (main, extra []board.Card) {
	return NewCards(m.Main), NewCards(m.Extra)
}

// NewCards assigns a new unique id to each image, preserving order.
func NewCards(images []string) []board.Card {
	cards := make([]board.Card, len(images))
	for i, img := range images {
		cards[i] = board.Card{ID: uuid.NewString(), Image: strings.TrimSpace(img)}
	}
	return cards
}
