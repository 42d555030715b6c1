package sounds

import (
	"errors"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"city-ambience/internal/clock"
)

// Selector draws ambient sounds from the manifest files present in a
// content store.
type Selector struct {
	store fs.FS

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector returns a selector over the directory at root, seeded from
// the current time.
func NewSelector(root string) *Selector {
	return NewSelectorWithSource(os.DirFS(root), rand.NewSource(time.Now().UnixNano()))
}

func NewSelectorWithSource(store fs.FS, src rand.Source) *Selector {
	return &Selector{store: store, rnd: rand.New(src)}
}

// Available lists the manifest entries for p that exist in the store.
func (s *Selector) Available(p clock.Period) []string {
	var out []string
	for _, name := range Manifest(p) {
		info, err := fs.Stat(s.store, name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("Sound %s: %v", name, err)
			}
			continue
		}
		if info.Mode().IsRegular() {
			out = append(out, name)
		}
	}
	return out
}

// Pick draws count assets for p uniformly at random with replacement.
// It returns an empty slice when no manifest file is present.
func (s *Selector) Pick(p clock.Period, count int) []Asset {
	available := s.Available(p)
	if len(available) == 0 || count <= 0 {
		return []Asset{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Asset, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, Asset{
			FileName: available[s.rnd.Intn(len(available))],
			Period:   p,
		})
	}
	return out
}

// PickOne returns a single file name for p, or Placeholder.
func (s *Selector) PickOne(p clock.Period) string {
	picked := s.Pick(p, 1)
	if len(picked) == 0 {
		return Placeholder
	}
	return picked[0].FileName
}
