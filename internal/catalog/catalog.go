package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Category groups the services offered on the marketplace. Plain data, no
// business rules attached.
type Category struct {
	Slug     string    `yaml:"slug" json:"slug"`
	Name     string    `yaml:"name" json:"name"`
	Tagline  string    `yaml:"tagline" json:"tagline"`
	Icon     string    `yaml:"icon" json:"icon,omitempty"`
	Position int       `yaml:"position" json:"-"`
	Services []Service `yaml:"services" json:"services"`
}

// Service is a single errand offering within a category
type Service struct {
	Slug            string `yaml:"slug" json:"slug"`
	Name            string `yaml:"name" json:"name"`
	Summary         string `yaml:"summary" json:"summary"`
	PriceFrom       string `yaml:"price_from" json:"priceFrom,omitempty"`
	DurationMinutes int    `yaml:"duration_minutes" json:"durationMinutes,omitempty"`
}

// Profile is the public shape of a user profile as rendered on the site
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

// Store holds the catalog content loaded from YAML files and serves an
// in-memory snapshot to the page handlers. Reloads replace the snapshot
// wholesale.
type Store struct {
	dir string
	log zerolog.Logger

	mu         sync.RWMutex
	categories []Category
	loadedAt   time.Time

	cron *cron.Cron
}

// NewStore creates a catalog store reading from dir
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{dir: dir, log: log}
}

// Load reads every *.yaml file under the content directory and replaces the
// current snapshot. Files that fail to parse are skipped with a warning so
// one bad file cannot take the whole catalog down.
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read content directory: %w", err)
	}

	var categories []Category
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("Failed to read catalog file")
			continue
		}

		var category Category
		if err := yaml.Unmarshal(data, &category); err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("Failed to parse catalog file")
			continue
		}
		if category.Slug == "" {
			s.log.Warn().Str("file", name).Msg("Catalog file has no slug, skipping")
			continue
		}
		categories = append(categories, category)
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Position != categories[j].Position {
			return categories[i].Position < categories[j].Position
		}
		return categories[i].Slug < categories[j].Slug
	})

	s.mu.Lock()
	s.categories = categories
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.log.Info().Int("categories", len(categories)).Msg("Catalog loaded")
	return nil
}

// Categories returns the current catalog snapshot
func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}

// Category looks up a category by slug
func (s *Store) Category(slug string) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, category := range s.categories {
		if category.Slug == slug {
			return category, true
		}
	}
	return Category{}, false
}

// Service looks up a service by category and service slug
func (s *Store) Service(categorySlug, serviceSlug string) (Category, Service, bool) {
	category, ok := s.Category(categorySlug)
	if !ok {
		return Category{}, Service{}, false
	}
	for _, service := range category.Services {
		if service.Slug == serviceSlug {
			return category, service, true
		}
	}
	return Category{}, Service{}, false
}

// LoadedAt returns when the snapshot was last replaced
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// StartReload schedules a periodic reload via cron. Starting again replaces
// the prior schedule.
func (s *Store) StartReload(every time.Duration) error {
	if every <= 0 {
		return nil
	}

	s.Stop()

	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		if err := s.Load(); err != nil {
			s.log.Error().Err(err).Msg("Catalog reload failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule catalog reload: %w", err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	return nil
}

// Stop cancels the periodic reload, if scheduled
func (s *Store) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}
