package sources

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var ErrSourceNotFound = errors.New("source not found")

// Registry keeps the parsed <name>.yml source files of one directory.
type Registry struct {
	dir     string
	sources map[string]*Source
	mu      sync.RWMutex
}

func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		sources: make(map[string]*Source),
	}
}

func (r *Registry) Run() error {
	if _, err := os.Stat(r.dir); os.IsNotExist(err) {
		slog.Warn("Sources directory does not exist", "dir", r.dir)
		return nil
	}

	files, err := filepath.Glob(filepath.Join(r.dir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		source, err := r.Load(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source loaded", "source", name, "enabled", source.Settings.Enabled, "refresh_interval", source.Settings.RefreshInterval)
	}

	return nil
}

// Load reads and validates one source file and replaces the cached copy.
func (r *Registry) Load(name string) (*Source, error) {
	path := filepath.Join(r.dir, name+".yml")

	source, err := parseSource(path)
	if err != nil {
		return nil, err
	}
	source.Name = name

	if err := Validate(source); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = source

	return source, nil
}

func (r *Registry) Get(name string) (*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return source, nil
}

func (r *Registry) All() map[string]*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Assign(r.sources)
}

func (r *Registry) Enabled() map[string]*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.PickBy(r.sources, func(_ string, s *Source) bool {
		return s.Settings.Enabled
	})
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

func parseSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if source.Settings.RefreshInterval == 0 {
		source.Settings.RefreshInterval = DefaultRefreshInterval
	}
	if source.Settings.MaxItems == 0 {
		source.Settings.MaxItems = DefaultMaxItems
	}
	if source.Settings.Timeout == 0 {
		source.Settings.Timeout = DefaultTimeout
	}
	if source.Settings.MaxSize == 0 {
		source.Settings.MaxSize = DefaultMaxSize
	}

	return &source, nil
}

func Validate(source *Source) error {
	if source == nil {
		return fmt.Errorf("source is nil")
	}

	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if source.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	if source.Settings.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	if source.Settings.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}
	if source.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if source.Settings.MaxSize < 0 {
		return fmt.Errorf("max size must be non-negative")
	}

	for i, filter := range source.Filters {
		if !lo.Contains(FilterFields, filter.Field) {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
