package sources

type Source struct {
	Name     string   `yaml:"-"`
	URL      string   `yaml:"url"`
	Settings Settings `yaml:"settings"`
	Filters  []Filter `yaml:"filters"`
}

type Settings struct {
	Enabled         bool  `yaml:"enabled"`
	RefreshInterval int   `yaml:"refresh_interval"` // seconds
	MaxItems        int   `yaml:"max_items"`
	Timeout         int   `yaml:"timeout"` // seconds
	MaxSize         int64 `yaml:"max_size"` // bytes
	ExtractContent  bool  `yaml:"extract_content"`
}

// Filter matches one entry field against case-insensitive substrings.
// An entry is hidden when any exclude matches, or when includes are given
// and none of them match.
type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

const (
	DefaultRefreshInterval = 3600
	DefaultMaxItems        = 100
	DefaultTimeout         = 30
	DefaultMaxSize         = 10 << 20
)

var FilterFields = []string{"title", "summary", "content", "author", "link", "keywords"}
