package cfg

type Cfg struct {
	// Storage
	DBPath     string
	SourcesDir string

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string
	MaxParseSize int64

	// Background processing
	WorkerCount       int
	SchedulerInterval int
	UserAgent         string

	// Runtime
	Timezone string
	Debug    bool
	LogFile  string
	Version  string

	// One-shot mode
	Format string
	Files  []string
}

// OneShot reports whether files were given on the command line.
func (c *Cfg) OneShot() bool {
	return len(c.Files) > 0
}
