package model

import "time"

// Config is the complete runtime configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Pull    PullConfig    `yaml:"pull" mapstructure:"pull"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures requests to the PubChem service.
type HTTPConfig struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	BatchTimeout time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// PullConfig configures the resumable fetch loop.
type PullConfig struct {
	FlushEvery          int           `yaml:"flush_every" mapstructure:"flush_every"`
	Sleep               time.Duration `yaml:"sleep" mapstructure:"sleep"`
	PropertiesBatchSize int           `yaml:"properties_batch_size" mapstructure:"properties_batch_size"`
	MaxCIDs             int           `yaml:"max_cids" mapstructure:"max_cids"`
	ExtraHeadings       bool          `yaml:"extra_headings" mapstructure:"extra_headings"`
	RespectRobots       bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// ExportConfig configures the wide export.
type ExportConfig struct {
	PreviewRows int `yaml:"preview_rows" mapstructure:"preview_rows"`
	CellLimit   int `yaml:"cell_limit" mapstructure:"cell_limit"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			BaseURL:      "https://pubchem.ncbi.nlm.nih.gov",
			Timeout:      60 * time.Second,
			BatchTimeout: 60 * time.Second,
			UserAgent:    "pubchem-pull/0.1 (+https://github.com/tonyg-mp/pubchem)",
			MaxBodyBytes: 64 << 20,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "pubchem_bulk_pull/cache_json",
		},
		Pull: PullConfig{
			FlushEvery:          250,
			Sleep:               100 * time.Millisecond,
			PropertiesBatchSize: 100,
		},
		Export: ExportConfig{
			PreviewRows: 5000,
			CellLimit:   30000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
