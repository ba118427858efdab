package config

import (
	"fmt"
	"time"
)

// Config represents a testpool.yaml configuration file. All values
// are optional and act as defaults for run flags; CLI flags always
// override config values.
type Config struct {
	Target  TargetConfig  `yaml:"target"`
	Path    PathConfig    `yaml:"path"`
	Process ProcessConfig `yaml:"process"`
	Adapter AdapterConfig `yaml:"adapter,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
}

// TargetConfig locates the executables to run.
type TargetConfig struct {
	// BinTarget is the directory walked for executable test binaries.
	BinTarget string `yaml:"bin_target"`
	// ConfigPath is the directory holding per-executable sibling .env
	// files, keyed by executable name (name.env).
	ConfigPath string `yaml:"config_path"`
}

// PathConfig locates output files.
type PathConfig struct {
	// ReportOut is where the compiled run report is written. "-"
	// writes to stderr.
	ReportOut string `yaml:"report_out"`
	// ErrorOut is where fatal startup/compile errors are written.
	// "-" writes to stderr.
	ErrorOut string `yaml:"error_out"`
}

// ProcessConfig tunes the process pool executor.
type ProcessConfig struct {
	// MaxChildSpawn is K, the size of the slot table.
	MaxChildSpawn int `yaml:"max_child_spawn"`
	// WorkerCount is N, the number of event-apply worker goroutines.
	WorkerCount int `yaml:"worker_count"`
	// ReapInterval is the per-slot sleep in the reap pass.
	ReapInterval Duration `yaml:"reap_interval,omitempty"`
}

// AdapterConfig holds run-completion notification defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type,omitempty"`
	URL     string            `yaml:"url,omitempty"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// StorageConfig enables an additional archival copy of the run report
// written through the lode package, alongside the local report file.
// Type == "" disables archival entirely.
type StorageConfig struct {
	// Type selects the backend: "fs" for a local Lode dataset root, or
	// "s3" for an S3-compatible object store.
	Type string `yaml:"type,omitempty"`
	// Dataset is the Lode dataset ID. Defaults to "testpool".
	Dataset string `yaml:"dataset,omitempty"`
	// Root is the dataset root directory, used when Type == "fs".
	Root string `yaml:"root,omitempty"`
	// S3Path is "bucket" or "bucket/prefix", used when Type == "s3".
	S3Path string `yaml:"s3_path,omitempty"`
	// Region is the AWS region, used when Type == "s3".
	Region string `yaml:"region,omitempty"`
	// Endpoint is a custom S3 endpoint for S3-compatible providers
	// (e.g. R2, MinIO), used when Type == "s3".
	Endpoint string `yaml:"endpoint,omitempty"`
	// UsePathStyle forces path-style S3 addressing, used when Type == "s3".
	UsePathStyle bool `yaml:"use_path_style,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "500ms").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "500ms".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
