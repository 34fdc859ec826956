package svcwrap

import (
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// InstanceConfig holds everything needed to fetch and run one service instance.
// Values derived from the network (download URL, checksum) are resolved lazily
// by the Fetcher and memoized there; the config itself is never mutated after
// construction.
type InstanceConfig struct {
	// Port is the port passed to the service and used to build URL()
	Port string

	// URL overrides the artifact download URL
	URL string

	// MirrorURL is queried for a preferred mirror when URL is empty
	MirrorURL string

	// ChecksumURL locates the checksum sidecar; defaults to the artifact URL plus ChecksumSuffix
	ChecksumURL string

	// DownloadPath overrides where the artifact is stored
	DownloadPath string

	// Checksum overrides the expected MD5 hex digest
	Checksum string

	// Managed means the supervisor owns the process; when false it only reports status
	Managed bool

	// IgnoreChecksumMismatch accepts an artifact whose digest does not match
	IgnoreChecksumMismatch bool

	// ProcessArgs are passed to the service as `-name value` pairs
	ProcessArgs map[string]string

	// Env is merged over the current environment for the service process
	Env map[string]string

	// Runtime is the launcher executable
	Runtime string

	// PortFlag is the flag name used to pass Port to the service
	PortFlag string

	// InstanceDir is reserved for per-instance state; nothing is written there yet
	InstanceDir string

	// VersionFile is reserved as a version marker; nothing is written there yet
	VersionFile string

	// TempDir is the base directory for default download and sidecar paths
	TempDir string

	// PollInterval is the delay between readiness polls
	PollInterval time.Duration

	// StartTimeout bounds Start's readiness wait; zero waits forever
	StartTimeout time.Duration

	// StopTimeout bounds Stop's shutdown wait; zero waits forever
	StopTimeout time.Duration

	// HealthTimeout is the timeout of a single health probe
	HealthTimeout time.Duration

	// HTTPClient performs mirror, sidecar and artifact requests
	HTTPClient *http.Client

	// Logger receives lifecycle and subprocess output logs
	Logger zerolog.Logger

	// Progress is notified while downloading
	Progress ProgressReporter

	// Output receives the combined stdout and stderr of the service; nil logs it at debug level
	Output io.Writer
}

// Option configures an InstanceConfig
type Option func(*InstanceConfig)

// WithPort sets the service port
func WithPort(port string) Option {
	return func(c *InstanceConfig) {
		c.Port = port
	}
}

// WithURL sets an explicit artifact download URL
func WithURL(url string) Option {
	return func(c *InstanceConfig) {
		c.URL = url
	}
}

// WithMirrorURL sets the mirror-selection endpoint
func WithMirrorURL(url string) Option {
	return func(c *InstanceConfig) {
		c.MirrorURL = url
	}
}

// WithChecksumURL sets the checksum sidecar URL
func WithChecksumURL(url string) Option {
	return func(c *InstanceConfig) {
		c.ChecksumURL = url
	}
}

// WithDownloadPath sets where the artifact is stored
func WithDownloadPath(path string) Option {
	return func(c *InstanceConfig) {
		c.DownloadPath = path
	}
}

// WithChecksum sets the expected MD5 hex digest
func WithChecksum(sum string) Option {
	return func(c *InstanceConfig) {
		c.Checksum = sum
	}
}

// WithManaged controls whether the supervisor owns the process
func WithManaged(managed bool) Option {
	return func(c *InstanceConfig) {
		c.Managed = managed
	}
}

// WithIgnoreChecksumMismatch accepts artifacts that fail verification
func WithIgnoreChecksumMismatch(ignore bool) Option {
	return func(c *InstanceConfig) {
		c.IgnoreChecksumMismatch = ignore
	}
}

// WithProcessArg adds a `-name value` argument for the service
func WithProcessArg(name, value string) Option {
	return func(c *InstanceConfig) {
		c.ProcessArgs[name] = value
	}
}

// WithProcessArgs merges a set of service arguments
func WithProcessArgs(args map[string]string) Option {
	return func(c *InstanceConfig) {
		maps.Copy(c.ProcessArgs, args)
	}
}

// WithEnv adds an environment variable for the service
func WithEnv(key, value string) Option {
	return func(c *InstanceConfig) {
		c.Env[key] = value
	}
}

// WithEnvMap merges a set of environment variables for the service
func WithEnvMap(env map[string]string) Option {
	return func(c *InstanceConfig) {
		maps.Copy(c.Env, env)
	}
}

// WithRuntime sets the launcher executable
func WithRuntime(runtime string) Option {
	return func(c *InstanceConfig) {
		c.Runtime = runtime
	}
}

// WithPortFlag sets the flag name used to pass the port
func WithPortFlag(flag string) Option {
	return func(c *InstanceConfig) {
		c.PortFlag = flag
	}
}

// WithInstanceDir sets the instance directory
func WithInstanceDir(dir string) Option {
	return func(c *InstanceConfig) {
		c.InstanceDir = dir
	}
}

// WithVersionFile sets the version marker path
func WithVersionFile(path string) Option {
	return func(c *InstanceConfig) {
		c.VersionFile = path
	}
}

// WithTempDir sets the base directory for default paths
func WithTempDir(dir string) Option {
	return func(c *InstanceConfig) {
		c.TempDir = dir
	}
}

// WithPollInterval sets the delay between readiness polls
func WithPollInterval(d time.Duration) Option {
	return func(c *InstanceConfig) {
		c.PollInterval = d
	}
}

// WithStartTimeout bounds Start's readiness wait; zero waits forever
func WithStartTimeout(d time.Duration) Option {
	return func(c *InstanceConfig) {
		c.StartTimeout = d
	}
}

// WithStopTimeout bounds Stop's shutdown wait; zero waits forever
func WithStopTimeout(d time.Duration) Option {
	return func(c *InstanceConfig) {
		c.StopTimeout = d
	}
}

// WithHealthTimeout sets the timeout of a single health probe
func WithHealthTimeout(d time.Duration) Option {
	return func(c *InstanceConfig) {
		c.HealthTimeout = d
	}
}

// WithHTTPClient sets the client used for downloads
func WithHTTPClient(client *http.Client) Option {
	return func(c *InstanceConfig) {
		c.HTTPClient = client
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *InstanceConfig) {
		c.Logger = logger
	}
}

// WithProgress sets the download progress reporter
func WithProgress(p ProgressReporter) Option {
	return func(c *InstanceConfig) {
		c.Progress = p
	}
}

// WithOutput sets the writer receiving the service's combined output
func WithOutput(w io.Writer) Option {
	return func(c *InstanceConfig) {
		c.Output = w
	}
}

// NewConfig creates an InstanceConfig with default settings and applies opts
func NewConfig(opts ...Option) InstanceConfig {
	c := InstanceConfig{
		Port:          DefaultPort,
		Managed:       true,
		ProcessArgs:   make(map[string]string),
		Env:           make(map[string]string),
		Runtime:       DefaultRuntime,
		PortFlag:      DefaultPortFlag,
		TempDir:       os.TempDir(),
		PollInterval:  DefaultPollInterval,
		StartTimeout:  DefaultStartTimeout,
		StopTimeout:   DefaultStopTimeout,
		HealthTimeout: DefaultHealthTimeout,
		Logger:        zerolog.Nop(),
		Progress:      NopProgress{},
	}

	for _, opt := range opts {
		opt(&c)
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: DefaultDownloadTimeout}
	}
	if c.Progress == nil {
		c.Progress = NopProgress{}
	}

	return c
}

// Validate reports configuration that cannot work
func (c InstanceConfig) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return &OpError{Op: OpConfig, Path: c.Port, Err: fmt.Errorf("port must be in 1..65535")}
	}
	if c.PollInterval <= 0 {
		return &OpError{Op: OpConfig, Path: c.PollInterval.String(), Err: fmt.Errorf("poll interval must be positive")}
	}
	if c.StartTimeout < 0 || c.StopTimeout < 0 {
		return &OpError{Op: OpConfig, Err: fmt.Errorf("timeouts must not be negative")}
	}
	if c.URL == "" && c.MirrorURL == "" && c.DownloadPath == "" {
		return &OpError{Op: OpConfig, Err: fmt.Errorf("one of url, mirror url or download path is required")}
	}
	if c.Managed && c.Runtime == "" {
		return &OpError{Op: OpConfig, Err: fmt.Errorf("runtime is required for a managed instance")}
	}
	return nil
}

// BaseURL returns the loopback URL the service is expected to listen on
func (c InstanceConfig) BaseURL() string {
	return "http://127.0.0.1:" + c.Port + "/"
}
