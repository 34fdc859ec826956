package svcwrap

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override file settings,
// e.g. SVCWRAP_PORT or SVCWRAP_MIRROR_URL.
const EnvPrefix = "SVCWRAP_"

// FileConfig is the on-disk form of an InstanceConfig.
// Precedence: environment > file > defaults.
type FileConfig struct {
	Port                   string            `koanf:"port"`
	URL                    string            `koanf:"url"`
	MirrorURL              string            `koanf:"mirror_url"`
	ChecksumURL            string            `koanf:"checksum_url"`
	DownloadPath           string            `koanf:"download_path"`
	Checksum               string            `koanf:"checksum"`
	Managed                bool              `koanf:"managed"`
	IgnoreChecksumMismatch bool              `koanf:"ignore_checksum_mismatch"`
	ProcessArgs            map[string]string `koanf:"process_args"`
	Env                    map[string]string `koanf:"env"`
	Runtime                string            `koanf:"runtime"`
	PortFlag               string            `koanf:"port_flag"`
	InstanceDir            string            `koanf:"instance_dir"`
	VersionFile            string            `koanf:"version_file"`
	TempDir                string            `koanf:"temp_dir"`
	PollInterval           time.Duration     `koanf:"poll_interval"`
	StartTimeout           time.Duration     `koanf:"start_timeout"`
	StopTimeout            time.Duration     `koanf:"stop_timeout"`
	HealthTimeout          time.Duration     `koanf:"health_timeout"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Port:          DefaultPort,
		Managed:       true,
		Runtime:       DefaultRuntime,
		PortFlag:      DefaultPortFlag,
		TempDir:       os.TempDir(),
		PollInterval:  DefaultPollInterval,
		StartTimeout:  DefaultStartTimeout,
		StopTimeout:   DefaultStopTimeout,
		HealthTimeout: DefaultHealthTimeout,
	}
}

// LoadConfigFile reads defaults, then the YAML file at path (skipped when
// path is empty), then SVCWRAP_* environment variables.
func LoadConfigFile(path string) (FileConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultFileConfig(), "koanf"), nil); err != nil {
		return FileConfig{}, &OpError{Op: OpConfig, Err: fmt.Errorf("loading defaults: %w", err)}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return FileConfig{}, &OpError{Op: OpConfig, Path: path, Err: err}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return FileConfig{}, &OpError{Op: OpConfig, Err: fmt.Errorf("loading environment: %w", err)}
	}

	var fc FileConfig
	if err := k.Unmarshal("", &fc); err != nil {
		return FileConfig{}, &OpError{Op: OpConfig, Path: path, Err: err}
	}
	return fc, nil
}

// envKey maps SVCWRAP_MIRROR_URL to mirror_url
func envKey(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

// Options converts the file settings into InstanceConfig options
func (fc FileConfig) Options() []Option {
	return []Option{
		WithPort(fc.Port),
		WithURL(fc.URL),
		WithMirrorURL(fc.MirrorURL),
		WithChecksumURL(fc.ChecksumURL),
		WithDownloadPath(fc.DownloadPath),
		WithChecksum(fc.Checksum),
		WithManaged(fc.Managed),
		WithIgnoreChecksumMismatch(fc.IgnoreChecksumMismatch),
		WithProcessArgs(fc.ProcessArgs),
		WithEnvMap(fc.Env),
		WithRuntime(fc.Runtime),
		WithPortFlag(fc.PortFlag),
		WithInstanceDir(fc.InstanceDir),
		WithVersionFile(fc.VersionFile),
		WithTempDir(fc.TempDir),
		WithPollInterval(fc.PollInterval),
		WithStartTimeout(fc.StartTimeout),
		WithStopTimeout(fc.StopTimeout),
		WithHealthTimeout(fc.HealthTimeout),
	}
}
