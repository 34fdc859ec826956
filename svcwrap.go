package svcwrap

import (
	"time"
)

// Defaults applied by NewConfig
const (
	// DefaultPort is the port the supervised service is told to bind
	DefaultPort = "9998"

	// DefaultRuntime is the launcher used for the artifact (`<runtime> -jar <artifact>`)
	DefaultRuntime = "java"

	// DefaultPortFlag is the process flag carrying the port
	DefaultPortFlag = "p"

	// DefaultPollInterval is the delay between readiness polls
	DefaultPollInterval = 1 * time.Second

	// DefaultStartTimeout bounds how long Start waits for the service to answer
	DefaultStartTimeout = 2 * time.Minute

	// DefaultStopTimeout bounds how long Stop waits for the service to go away
	DefaultStopTimeout = 30 * time.Second

	// DefaultHealthTimeout is the timeout of a single health probe
	DefaultHealthTimeout = 1 * time.Second

	// DefaultDownloadTimeout bounds a single mirror, sidecar or artifact request
	DefaultDownloadTimeout = 10 * time.Minute
)

// Protocol constants
const (
	// HealthPath is requested relative to URL() to probe readiness
	HealthPath = "version"

	// ChecksumSuffix is appended to the artifact URL to locate the checksum sidecar
	ChecksumSuffix = ".md5"

	// VersionFileName is the version marker inside the instance directory
	VersionFileName = "VERSION"

	// jarFlag precedes the artifact path on the runtime command line
	jarFlag = "-jar"
)

// File modes
const (
	// DirMode is the default mode for created directories
	DirMode = 0o755

	// FileMode is the default mode for downloaded files
	FileMode = 0o644
)

// Operation identifies the step of the lifecycle an error came from
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpResolve resolves the artifact URL or expected checksum
	OpResolve
	// OpDownload fetches the artifact or the checksum sidecar
	OpDownload
	// OpVerify compares the artifact digest with the expected checksum
	OpVerify
	// OpSpawn launches the service process
	OpSpawn
	// OpStart waits for the spawned service to become ready
	OpStart
	// OpKill signals the service process
	OpKill
	// OpStop waits for the service to stop answering
	OpStop
	// OpStatus probes the service health endpoint
	OpStatus
	// OpPurge removes downloaded files
	OpPurge
	// OpConfig validates or loads configuration
	OpConfig
)

// Operation string constants
const (
	opUnknownStr  = "unknown"
	opResolveStr  = "resolve"
	opDownloadStr = "download"
	opVerifyStr   = "verify"
	opSpawnStr    = "spawn"
	opStartStr    = "start"
	opKillStr     = "kill"
	opStopStr     = "stop"
	opStatusStr   = "status"
	opPurgeStr    = "purge"
	opConfigStr   = "config"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpResolve:
		return opResolveStr
	case OpDownload:
		return opDownloadStr
	case OpVerify:
		return opVerifyStr
	case OpSpawn:
		return opSpawnStr
	case OpStart:
		return opStartStr
	case OpKill:
		return opKillStr
	case OpStop:
		return opStopStr
	case OpStatus:
		return opStatusStr
	case OpPurge:
		return opPurgeStr
	case OpConfig:
		return opConfigStr
	default:
		return opUnknownStr
	}
}

// category returns the sentinel error an Operation's failures are classified under
func (op Operation) category() error {
	switch op {
	case OpResolve:
		return ErrResolution
	case OpDownload:
		return ErrDownload
	case OpVerify:
		return ErrIntegrity
	case OpSpawn:
		return ErrSpawn
	case OpKill:
		return ErrTermination
	case OpConfig:
		return ErrInvalidConfig
	default:
		return nil
	}
}
