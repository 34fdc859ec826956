package svcwrap

// Version is the current version of the go-svcwrap library
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// Checksum is the digest algorithm used to verify artifacts
	Checksum string
	// HealthPath is the readiness endpoint probed on the service
	HealthPath string
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version:    Version,
		Checksum:   "md5",
		HealthPath: HealthPath,
	}
}
