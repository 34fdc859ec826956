// Package svcwrap runs an external service binary for the duration of a unit
// of work: it downloads a versioned artifact, verifies its MD5 checksum,
// launches it on a local port and polls it until it answers, then kills it and
// waits until it stops answering.
//
// The core type is Supervisor, which owns exactly one service instance:
//
//	sup, err := svcwrap.New(
//	    svcwrap.WithMirrorURL("https://mirrors.example.org/closer.cgi/service-1.8.jar?asjson=true"),
//	    svcwrap.WithChecksumURL("https://archive.example.org/dist/service-1.8.jar.md5"),
//	    svcwrap.WithPort("9998"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = sup.Wrap(ctx, func(s *svcwrap.Supervisor) error {
//	    resp, err := http.Get(s.URL() + "version")
//	    ...
//	})
//
// Wrap guarantees Stop runs on every exit path, so no process outlives the
// callback.
//
// # Artifacts
//
// Fetcher resolves the artifact URL (explicitly, or from a mirror-selection
// endpoint returning {"preferred": ..., "path_info": ...}) and the expected
// checksum (explicitly, or from a sidecar file whose first token is the hex
// digest). A cached file whose digest matches is reused without any network
// access. Downloads land in a temporary file that is renamed into place only
// after verification.
//
// # Managed and unmanaged instances
//
// A managed instance is spawned as `<runtime> -jar <artifact> -<flag> <value>...`
// with stdout and stderr joined. An unmanaged instance is operated elsewhere;
// Status always reports true and Start/Stop never touch a process.
//
// # Bounded waits
//
// Start and Stop poll every PollInterval and give up after StartTimeout and
// StopTimeout with ErrTimeout. A zero timeout waits forever.
//
// # Errors
//
// Failures are reported as *OpError and classified by sentinel:
// ErrResolution, ErrDownload, ErrIntegrity, ErrSpawn and ErrTermination.
// Health probes never fail; they read as false.
package svcwrap
