package svcwrap

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// Artifact is a local copy of the service binary
type Artifact struct {
	// Path is where the artifact is stored
	Path string
	// Checksum is the expected MD5 hex digest
	Checksum string
	// Actual is the MD5 hex digest of the file at Path
	Actual string
	// Verified is false only when a mismatch was accepted via IgnoreChecksumMismatch
	Verified bool
	// Downloaded reports whether the network was used to produce Path
	Downloaded bool
	// Mismatch describes the accepted mismatch when Verified is false
	Mismatch *ChecksumMismatch
}

// ChecksumRecord is a resolved expected checksum and the sidecar it came from
type ChecksumRecord struct {
	// Checksum is the lower-case MD5 hex digest
	Checksum string
	// Path is the local sidecar file, empty when the checksum was configured explicitly
	Path string
}

// mirrorResponse is the document returned by the mirror-selection endpoint
type mirrorResponse struct {
	Preferred string `json:"preferred"`
	PathInfo  string `json:"path_info"`
}

// Fetcher produces a verified local copy of the artifact, downloading only
// when the cached copy is missing or does not match the expected checksum.
// Resolved URLs and checksums are memoized for the Fetcher's lifetime.
type Fetcher struct {
	cfg InstanceConfig
	log zerolog.Logger

	urlMu       sync.Mutex
	downloadURL string

	sumMu    sync.Mutex
	checksum *ChecksumRecord
}

// NewFetcher creates a Fetcher for cfg
func NewFetcher(cfg InstanceConfig) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "fetcher").Logger(),
	}
}

// ResolveDownloadURL returns the configured URL, or asks the mirror endpoint
// for a preferred mirror and joins its host and path.
func (f *Fetcher) ResolveDownloadURL(ctx context.Context) (string, error) {
	f.urlMu.Lock()
	defer f.urlMu.Unlock()

	if f.downloadURL != "" {
		return f.downloadURL, nil
	}

	if f.cfg.URL != "" {
		f.downloadURL = f.cfg.URL
		return f.downloadURL, nil
	}

	if f.cfg.MirrorURL == "" {
		return "", &OpError{Op: OpResolve, Err: errors.New("no artifact url or mirror url configured")}
	}

	resolved, err := f.queryMirror(ctx)
	if err != nil {
		return "", &OpError{Op: OpResolve, Path: f.cfg.MirrorURL, Err: err}
	}

	f.log.Debug().Str("mirror", f.cfg.MirrorURL).Str("url", resolved).Msg("resolved artifact url")
	f.downloadURL = resolved
	return f.downloadURL, nil
}

func (f *Fetcher) queryMirror(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.MirrorURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var doc mirrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding mirror response: %w", err)
	}
	if doc.Preferred == "" || doc.PathInfo == "" {
		return "", errors.New("mirror response missing preferred or path_info")
	}

	return doc.Preferred + doc.PathInfo, nil
}

// DownloadPath returns where the artifact is stored
func (f *Fetcher) DownloadPath(ctx context.Context) (string, error) {
	if f.cfg.DownloadPath != "" {
		return f.cfg.DownloadPath, nil
	}

	u, err := f.ResolveDownloadURL(ctx)
	if err != nil {
		return "", err
	}

	name, err := urlBase(u)
	if err != nil {
		return "", &OpError{Op: OpResolve, Path: u, Err: err}
	}
	return filepath.Join(f.cfg.TempDir, name), nil
}

// ChecksumURL returns the location of the checksum sidecar
func (f *Fetcher) ChecksumURL(ctx context.Context) (string, error) {
	if f.cfg.ChecksumURL != "" {
		return f.cfg.ChecksumURL, nil
	}

	u, err := f.ResolveDownloadURL(ctx)
	if err != nil {
		return "", err
	}
	return u + ChecksumSuffix, nil
}

// ChecksumPath returns where the checksum sidecar is cached
func (f *Fetcher) ChecksumPath(ctx context.Context) (string, error) {
	u, err := f.ChecksumURL(ctx)
	if err != nil {
		return "", err
	}

	name, err := urlBase(u)
	if err != nil {
		return "", &OpError{Op: OpResolve, Path: u, Err: err}
	}
	return filepath.Join(f.cfg.TempDir, name), nil
}

// InstanceDir returns the per-instance directory
func (f *Fetcher) InstanceDir(ctx context.Context) (string, error) {
	if f.cfg.InstanceDir != "" {
		return f.cfg.InstanceDir, nil
	}

	u, err := f.ResolveDownloadURL(ctx)
	if err != nil {
		return "", err
	}

	name, err := urlBase(u)
	if err != nil {
		return "", &OpError{Op: OpResolve, Path: u, Err: err}
	}
	return filepath.Join(f.cfg.TempDir, strings.TrimSuffix(name, ".jar")), nil
}

// VersionFile returns the version marker path
func (f *Fetcher) VersionFile(ctx context.Context) (string, error) {
	if f.cfg.VersionFile != "" {
		return f.cfg.VersionFile, nil
	}

	dir, err := f.InstanceDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, VersionFileName), nil
}

// ResolveChecksum returns the configured checksum, or the first token of the
// checksum sidecar. The sidecar is downloaded once and cached on disk.
func (f *Fetcher) ResolveChecksum(ctx context.Context) (ChecksumRecord, error) {
	f.sumMu.Lock()
	defer f.sumMu.Unlock()

	if f.checksum != nil {
		return *f.checksum, nil
	}

	if f.cfg.Checksum != "" {
		f.checksum = &ChecksumRecord{Checksum: strings.ToLower(strings.TrimSpace(f.cfg.Checksum))}
		return *f.checksum, nil
	}

	sidecarURL, err := f.ChecksumURL(ctx)
	if err != nil {
		return ChecksumRecord{}, err
	}
	sidecarPath, err := f.ChecksumPath(ctx)
	if err != nil {
		return ChecksumRecord{}, err
	}

	if data, err := os.ReadFile(sidecarPath); err == nil {
		sum, err := parseChecksum(data)
		if err == nil {
			f.checksum = &ChecksumRecord{Checksum: sum, Path: sidecarPath}
			return *f.checksum, nil
		}
		f.log.Warn().Err(err).Str("path", sidecarPath).Msg("discarding unusable cached checksum sidecar")
	} else if !os.IsNotExist(err) {
		return ChecksumRecord{}, &OpError{Op: OpResolve, Path: sidecarPath, Err: err}
	}

	f.log.Debug().Str("url", sidecarURL).Str("path", sidecarPath).Msg("downloading checksum sidecar")

	pf, _, err := f.fetch(ctx, sidecarURL, sidecarPath, nil)
	if err != nil {
		return ChecksumRecord{}, err
	}

	// The sidecar is only cached once it parses.
	sum, err := readPendingChecksum(pf)
	if err != nil {
		_ = pf.Cleanup()
		return ChecksumRecord{}, &OpError{Op: OpResolve, Path: sidecarURL, Err: err}
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		_ = pf.Cleanup()
		return ChecksumRecord{}, &OpError{Op: OpDownload, Path: sidecarPath, Err: err}
	}

	f.checksum = &ChecksumRecord{Checksum: sum, Path: sidecarPath}
	return *f.checksum, nil
}

func readPendingChecksum(pf *renameio.PendingFile) (string, error) {
	if _, err := pf.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	data, err := io.ReadAll(pf)
	if err != nil {
		return "", err
	}
	return parseChecksum(data)
}

// parseChecksum returns the first token of a sidecar, which must be an MD5 hex digest
func parseChecksum(data []byte) (string, error) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", errors.New("checksum sidecar is empty")
	}

	sum := strings.ToLower(fields[0])
	if b, err := hex.DecodeString(sum); err != nil || len(b) != md5.Size {
		return "", fmt.Errorf("checksum sidecar does not start with an md5 digest: %q", fields[0])
	}
	return sum, nil
}

// EnsureArtifact returns the local artifact, downloading it unless a copy with
// the expected checksum already exists. A downloaded file is only moved into
// place after verification, so concurrent readers never observe a partial or
// rejected artifact.
func (f *Fetcher) EnsureArtifact(ctx context.Context) (Artifact, error) {
	dest, err := f.DownloadPath(ctx)
	if err != nil {
		return Artifact{}, err
	}

	sum, err := f.ResolveChecksum(ctx)
	if err != nil {
		return Artifact{}, err
	}

	if _, err := os.Stat(dest); err == nil {
		actual, err := HashFile(dest)
		if err != nil {
			return Artifact{}, &OpError{Op: OpVerify, Path: dest, Err: err}
		}
		if checksumEqual(actual, sum.Checksum) {
			f.log.Debug().Str("path", dest).Msg("using cached artifact")
			return Artifact{Path: dest, Checksum: sum.Checksum, Actual: actual, Verified: true}, nil
		}
		f.log.Info().Str("path", dest).Str("actual", actual).Str("expected", sum.Checksum).Msg("cached artifact is stale")
	}

	src, err := f.ResolveDownloadURL(ctx)
	if err != nil {
		return Artifact{}, err
	}

	f.log.Info().Str("url", src).Str("path", dest).Msg("downloading artifact")

	pf, actual, err := f.fetch(ctx, src, dest, md5.New())
	if err != nil {
		return Artifact{}, err
	}

	art := Artifact{Path: dest, Checksum: sum.Checksum, Actual: actual, Verified: true, Downloaded: true}

	if !checksumEqual(actual, sum.Checksum) {
		mismatch := &ChecksumMismatch{Path: dest, Expected: sum.Checksum, Actual: actual}
		if !f.cfg.IgnoreChecksumMismatch {
			_ = pf.Cleanup()
			return Artifact{}, &OpError{Op: OpVerify, Path: dest, Err: mismatch}
		}
		f.log.Warn().Str("path", dest).Str("actual", actual).Str("expected", sum.Checksum).Msg("accepting artifact with checksum mismatch")
		art.Verified = false
		art.Mismatch = mismatch
	}

	if err := pf.CloseAtomicallyReplace(); err != nil {
		_ = pf.Cleanup()
		return Artifact{}, &OpError{Op: OpDownload, Path: dest, Err: err}
	}

	return art, nil
}

// fetch streams src into a pending file next to dest, reporting progress and
// optionally hashing the content. The caller commits or discards the file.
func (f *Fetcher) fetch(ctx context.Context, src, dest string, h hash.Hash) (*renameio.PendingFile, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", &OpError{Op: OpDownload, Path: src, Err: err}
	}

	resp, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, "", &OpError{Op: OpDownload, Path: src, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &OpError{Op: OpDownload, Path: src, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if resp.ContentLength > 0 {
		f.cfg.Progress.OnTotalKnown(resp.ContentLength)
	}

	if err := os.MkdirAll(filepath.Dir(dest), DirMode); err != nil {
		return nil, "", &OpError{Op: OpDownload, Path: dest, Err: err}
	}

	pf, err := renameio.NewPendingFile(dest, renameio.WithPermissions(FileMode))
	if err != nil {
		return nil, "", &OpError{Op: OpDownload, Path: dest, Err: err}
	}

	var w io.Writer = pf
	if h != nil {
		w = io.MultiWriter(pf, h)
	}

	if _, err := io.Copy(w, &progressReader{r: resp.Body, p: f.cfg.Progress}); err != nil {
		_ = pf.Cleanup()
		return nil, "", &OpError{Op: OpDownload, Path: src, Err: err}
	}

	var digest string
	if h != nil {
		digest = hex.EncodeToString(h.Sum(nil))
	}
	return pf, digest, nil
}

// Purge removes the downloaded artifact and the cached checksum sidecar.
// Missing files are not an error.
func (f *Fetcher) Purge(ctx context.Context) error {
	merr := &MultiError{}

	if dest, err := f.DownloadPath(ctx); err != nil {
		merr.Add(err)
	} else if err := removeIfExists(dest); err != nil {
		merr.Add(&OpError{Op: OpPurge, Path: dest, Err: err})
	}

	if !f.hasChecksumSource() {
		return merr.Err()
	}

	if sidecar, err := f.ChecksumPath(ctx); err != nil {
		// An explicit checksum needs no sidecar, so an unresolvable one is fine.
		if f.cfg.Checksum == "" || !errors.Is(err, ErrResolution) {
			merr.Add(err)
		}
	} else if err := removeIfExists(sidecar); err != nil {
		merr.Add(&OpError{Op: OpPurge, Path: sidecar, Err: err})
	}

	return merr.Err()
}

// hasChecksumSource reports whether a sidecar location can be derived at all
func (f *Fetcher) hasChecksumSource() bool {
	return f.cfg.ChecksumURL != "" || f.cfg.URL != "" || f.cfg.MirrorURL != ""
}

// HashFile returns the MD5 hex digest of the file at path
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func checksumEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// urlBase returns the last path element of a URL
func urlBase(raw string) (string, error) {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}

	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url %q has no file name", raw)
	}
	return name, nil
}
