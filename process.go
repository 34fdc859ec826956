package svcwrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/axondata/go-svcwrap/internal/unix"
)

// runningProcess is a spawned service process owned by one Supervisor
type runningProcess struct {
	cmd    *exec.Cmd
	pid    int
	output *lineWriter

	// exited is closed by the reaper once Wait returns; err is valid afterwards
	exited chan struct{}
	err    error
}

// spawn launches `<runtime> -jar <artifact> [-flag value]...` with stdout and
// stderr joined into a single stream.
func spawn(cfg InstanceConfig, artifactPath string, log zerolog.Logger) (*runningProcess, error) {
	cmd := exec.Command(cfg.Runtime, processArgs(cfg, artifactPath)...)
	cmd.Env = mergeEnv(os.Environ(), cfg.Env)
	cmd.SysProcAttr = unix.SysProcAttr()

	p := &runningProcess{cmd: cmd, exited: make(chan struct{})}

	if cfg.Output != nil {
		cmd.Stdout = cfg.Output
		cmd.Stderr = cfg.Output
	} else {
		p.output = newLineWriter(log)
		cmd.Stdout = p.output
		cmd.Stderr = p.output
	}

	if err := cmd.Start(); err != nil {
		return nil, &OpError{Op: OpSpawn, Path: cfg.Runtime, Err: err}
	}

	p.pid = cmd.Process.Pid
	if p.output != nil {
		p.output.pid.Store(int64(p.pid))
	}

	go func() {
		p.err = cmd.Wait()
		if p.output != nil {
			p.output.Flush()
		}
		close(p.exited)
	}()

	return p, nil
}

// alive reports whether the reaper has not yet seen the process exit
func (p *runningProcess) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// kill sends SIGKILL to the process group, falling back to the process itself.
// A process that already exited is not an error.
func (p *runningProcess) kill() error {
	if !p.alive() {
		return nil
	}

	if err := unix.KillGroup(p.pid); err == nil {
		return nil
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// wait blocks until the reaper observes exit, ctx is done, or timeout elapses.
// A zero timeout waits on ctx alone.
func (p *runningProcess) wait(ctx context.Context, timeout time.Duration) bool {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-p.exited:
		return true
	case <-ctx.Done():
		return false
	case <-expired:
		return false
	}
}

// processArgs builds the runtime argument list. ProcessArgs are emitted in
// sorted flag order, with the port flag always reflecting cfg.Port.
func processArgs(cfg InstanceConfig, artifactPath string) []string {
	flags := make(map[string]string, len(cfg.ProcessArgs)+1)
	for k, v := range cfg.ProcessArgs {
		flags[strings.TrimPrefix(k, "-")] = v
	}
	if cfg.PortFlag != "" {
		flags[cfg.PortFlag] = cfg.Port
	}

	names := make([]string, 0, len(flags))
	for k := range flags {
		names = append(names, k)
	}
	slices.Sort(names)

	args := []string{jarFlag, artifactPath}
	for _, name := range names {
		args = append(args, "-"+name, flags[name])
	}
	return args
}

// mergeEnv overlays extra onto base, replacing variables that already exist
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	env := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := extra[key]; ok {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// lineWriter logs the service's combined output one line at a time
type lineWriter struct {
	log zerolog.Logger
	pid atomic.Int64

	mu  sync.Mutex
	buf bytes.Buffer
}

var _ io.Writer = (*lineWriter)(nil)

func newLineWriter(log zerolog.Logger) *lineWriter {
	return &lineWriter{log: log}
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(b)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(b), nil
}

// Flush logs any trailing partial line
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	w.log.Debug().Int64("pid", w.pid.Load()).Str("output", line).Msg("service output")
}
