package main

import (
	"fmt"
	"os"
	"time"

	"github.com/choria-io/fisk"
	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/axondata/go-svcwrap"
)

const help = `Service wrapper

Downloads, verifies and supervises a single java -jar service.
Settings come from --config, then SVCWRAP_* environment variables, then flags.
`

// options holds the global flags shared by every command
type options struct {
	ConfigFile string
	Port       string
	URL        string
	Unmanaged  bool
	Verbose    bool
}

var opts = &options{}

func main() {
	bold := color.New(color.Bold).SprintFunc()

	app := fisk.New("svcwrap", fmt.Sprintf("%s\n%s", bold("svcwrap "+svcwrap.Version), help))
	app.UsageWriter(os.Stdout)
	app.Version(svcwrap.Version)
	app.HelpFlag.Short('h')

	app.Flag("config", "YAML configuration file").Short('c').Envar("SVCWRAP_CONFIG").PlaceHolder("FILE").StringVar(&opts.ConfigFile)
	app.Flag("port", "Port the service listens on").PlaceHolder("PORT").StringVar(&opts.Port)
	app.Flag("url", "Artifact download URL, bypassing the mirror lookup").PlaceHolder("URL").StringVar(&opts.URL)
	app.Flag("unmanaged", "Use an externally started service instead of spawning one").UnNegatableBoolVar(&opts.Unmanaged)
	app.Flag("verbose", "Log debug output, including the service's own output").Short('v').UnNegatableBoolVar(&opts.Verbose)

	fetch := app.Command("fetch", "Download and verify the artifact")
	fetch.Action(runFetch)

	run := app.Command("run", "Start the service and stop it on SIGINT or SIGTERM")
	run.Action(runService)

	status := app.Command("status", "Report whether the service answers its health endpoint")
	status.Action(runStatus)

	clean := app.Command("clean", "Stop the service and remove downloaded files")
	clean.Action(runClean)

	app.MustParseWithUsage(os.Args[1:])
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// newSupervisor layers the config file, environment and flags into a Supervisor
func newSupervisor(progress svcwrap.ProgressReporter) (*svcwrap.Supervisor, zerolog.Logger, error) {
	log := newLogger(opts.Verbose)

	fc, err := svcwrap.LoadConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, log, err
	}

	with := fc.Options()
	if opts.Port != "" {
		with = append(with, svcwrap.WithPort(opts.Port))
	}
	if opts.URL != "" {
		with = append(with, svcwrap.WithURL(opts.URL))
	}
	if opts.Unmanaged {
		with = append(with, svcwrap.WithManaged(false))
	}
	if progress != nil {
		with = append(with, svcwrap.WithProgress(progress))
	}
	with = append(with, svcwrap.WithLogger(log))

	s, err := svcwrap.New(with...)
	return s, log, err
}

func fail(format string, a ...any) error {
	red := color.New(color.FgRed).SprintFunc()
	return fmt.Errorf("%s %s", red("error:"), fmt.Sprintf(format, a...))
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
