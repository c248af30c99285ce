package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotfill/internal/services"
	"github.com/desertthunder/spotfill/internal/shared"
	"github.com/desertthunder/spotfill/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	clock      tasks.Clock
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and Catalog are normally nil and resolved per command from --config.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    services.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Clock      tasks.Clock
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = tasks.SystemClock{}
	}

	return &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		clock:      opts.Clock,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, searchCommand, enrichCommand, statusCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent command output.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig resolves the configuration for a command.
//
// A config passed through [RunnerOpts] wins. Otherwise the file named by --config is loaded, falling back to the
// embedded defaults when it does not exist. Environment credentials are applied last.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	path := cmd.String("config")
	if path == "" {
		path = defaultConfigPath
	}

	var config *shared.Config
	if _, err := os.Stat(path); err == nil {
		if config, err = shared.LoadConfig(path); err != nil {
			return nil, err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	} else {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	config.ApplyEnv()
	if err := shared.ConfigureLogLevel(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}

	r.config = config
	return config, nil
}

// newCatalog returns the injected catalog, or a Spotify client built from config.
func (r *Runner) newCatalog(config *shared.Config) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	sp := config.Credentials.Spotify
	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:          sp.ClientID,
		ClientSecret:      sp.ClientSecret,
		TokenURL:          sp.TokenURL,
		APIURL:            sp.APIURL,
		Market:            config.Pipeline.Market,
		Limit:             config.Pipeline.SearchLimit,
		DefaultRetryAfter: config.Pipeline.DefaultRetryAfter(),
		HTTPClient:        r.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	return svc, nil
}

// promptLimit asks the operator how many rows to process.
//
// Anything but a positive integer, including EOF, means the whole remaining budget.
func (r *Runner) promptLimit(remaining int) int {
	r.writePlain("Enter the maximum number of tracks to retrieve (up to %d remaining): ", remaining)

	line, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Warn("failed to read answer", "error", err)
	}

	n, ok := tasks.ParseOperatorCap(line)
	if !ok {
		r.writePlain("\nNo valid limit given, processing up to %d tracks.\n", remaining)
		return 0
	}
	return n
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
