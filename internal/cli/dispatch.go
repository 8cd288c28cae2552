package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"spacequest/internal/commands"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/logging"
	"spacequest/internal/service"
)

// DefaultCommand runs when sq is invoked without arguments.
const DefaultCommand = "status"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	name, rest := DefaultCommand, []string(nil)
	if len(args) > 0 {
		name, rest = args[0], args[1:]
	}

	// Flags require a command.
	if strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, rest, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	apiURL    string
	quiet     bool
	debug     bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "")
	fs.StringVar(&f.apiURL, "api-url", "", "")
	fs.BoolVar(&f.quiet, "quiet", false, "")
	fs.BoolVar(&f.debug, "debug", false, "")
}

// load builds the config and applies the flags on top of file and env settings.
func (f *commonFlags) load(name string, errOut io.Writer) (*config.Config, error) {
	cfg, err := config.New(f.configDir)
	if err != nil {
		return nil, err
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	cfg.Quiet = f.quiet
	cfg.Debug = f.debug
	cfg.Logger = logging.New(f.debug, errOut).Named(name)
	return cfg, nil
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// A leftover leading dash means a flag the parser stopped before.
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg, err := common.load(cmd.Name(), errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	defer func() { _ = cfg.Logger.Sync() }()
	cfg.Logger.Debug("dispatch", zap.String("config_dir", cfg.Dir), zap.String("api_url", cfg.APIURL),
		zap.Strings("args", positional))

	var svc service.Service
	if cmd.NeedsAuth() {
		svc, err = d.connect(ctx, cfg)
		if err != nil {
			if isAuthError(err) {
				fmt.Fprintf(errOut, "error: %s\n", err)
				return exitcode.AuthError
			}
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	return cmd.Run(ctx, cfg, svc, positional, out, errOut)
}

// connect builds the service for a command that needs a session.
func (d *Dispatcher) connect(ctx context.Context, cfg *config.Config) (service.Service, error) {
	if d.factory == nil {
		// Pre-flight only: commands run with a nil service.
		if !cfg.HasToken() {
			return nil, errNotLoggedIn
		}
		return nil, nil
	}
	svc, err := d.factory(ctx, cfg)
	if err != nil && isAuthError(err) && !errors.Is(err, errNotLoggedIn) {
		return nil, fmt.Errorf("auth error: %w", err)
	}
	return svc, err
}

var errNotLoggedIn = errors.New("not logged in (run: sq login)")

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		return "flag needs an argument: " + strings.TrimSpace(msg[strings.LastIndex(msg, ":")+1:])
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		return "unknown flag: " + strings.TrimSpace(strings.TrimPrefix(msg, "flag provided but not defined:"))
	default:
		return msg
	}
}

// isAuthError reports whether a factory error means the session is unusable.
func isAuthError(err error) bool {
	if errors.Is(err, errNotLoggedIn) || errors.Is(err, service.ErrUnauthorized) || errors.Is(err, os.ErrNotExist) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "token") || strings.Contains(msg, "auth")
}
