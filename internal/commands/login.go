package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"spacequest/internal/backend/restapi"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	// In supplies the password. Defaults to os.Stdin.
	In io.Reader

	// HTTPClient is used for the login request (for testing).
	HTTPClient *http.Client

	force bool
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in (password read from stdin)" }
func (c *LoginCmd) Usage() string     { return "sq login [--force] <username>" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "username required")
	}
	username := strings.TrimSpace(args[0])

	if cfg.HasToken() && !c.force {
		if _, err := cfg.LoadToken(); err == nil {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
	}

	password, err := c.readPassword(errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
		return exitcode.UserError
	}

	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultAPIURL
	}
	token, err := restapi.Login(ctx, apiURL, c.HTTPClient, username, password,
		restapi.WithTimeout(cfg.Timeout), restapi.WithLogger(cfg.Log()))
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			fmt.Fprintln(errOut, "error: invalid username or password")
			return exitcode.AuthError
		}
		if errors.Is(err, service.ErrValidation) {
			return usageError(errOut, "%v", err)
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if err := cfg.SaveToken(token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// readPassword reads one line from In. A terminal gets a prompt and no echo.
func (c *LoginCmd) readPassword(errOut io.Writer) (string, error) {
	in := c.In
	if in == nil {
		in = os.Stdin
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(errOut, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
