// ABOUTME: OAuth authorization and logout commands
// ABOUTME: Runs a local callback listener or accepts a pasted code, then stores the credential
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	urfave "github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func authCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "auth",
		Usage: "Authorize access to Google Calendar, Gmail and Contacts",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  "code",
				Usage: "Exchange an authorization code you already have",
			},
			&urfave.BoolFlag{
				Name:  "manual",
				Usage: "Print the URL and read the code from stdin instead of listening for the callback",
			},
			&urfave.BoolFlag{
				Name:  "no-browser",
				Usage: "Do not try to open a browser",
			},
			&urfave.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the OAuth callback",
				Value: 5 * time.Minute,
			},
		},
		Action: runAuth,
	}
}

func logoutCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "logout",
		Usage: "Remove the stored credential",
		Action: func(c *urfave.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store.Clear(c.Context); err != nil {
				return fmt.Errorf("failed to clear credential: %w", err)
			}
			rt.logger.Info("Credential cleared", "token_store", rt.cfg.TokenStore)
			_, _ = fmt.Fprintf(c.App.Writer, "✓ Credential removed from the %s store\n", rt.cfg.TokenStore)
			return nil
		},
	}
}

func runAuth(c *urfave.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := c.Context
	out := c.App.Writer

	code := c.String("code")
	if code == "" {
		authURL := rt.pipeline.AuthorizationURL()
		_, _ = fmt.Fprintf(out, "\nVisit this URL to authorize meetingmate:\n%s\n\n", authURL)
		if !c.Bool("no-browser") {
			_ = openBrowser(authURL)
		}

		if c.Bool("manual") {
			code, err = promptCode(os.Stdin, out)
		} else {
			code, err = waitForCallback(ctx, rt.cfg.RedirectURI, rt.cfg.OAuthState, c.Duration("timeout"))
		}
		if err != nil {
			return err
		}
	}

	if err := rt.pipeline.Authenticate(ctx, code); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, okStyle.Render("✓ Authenticated successfully"))
	_, _ = fmt.Fprintf(out, "✓ Credential saved to the %s store\n", rt.cfg.TokenStore)
	return nil
}

// promptCode reads a pasted authorization code. Input is hidden on a terminal.
func promptCode(in *os.File, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, "Paste the authorization code: ")

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read code: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// waitForCallback listens on the redirect URI and returns the code the provider sends back.
func waitForCallback(ctx context.Context, redirectURI, state string, timeout time.Duration) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}
	return serveCallback(ctx, ln, u.Path, state, timeout)
}

func serveCallback(ctx context.Context, ln net.Listener, path, state string, timeout time.Duration) (string, error) {
	if path == "" {
		path = "/"
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization was denied.", http.StatusBadRequest)
			sendErr(errChan, fmt.Errorf("authorization denied: %s", e))
			return
		}
		if state != "" && q.Get("state") != state {
			http.Error(w, "State mismatch.", http.StatusBadRequest)
			sendErr(errChan, errors.New("state mismatch in OAuth callback"))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No authorization code received.", http.StatusBadRequest)
			sendErr(errChan, errors.New("no authorization code received"))
			return
		}
		_, _ = fmt.Fprint(w, "Authorization successful! You can close this window.")
		select {
		case codeChan <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errChan, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", fmt.Errorf("OAuth flow failed: %w", err)
	case <-timer.C:
		return "", errors.New("timed out waiting for the OAuth callback")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch goruntime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
