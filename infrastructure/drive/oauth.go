package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DefaultCallbackPort is the loopback port that receives the authorization code
const DefaultCallbackPort = 8085

// OAuthConfig holds the settings for user (installed app) authentication
type OAuthConfig struct {
	// CredentialsFile is the OAuth client JSON downloaded from the Cloud console
	CredentialsFile string

	// TokenFile caches the user's token between runs
	TokenFile string

	// CallbackPort is the loopback port for the redirect; 0 means DefaultCallbackPort
	CallbackPort int

	// Output receives the authorization instructions
	Output io.Writer

	// OpenBrowser opens the authorization URL; nil uses the platform opener
	OpenBrowser func(url string) error
}

// NewClientWithOAuth creates a Drive client with read-only access to the
// user's recordings. The first run asks the user to authorize in a browser.
func NewClientWithOAuth(ctx context.Context, cfg OAuthConfig, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.driveService != nil {
		return c, nil
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(b, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}

	store := tokenStore{path: cfg.TokenFile}
	token, err := store.Load()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if token, err = authorize(ctx, oauthCfg, cfg); err != nil {
			return nil, err
		}
		if err := store.Save(token); err != nil {
			return nil, err
		}
	}

	src := &persistingTokenSource{
		base:  oauthCfg.TokenSource(ctx, token),
		store: store,
		last:  token.AccessToken,
	}
	srv, err := drive.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	c.driveService = &GoogleDriveService{service: srv}
	return c, nil
}

// tokenStore keeps the user token in a file readable only by the owner
type tokenStore struct {
	path string
}

func (s tokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}
	return token, nil
}

func (s tokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// persistingTokenSource writes every newly issued access token back to the
// store so refreshes survive the process.
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store tokenStore

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	if err := s.store.Save(token); err != nil {
		return nil, err
	}
	s.last = token.AccessToken
	return token, nil
}

// authorize runs the loopback redirect flow and exchanges the code
func authorize(ctx context.Context, oauthCfg *oauth2.Config, cfg OAuthConfig) (*oauth2.Token, error) {
	port := cfg.CallbackPort
	if port == 0 {
		port = DefaultCallbackPort
	}
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the OAuth callback: %w", err)
	}

	state := uuid.NewString()
	oauthCfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)
	authURL := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)

	output := cfg.Output
	if output == nil {
		output = io.Discard
	}
	fmt.Fprintf(output, "\nAuthorize read access to your recordings at:\n\n%s\n\n", authURL)

	open := cfg.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	if err := open(authURL); err != nil {
		fmt.Fprintln(output, "Could not open a browser; open the URL above manually.")
	}

	code, err := awaitCode(ctx, listener, state)
	if err != nil {
		return nil, err
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to exchange auth code: %w", err)
	}
	fmt.Fprintln(output, "Authorization complete.")
	return token, nil
}

// awaitCode serves /callback on listener until a request carrying the
// expected state arrives, then returns its code.
func awaitCode(ctx context.Context, listener net.Listener, state string) (string, error) {
	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	deliver := func(r result) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			deliver(result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			http.Error(w, "Authorization was denied.", http.StatusForbidden)
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		deliver(result{code: q.Get("code")})
		fmt.Fprintln(w, "gachi-analyzer is authorized. You can close this window.")
	})

	server := &http.Server{Handler: mux}
	defer server.Close()
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			deliver(result{err: err})
		}
	}()

	select {
	case r := <-results:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
