package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/urfave/cli/v3"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"radarsync/internal/server"
	"radarsync/internal/shared"
)

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect URI's address, opens the browser
// for user authorization, exchanges the code and persists the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml or the environment", shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(newAuthenticator(r.config), "authorization")
	if err != nil {
		return err
	}

	if err := server.SaveToken(creds.TokenPath, token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", creds.TokenPath)
	r.writePlain("You can now use: radarsync update\n")

	return nil
}

// AuthStatus reports whether a usable token is persisted.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	tokenPath := r.config.Credentials.Spotify.TokenPath

	token, err := server.LoadToken(tokenPath)
	if err != nil {
		r.writePlain("✗ Not authenticated (%v)\n", err)
		r.writePlain("Run 'radarsync auth login' to authenticate.\n")
		return nil
	}

	r.writePlain("✓ Token found at %s\n", tokenPath)
	if token.RefreshToken != "" {
		r.writePlain("Refresh: ✓ Refresh token present\n")
	} else {
		r.writePlain("Refresh: ✗ No refresh token; expect to re-authenticate\n")
	}

	switch {
	case token.Expiry.IsZero():
		r.writePlain("Expiry: unknown\n")
	case token.Valid():
		r.writePlain("Expiry: valid until %s\n", token.Expiry.Format(time.RFC3339))
	default:
		r.writePlain("Expiry: expired at %s (refreshed automatically on next use)\n", token.Expiry.Format(time.RFC3339))
	}

	return nil
}

// newAuthenticator builds the Spotify OAuth authenticator with the scopes the
// reconciler needs: playlist reads and writes, follows, and the library.
func newAuthenticator(config *shared.Config) *spotifyauth.Authenticator {
	creds := config.Credentials.Spotify
	return spotifyauth.New(
		spotifyauth.WithRedirectURL(creds.RedirectURI),
		spotifyauth.WithClientID(creds.ClientID),
		spotifyauth.WithClientSecret(creds.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopeUserFollowRead,
			spotifyauth.ScopeUserLibraryRead,
		),
	)
}

// listenAddr derives the callback server address from the redirect URI.
func listenAddr(redirectURI string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: redirect_uri: %v", shared.ErrInvalidConfig, err)
	}
	if u.Port() == "" {
		return "", fmt.Errorf("%w: redirect_uri must include an explicit port", shared.ErrInvalidConfig)
	}
	return u.Host, nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(auth *spotifyauth.Authenticator, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := auth.AuthURL(state)
	oauthHandler := server.NewOAuthHandler(auth, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr, err := listenAddr(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return nil, err
	}
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
