package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"
	spotifyapi "github.com/zmb3/spotify/v2"

	"radarsync/internal/blacklist"
	"radarsync/internal/server"
	"radarsync/internal/services"
	"radarsync/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load %s: %v", configPath, err)
		}
	}

	var spotifyService services.Service
	if client, err := newSpotifyClient(context.Background(), config); err == nil {
		spotifyService = services.NewSpotifyService(client)
	} else {
		logger.Debugf("spotify client unavailable: %v", err)
	}

	var store blacklist.Store
	if fileStore, err := blacklist.Load(config.Blacklist.Path); err == nil {
		store = fileStore
	} else {
		logger.Warnf("failed to load blacklist: %v", err)
		store = blacklist.NewMemStore()
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Store:      store,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "radarsync",
		Usage:    "Mirror Release Radar into a whole-album playlist",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

// newSpotifyClient builds an authenticated client from the persisted token.
// The oauth2 token source refreshes expired access tokens transparently.
func newSpotifyClient(ctx context.Context, config *shared.Config) (*spotifyapi.Client, error) {
	token, err := server.LoadToken(config.Credentials.Spotify.TokenPath)
	if err != nil {
		return nil, err
	}

	auth := newAuthenticator(config)
	return spotifyapi.New(auth.Client(ctx, token)), nil
}
