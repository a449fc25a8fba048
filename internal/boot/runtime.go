// Package boot provides runtime configuration and dependency wiring for the API server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/picrelay/picrelay/internal/config"
)

// RuntimeConfig holds parsed runtime settings (JWT, server address, image store).
// Values may be overridden by environment variables (e.g. HTTP_ADDR,
// ACCESS_TOKEN_SECRET, IMAGE_STORE_URL, IMAGE_STORE_TOKEN).
type RuntimeConfig struct {
	JWTSecret       string
	JWTExpiresIn    time.Duration
	ServerAddr      string
	ImageStoreURL   string
	ImageStoreToken string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	ret := &RuntimeConfig{
		JWTSecret:       cfg.Auth.JWTSecret,
		ServerAddr:      cfg.Server.Addr,
		ImageStoreURL:   cfg.ImageStore.BaseURL,
		ImageStoreToken: cfg.ImageStore.Token,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("ACCESS_TOKEN_SECRET"); value != "" {
		ret.JWTSecret = value
	}
	if value := os.Getenv("IMAGE_STORE_URL"); value != "" {
		ret.ImageStoreURL = value
	}
	if value := os.Getenv("IMAGE_STORE_TOKEN"); value != "" {
		ret.ImageStoreToken = value
	}

	if strings.TrimSpace(ret.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if strings.TrimSpace(ret.ImageStoreToken) == "" {
		return nil, errors.New("image store token is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}
	ret.JWTExpiresIn = jwtExpiresIn

	return ret, nil
}
