package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the video/voice bridge service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	ApplicationID string
	PrivateKey    []byte

	VideoAPIBaseURL         string
	ConversationsAPIBaseURL string
	ClientTokenTTL          time.Duration

	// SIP conference bridge the video session is dialed into.
	ConferenceNumber  string
	SIPBridgeURI      string
	SIPBridgeUsername string
	SIPBridgePassword string
	SIPBridgeSecure   bool
}

// ErrMissingCredentials is returned when the Vonage application id or
// private key is absent; main prints a setup hint for this case.
var ErrMissingCredentials = fmt.Errorf("missing Vonage application id and/or private key")

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:        envOrDefault("APP_METRICS_NAMESPACE", "roombridge"),
		ApplicationID:           stringsTrimSpace("API_APPLICATION_ID"),
		VideoAPIBaseURL:         envOrDefault("VIDEO_API_BASE_URL", "https://video.api.vonage.com"),
		ConversationsAPIBaseURL: envOrDefault("CONVERSATIONS_API_BASE_URL", "https://api.nexmo.com"),
		ConferenceNumber:        stringsTrimSpace("CONFERENCE_NUMBER"),
		SIPBridgeURI:            stringsTrimSpace("SIP_BRIDGE_URI"),
		SIPBridgeUsername:       stringsTrimSpace("SIP_BRIDGE_USERNAME"),
		SIPBridgePassword:       stringsTrimSpace("SIP_BRIDGE_PASSWORD"),
		SIPBridgeSecure:         true,
		ClientTokenTTL:          24 * time.Hour,
		ShutdownTimeout:         15 * time.Second,
	}

	if key := os.Getenv("PRIVATE_KEY"); key != "" {
		cfg.PrivateKey = []byte(key)
	} else if key64 := stringsTrimSpace("PRIVATE_KEY64"); key64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(key64)
		if err != nil {
			return Config{}, fmt.Errorf("PRIVATE_KEY64 decode error: %w", err)
		}
		cfg.PrivateKey = decoded
	}

	if cfg.ApplicationID == "" || len(cfg.PrivateKey) == 0 {
		return Config{}, ErrMissingCredentials
	}

	if cfg.SIPBridgeURI == "" && cfg.ConferenceNumber != "" {
		cfg.SIPBridgeURI = "sip:" + cfg.ConferenceNumber + "@sip.nexmo.com"
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ClientTokenTTL, err = durationFromEnv("APP_CLIENT_TOKEN_TTL", cfg.ClientTokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.SIPBridgeSecure, err = boolFromEnv("SIP_BRIDGE_SECURE", cfg.SIPBridgeSecure)
	if err != nil {
		return Config{}, err
	}

	if cfg.ClientTokenTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_CLIENT_TOKEN_TTL must be at least 1m")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
}
