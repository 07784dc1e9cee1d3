package acnet

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-envparse"
	"github.com/rs/zerolog"
)

// Config configures a Connection. The default is applied for each
// unspecified value.
type Config struct {
	// URL is the wss:// (or ws://, for local testing) endpoint of the
	// ACNET gateway.
	URL string

	// DialTimeout bounds the wait for the gateway's connect ack once the
	// WebSocket is open; the WebSocket handshake itself has its own fixed
	// 10s limit in package transport. Default 10s.
	DialTimeout time.Duration

	// Backoff is the delay between a dropped connection and the next
	// reconnect attempt. Default 5s, the documented gateway interval.
	Backoff time.Duration

	// RequestTimeout is the default applied by RequestReply and
	// RequestReplyStream when the caller does not specify one.
	// Default 1s.
	RequestTimeout time.Duration

	// Logger receives structured connection and dispatch events. The
	// zero value disables logging.
	Logger zerolog.Logger

	// MetricsPrefix names the VictoriaMetrics metric family emitted by
	// this connection, e.g. "myapp_acnet". Default "acnet".
	MetricsPrefix string
}

// check applies the default for each unspecified value. It never panics;
// out-of-range durations are simply replaced, matching the permissive
// style of an optional configuration struct.
func (c Config) check() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.Backoff <= 0 {
		c.Backoff = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = time.Second
	}
	if c.MetricsPrefix == "" {
		c.MetricsPrefix = "acnet"
	}
	return c
}

// ConfigFromEnv reads KEY=VALUE pairs from r and overlays them onto base.
// Recognized keys: ACNET_URL, ACNET_DIAL_TIMEOUT, ACNET_BACKOFF,
// ACNET_REQUEST_TIMEOUT, ACNET_METRICS_PREFIX. Unrecognized keys are
// ignored. The logger is never touched; callers configure it directly.
func ConfigFromEnv(r io.Reader, base Config) (Config, error) {
	m, err := envparse.Parse(r)
	if err != nil {
		return Config{}, err
	}

	c := base
	if v, ok := m["ACNET_URL"]; ok {
		c.URL = v
	}
	if v, ok := m["ACNET_DIAL_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.DialTimeout = d
		}
	}
	if v, ok := m["ACNET_BACKOFF"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backoff = d
		}
	}
	if v, ok := m["ACNET_REQUEST_TIMEOUT"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v, ok := m["ACNET_METRICS_PREFIX"]; ok {
		c.MetricsPrefix = v
	}
	return c, nil
}

// ConfigFromEnvFile is a convenience wrapper around ConfigFromEnv that
// reads the KEY=VALUE pairs from a file, in the style of a .env file.
func ConfigFromEnvFile(path string, base Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return ConfigFromEnv(f, base)
}
