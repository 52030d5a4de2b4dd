// Package relayconfig loads server and client configuration from
// environment variables, the teacher's own convention (no viper: it
// never used it either, see DESIGN.md).
package relayconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server is the relay node's runtime configuration.
type Server struct {
	Host           string
	Port           int
	DatabaseURL    string
	RetentionDays  int
	MaxNoteSize    int
	MaxConnections int
	RequestTimeout time.Duration
}

// LoadServer reads Server configuration from the environment,
// defaulting anything unset.
func LoadServer() Server {
	return Server{
		Host:           env("RELAY_HOST", "0.0.0.0"),
		Port:           envInt("RELAY_PORT", 8080),
		DatabaseURL:    env("RELAY_DATABASE_URL", "relay.db"),
		RetentionDays:  envInt("RELAY_RETENTION_DAYS", 30),
		MaxNoteSize:    envInt("RELAY_MAX_NOTE_SIZE", 1<<20),
		MaxConnections: envInt("RELAY_MAX_CONNECTIONS", 256),
		RequestTimeout: envDuration("RELAY_REQUEST_TIMEOUT", 10*time.Second),
	}
}

// Addr returns the host:port the gRPC listener binds. cmd/relaynode
// binds the HTTP listener on the same host at Port+1.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Client is a relay client's runtime configuration.
type Client struct {
	Endpoint    string
	Timeout     time.Duration
	DatabaseURL string
	MaxNoteSize int
}

// LoadClient reads Client configuration from the environment.
func LoadClient() Client {
	return Client{
		Endpoint:    env("RELAY_ENDPOINT", "127.0.0.1:8080"),
		Timeout:     envDuration("RELAY_CLIENT_TIMEOUT", 5*time.Second),
		DatabaseURL: env("RELAY_CLIENT_DATABASE_URL", "relay-client.db"),
		MaxNoteSize: envInt("RELAY_MAX_NOTE_SIZE", 1<<20),
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
