// Package config loads client settings: defaults, an optional JSON file
// and command-line flags, in that order of precedence.
package config

import "time"

const (
	BackendRemote = "remote"
	BackendMemory = "memory"
)

// Config holds runtime settings for the Framez client.
//
// Backend selects the content and object stores: "remote" talks to the gRPC
// server and S3, "memory" keeps everything in-process.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	Backend             string
	RequestTimeout      time.Duration
	SearchDebounce      time.Duration
	OnlineCheckInterval time.Duration
	LogLevel            string

	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "framez.db"
	c.Backend = BackendRemote
	c.RequestTimeout = 10 * time.Second
	c.SearchDebounce = 300 * time.Millisecond
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "warn"
	c.S3Bucket = "post-images"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3PublicBaseURL = "http://127.0.0.1:9000"
}

// LoadConfig applies defaults, then JSON (if -c/-config is given), then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
