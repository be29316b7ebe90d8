package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/framez/internal/flagx"
)

// parseFlags overlays cfg with command-line flags.
//
//	-a string   server address
//	-d string   local database path
//	-m string   backend: remote or memory
//	-t int      request timeout, seconds
//	-i int      online check interval, seconds
//	-l string   log level
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 endpoint
//	-u string   S3 access key
//	-p string   S3 secret key
//	-o string   public base URL for uploaded images
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.Backend, "m", cfg.Backend, "backend: remote or memory")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	onlineCheck := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.S3PublicBaseURL, "o", cfg.S3PublicBaseURL, "public base URL for images")

	if err := flagx.ParseOwned(fs, os.Args[1:]); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
}
