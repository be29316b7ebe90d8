package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	envEndpointAddrGRPC = "FRAMEZ_GRPC_ADDR"
	envDatabaseDSN      = "FRAMEZ_DATABASE_DSN"
	envSecretKey        = "FRAMEZ_SECRET_KEY"
	envAccessTokenTTL   = "FRAMEZ_ACCESS_TOKEN_TTL"
	envLogLevel         = "FRAMEZ_LOG_LEVEL"
)

// parseEnv overlays FRAMEZ_* environment variables. dotenvPath is loaded
// first if it exists; variables already set in the process win over it.
// A malformed duration panics, like a malformed JSON file does.
func parseEnv(config *Config, dotenvPath string) {
	if _, err := os.Stat(dotenvPath); err == nil {
		if err := godotenv.Load(dotenvPath); err != nil {
			panic(err)
		}
	}

	if v, ok := os.LookupEnv(envEndpointAddrGRPC); ok {
		config.EndpointAddrGRPC = v
	}
	if v, ok := os.LookupEnv(envDatabaseDSN); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv(envSecretKey); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv(envAccessTokenTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		config.LogLevel = v
	}
}
