package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/framez/internal/flagx"
	"github.com/dmitrijs2005/framez/internal/timex"
)

// JsonConfig is the on-disk shape of the client config file. Absent keys
// leave the current value alone.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	DatabasePath       *string         `json:"database_path"`
	Backend            *string         `json:"backend"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	SearchDebounce     *timex.Duration `json:"search_debounce"`
	OnlineCheck        *timex.Duration `json:"online_check_interval"`
	LogLevel           *string         `json:"log_level"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	S3AccessKey        *string         `json:"s3_access_key"`
	S3SecretKey        *string         `json:"s3_secret_key"`
	S3PublicBaseURL    *string         `json:"s3_public_base_url"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays cfg with the file named by -c/-config. Read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.SearchDebounce != nil {
		cfg.SearchDebounce = jc.SearchDebounce.Duration
	}
	if jc.OnlineCheck != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheck.Duration
	}
}
