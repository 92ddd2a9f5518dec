package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort              string
	FirebaseProject         string
	StorageBucket           string
	Environment             string
	ServiceAccountJSON      string
	ServiceAccountPath      string
	RedisURL                string
	TriggerSecret           string
	PushBatchSize           int
	MaxUploadBytes          int64
	TriggerDedupeTTLSeconds int
}

func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GOLDMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names are what the deployment scripts already export.
	for key, env := range map[string]string{
		"server_port":                   "SERVER_PORT",
		"firebase_project_id":           "FIREBASE_PROJECT_ID",
		"storage_bucket":                "STORAGE_BUCKET",
		"environment":                   "ENVIRONMENT",
		"firebase_service_account_json": "FIREBASE_SERVICE_ACCOUNT_JSON",
		"firebase_service_account_path": "FIREBASE_SERVICE_ACCOUNT_PATH",
		"redis_url":                     "REDIS_URL",
		"trigger_secret":                "TRIGGER_SECRET",
		"push_batch_size":               "PUSH_BATCH_SIZE",
		"max_upload_bytes":              "MAX_UPLOAD_BYTES",
		"trigger_dedupe_ttl_seconds":    "TRIGGER_DEDUPE_TTL_SECONDS",
	} {
		if err := v.BindEnv(key, "GOLDMARKET_"+strings.ToUpper(key), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("server_port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("push_batch_size", 500)
	v.SetDefault("max_upload_bytes", 5*1024*1024)
	v.SetDefault("trigger_dedupe_ttl_seconds", 24*60*60)

	cfg := &Config{
		ServerPort:              v.GetString("server_port"),
		FirebaseProject:         v.GetString("firebase_project_id"),
		StorageBucket:           v.GetString("storage_bucket"),
		Environment:             v.GetString("environment"),
		ServiceAccountJSON:      v.GetString("firebase_service_account_json"),
		ServiceAccountPath:      v.GetString("firebase_service_account_path"),
		RedisURL:                v.GetString("redis_url"),
		TriggerSecret:           v.GetString("trigger_secret"),
		PushBatchSize:           v.GetInt("push_batch_size"),
		MaxUploadBytes:          v.GetInt64("max_upload_bytes"),
		TriggerDedupeTTLSeconds: v.GetInt("trigger_dedupe_ttl_seconds"),
	}

	// FCM rejects multicasts above 500 tokens.
	if cfg.PushBatchSize <= 0 || cfg.PushBatchSize > 500 {
		cfg.PushBatchSize = 500
	}

	if cfg.FirebaseProject == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID must be set")
	}

	if !cfg.IsDevelopment() && cfg.TriggerSecret == "" {
		return nil, fmt.Errorf("TRIGGER_SECRET must be set outside development")
	}

	return cfg, nil
}
