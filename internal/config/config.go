package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr     string
	DBPath         string
	MediaRoot      string
	BaseURL        string
	SigningSecret  string
	MaxUploadBytes int64
}

func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("IMGAPI_LISTEN_ADDR", ":8080"),
		DBPath:         getEnv("IMGAPI_DB_PATH", "/data/db/imagetier.db"),
		MediaRoot:      getEnv("IMGAPI_MEDIA_ROOT", "/data/media"),
		BaseURL:        getEnv("IMGAPI_BASE_URL", "http://localhost:8080"),
		SigningSecret:  getEnv("IMGAPI_SIGNING_SECRET", ""),
		MaxUploadBytes: getEnvInt64("IMGAPI_MAX_UPLOAD_BYTES", 10<<20),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
