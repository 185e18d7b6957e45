package models

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIURL        = "https://blog-platform-qqqt.vercel.app"
	DefaultDeleteAPIURL  = "https://blog-platform-frrq.vercel.app"
	DefaultReportsAPIURL = "https://blog-platform-n1a2.vercel.app"
	DefaultMaxImageBytes = 5 * 1024 * 1024
)

type EnvConfig struct {
	Port          string
	Debug         bool
	APIURL        string
	DeleteAPIURL  string
	ReportsAPIURL string
	APITimeout    time.Duration
	DatabaseURL   string
	MaxImageBytes int64
}

func ReadEnvConfig() EnvConfig {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found")
	}
	debug := os.Getenv("BLOGMOD_DEBUG") == "true"
	port := getEnv("BLOGMOD_PORT", "23496")

	timeout, err := time.ParseDuration(os.Getenv("BLOGMOD_API_TIMEOUT"))
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxImage, err := strconv.ParseInt(os.Getenv("BLOGMOD_MAX_IMAGE_BYTES"), 10, 64)
	if err != nil || maxImage <= 0 {
		maxImage = DefaultMaxImageBytes
	}

	return EnvConfig{
		Port:          port,
		Debug:         debug,
		APIURL:        getEnv("BLOGMOD_API_URL", DefaultAPIURL),
		DeleteAPIURL:  getEnv("BLOGMOD_DELETE_API_URL", DefaultDeleteAPIURL),
		ReportsAPIURL: getEnv("BLOGMOD_REPORTS_API_URL", DefaultReportsAPIURL),
		APITimeout:    timeout,
		DatabaseURL:   os.Getenv("BLOGMOD_DATABASE_URL"),
		MaxImageBytes: maxImage,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
