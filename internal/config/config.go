package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries all runtime settings, sourced from environment variables.
type Config struct {
	AppEnv           string
	LogLevel         string
	MetricsNamespace string

	HTTPListenAddr string
	PublicBaseURL  string
	PublicBasePath string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	GroqTimeout time.Duration

	SignalWireProjectID string
	SignalWireAPIToken  string
	SignalWireSpaceURL  string
	SignalWireCallerID  string
	SignalWireTimeout   time.Duration

	TTSBaseURL   string
	TTSSpeakerID string
	TTSTimeout   time.Duration
	TTSOutputDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	ReplyDedupeTTL time.Duration
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "botcall"),

		HTTPListenAddr: getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		PublicBasePath: getEnv("PUBLIC_BASE_PATH", ""),

		GroqAPIKey:  os.Getenv("GROQ_API_KEY"),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),

		SignalWireProjectID: os.Getenv("SIGNALWIRE_PROJECT_ID"),
		SignalWireAPIToken:  os.Getenv("SIGNALWIRE_API_TOKEN"),
		SignalWireSpaceURL:  os.Getenv("SIGNALWIRE_SPACE_URL"),
		SignalWireCallerID:  os.Getenv("SIGNALWIRE_CALLER_ID"),

		TTSBaseURL:   getEnv("TTS_BASE_URL", "http://localhost:5002"),
		TTSSpeakerID: os.Getenv("TTS_SPEAKER_ID"),
		TTSOutputDir: getEnv("TTS_OUTPUT_DIR", "static/tts"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	if cfg.GroqTimeout, err = getDuration("GROQ_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SignalWireTimeout, err = getDuration("SIGNALWIRE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TTSTimeout, err = getDuration("TTS_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ReplyDedupeTTL, err = getDuration("REPLY_DEDUPE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RedisTLS, err = getBool("REDIS_TLS", false); err != nil {
		return Config{}, err
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
