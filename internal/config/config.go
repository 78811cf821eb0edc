package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pauljones0/dealboard/internal/util"
)

// FirebaseWebConfig holds the public values the browser client needs.
type FirebaseWebConfig struct {
	APIKey            string `json:"apiKey"`
	AuthDomain        string `json:"authDomain"`
	ProjectID         string `json:"projectId"`
	StorageBucket     string `json:"storageBucket"`
	MessagingSenderID string `json:"messagingSenderId"`
	AppID             string `json:"appId"`
}

type Config struct {
	ProjectID            string
	ServiceAccountJSON   []byte
	Firebase             FirebaseWebConfig
	GeminiAPIKey         string
	GeminiModel          string
	MarketplaceBaseURL   string
	MarketplaceAPIKey    string
	SiteURL              string
	Port                 string
	RedisAddr            string
	DealsWebhookURL      string
	StoreRecountSchedule string
	RequestTimeout       time.Duration
	SitemapCacheTTL      time.Duration
	LeaderboardCacheTTL  time.Duration
	MaxExtractImageBytes int
}

type LogConfig struct {
	Level  string
	Format string
}

// Logging reads LOG_LEVEL and LOG_FORMAT. It is separate from Load so the
// logger can be installed before the rest of the config is validated.
func Logging() LogConfig {
	return LogConfig{
		Level:  envOr("LOG_LEVEL", "info"),
		Format: envOr("LOG_FORMAT", "text"),
	}
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

func Load() (*Config, error) {
	firebase := FirebaseWebConfig{
		APIKey:            os.Getenv("NEXT_PUBLIC_FIREBASE_API_KEY"),
		AuthDomain:        os.Getenv("NEXT_PUBLIC_FIREBASE_AUTH_DOMAIN"),
		ProjectID:         os.Getenv("NEXT_PUBLIC_FIREBASE_PROJECT_ID"),
		StorageBucket:     os.Getenv("NEXT_PUBLIC_FIREBASE_STORAGE_BUCKET"),
		MessagingSenderID: os.Getenv("NEXT_PUBLIC_FIREBASE_MESSAGING_SENDER_ID"),
		AppID:             os.Getenv("NEXT_PUBLIC_FIREBASE_APP_ID"),
	}

	var serviceAccount []byte
	var serviceAccountProject string
	if raw := strings.TrimSpace(os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY")); raw != "" {
		var key struct {
			ProjectID string `json:"project_id"`
		}
		if err := json.Unmarshal([]byte(raw), &key); err != nil {
			return nil, fmt.Errorf("invalid FIREBASE_SERVICE_ACCOUNT_KEY: %w", err)
		}
		serviceAccount = []byte(raw)
		serviceAccountProject = key.ProjectID
	} else {
		slog.Info("FIREBASE_SERVICE_ACCOUNT_KEY not set, using application default credentials")
	}

	projectID := firstNonEmpty(os.Getenv("GOOGLE_CLOUD_PROJECT"), serviceAccountProject, firebase.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT (or NEXT_PUBLIC_FIREBASE_PROJECT_ID) is required but not set")
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, deal extraction will be unavailable")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	siteURL := strings.TrimRight(os.Getenv("SITE_URL"), "/")
	if siteURL == "" {
		siteURL = "https://example.com"
	}

	requestTimeout, err := durationEnv("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sitemapTTL, err := durationEnv("SITEMAP_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	leaderboardTTL, err := durationEnv("LEADERBOARD_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		ProjectID:            projectID,
		ServiceAccountJSON:   serviceAccount,
		Firebase:             firebase,
		GeminiAPIKey:         geminiAPIKey,
		GeminiModel:          envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		MarketplaceBaseURL:   strings.TrimRight(os.Getenv("MARKETPLACE_BASE_URL"), "/"),
		MarketplaceAPIKey:    os.Getenv("MARKETPLACE_API_KEY"),
		SiteURL:              siteURL,
		Port:                 port,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		DealsWebhookURL:      os.Getenv("DEALS_WEBHOOK_URL"),
		StoreRecountSchedule: envOr("STORE_RECOUNT_SCHEDULE", "@hourly"),
		RequestTimeout:       requestTimeout,
		SitemapCacheTTL:      sitemapTTL,
		LeaderboardCacheTTL:  leaderboardTTL,
		MaxExtractImageBytes: util.ClampedInt(os.Getenv("MAX_EXTRACT_IMAGE_BYTES"), 10<<20, 64<<10, 20<<20),
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
