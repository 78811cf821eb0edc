package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set test environment variables (auto-cleaned up after test)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")
	t.Setenv("NEXT_PUBLIC_FIREBASE_API_KEY", "web-key")
	t.Setenv("NEXT_PUBLIC_FIREBASE_APP_ID", "1:2:web:3")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("PORT", "9090")
	t.Setenv("SITE_URL", "https://deals.test/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.ProjectID != "test-project" {
		t.Errorf("Expected test-project, got %s", cfg.ProjectID)
	}
	if cfg.Firebase.APIKey != "web-key" || cfg.Firebase.AppID != "1:2:web:3" {
		t.Errorf("Firebase web config not loaded: %+v", cfg.Firebase)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected 9090, got %s", cfg.Port)
	}
	if cfg.SiteURL != "https://deals.test" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.SiteURL)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("Expected default model, got %s", cfg.GeminiModel)
	}
	if cfg.SitemapCacheTTL != time.Hour {
		t.Errorf("Expected default sitemap TTL 1h, got %s", cfg.SitemapCacheTTL)
	}
	if cfg.StoreRecountSchedule != "@hourly" {
		t.Errorf("Expected @hourly, got %s", cfg.StoreRecountSchedule)
	}
}

func TestLoad_MissingProjectID(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")
	t.Setenv("NEXT_PUBLIC_FIREBASE_PROJECT_ID", "")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return an error when no project ID is available")
	}
}

func TestLoad_ProjectIDFromPublicConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")
	t.Setenv("NEXT_PUBLIC_FIREBASE_PROJECT_ID", "public-project")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ProjectID != "public-project" {
		t.Errorf("Expected public-project, got %s", cfg.ProjectID)
	}
}

func TestLoad_ServiceAccountKey(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("NEXT_PUBLIC_FIREBASE_PROJECT_ID", "public-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", `{"type":"service_account","project_id":"admin-project"}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.ProjectID != "admin-project" {
		t.Errorf("Expected project from service account, got %s", cfg.ProjectID)
	}
	if len(cfg.ServiceAccountJSON) == 0 {
		t.Error("Expected service account JSON to be kept")
	}
}

func TestLoad_InvalidServiceAccountKey(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "{not json")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error for malformed FIREBASE_SERVICE_ACCOUNT_KEY")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")
	t.Setenv("SITEMAP_CACHE_TTL", "not-a-duration")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return error for invalid SITEMAP_CACHE_TTL")
	}
}

func TestLoad_CustomLeaderboardTTL(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")
	t.Setenv("LEADERBOARD_CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.LeaderboardCacheTTL != 30*time.Second {
		t.Errorf("Expected 30s, got %s", cfg.LeaderboardCacheTTL)
	}
}

func TestLoad_ExtractImageLimit(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")

	tests := []struct {
		env  string
		want int
	}{
		{"", 10 << 20},
		{"1048576", 1 << 20},
		{"1", 64 << 10},
		{"999999999", 20 << 20},
		{"lots", 10 << 20},
	}
	for _, tt := range tests {
		t.Setenv("MAX_EXTRACT_IMAGE_BYTES", tt.env)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}
		if cfg.MaxExtractImageBytes != tt.want {
			t.Errorf("MAX_EXTRACT_IMAGE_BYTES=%q: got %d, want %d", tt.env, cfg.MaxExtractImageBytes, tt.want)
		}
	}
}

func TestLoad_DealsWebhook(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "test-project")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY", "")
	t.Setenv("DEALS_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.DealsWebhookURL != "https://discord.com/api/webhooks/1/abc" {
		t.Errorf("DealsWebhookURL = %q", cfg.DealsWebhookURL)
	}
}

func TestLogging(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	if got := Logging(); got != (LogConfig{Level: "info", Format: "text"}) {
		t.Errorf("defaults = %+v", got)
	}

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	if got := Logging(); got != (LogConfig{Level: "debug", Format: "json"}) {
		t.Errorf("Logging() = %+v", got)
	}
}
