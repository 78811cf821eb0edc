package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

type SelectorConfig struct {
	Store StoreSelectors `json:"store"`
}

type StoreSelectors struct {
	Title    string `json:"title"`
	SiteName string `json:"site_name"`
	// Icons are tried in order; the first with an href wins.
	Icons []string `json:"icons"`
}

// LoadSelectors loads the selector configuration from the specified JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}

	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}
	if config.Store.Title == "" || len(config.Store.Icons) == 0 {
		return SelectorConfig{}, fmt.Errorf("selector config is missing store title or icon selectors")
	}
	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is loaded.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Store: StoreSelectors{
			Title:    "head > title",
			SiteName: `meta[property="og:site_name"]`,
			Icons: []string{
				`link[rel="apple-touch-icon"]`,
				`link[rel="icon"][type="image/svg+xml"]`,
				`link[rel="icon"]`,
				`link[rel="shortcut icon"]`,
			},
		},
	}
}

var currentSelectors = DefaultSelectors()

// GetCurrentSelectors returns the selectors loaded at start-up.
func GetCurrentSelectors() SelectorConfig {
	return currentSelectors
}

// UseSelectors replaces the selectors used by clients created afterwards.
func UseSelectors(cfg SelectorConfig) {
	currentSelectors = cfg
}
