package scraper

import (
	"embed"
	"log/slog"
	"os"
)

//go:embed selectors.json
var embeddedSelectors embed.FS

// LoadConfig resolves the homepage selectors. SELECTORS_CONFIG_PATH wins when
// set and valid, then the embedded selectors.json, then DefaultSelectors.
func LoadConfig() SelectorConfig {
	if path := os.Getenv("SELECTORS_CONFIG_PATH"); path != "" {
		sel, err := LoadSelectors(path)
		if err == nil {
			slog.Info("Loaded selectors from external file", "path", path)
			return sel
		}
		slog.Warn("Failed to load external selectors, falling back", "path", path, "error", err)
	}

	data, err := embeddedSelectors.ReadFile("selectors.json")
	if err == nil {
		sel, parseErr := LoadSelectorsFromBytes(data)
		if parseErr == nil {
			return sel
		}
		slog.Warn("Embedded selectors failed to parse", "error", parseErr)
	}

	slog.Info("Using hardcoded default selectors")
	return DefaultSelectors()
}
