package ai

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pauljones0/dealboard/internal/models"
)

var (
	// ErrMissingImage means the request carried no image payload.
	ErrMissingImage = errors.New("image is required")
	// ErrInvalidImage means the payload was not valid base64.
	ErrInvalidImage = errors.New("image is not valid base64")
	// ErrNoJSON means the model output contained no JSON object.
	ErrNoJSON = errors.New("no JSON object in model response")
)

const defaultImageMIME = "image/jpeg"

var (
	codeFenceRegex = regexp.MustCompile("```(?:json|JSON)?")
	dataURLRegex   = regexp.MustCompile(`^data:([\w.+-]+/[\w.+-]+);base64,`)
)

// DecodeImage accepts raw base64 or a data URL and returns the image bytes
// with their MIME type.
func DecodeImage(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", ErrMissingImage
	}

	mimeType := defaultImageMIME
	if m := dataURLRegex.FindStringSubmatch(payload); m != nil {
		mimeType = m[1]
		payload = payload[len(m[0]):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	if len(data) == 0 {
		return nil, "", ErrMissingImage
	}
	return data, mimeType, nil
}

// ParseExtraction turns raw model text into an ExtractedDeal. Markdown code
// fences are removed and everything outside the first '{' and the last '}'
// is ignored.
func ParseExtraction(raw string) (*models.ExtractedDeal, error) {
	cleaned := codeFenceRegex.ReplaceAllString(raw, "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}

	var deal models.ExtractedDeal
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &deal); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return &deal, nil
}
