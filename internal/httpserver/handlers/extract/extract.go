// Package extract serves POST /api/extract-deal, which reads a deal off an
// uploaded screenshot.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pauljones0/dealboard/internal/ai"
	"github.com/pauljones0/dealboard/internal/httpserver/respond"
	"github.com/pauljones0/dealboard/internal/metrics"
	"github.com/pauljones0/dealboard/internal/models"
)

type Extractor interface {
	ExtractDeal(ctx context.Context, image []byte, mimeType string) (*models.ExtractedDeal, error)
}

type StructValidator interface {
	ValidateStruct(s any) error
}

type Observer interface {
	ObserveExtraction(outcome string)
}

type Options struct {
	Log       *slog.Logger
	Extractor Extractor
	Validator StructValidator
	Metrics   Observer
	// MaxBodyBytes bounds the JSON request, base64 overhead included.
	MaxBodyBytes int64
	Timeout      time.Duration
}

type request struct {
	Image string `json:"image"`
}

type response struct {
	Success   bool                  `json:"success"`
	Extracted *models.ExtractedDeal `json:"extracted,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func NewPostHandler(opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 14 << 20
	}
	observe := func(outcome string) {
		if opts.Metrics != nil {
			opts.Metrics.ObserveExtraction(outcome)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				observe(metrics.ExtractBadRequest)
				respond.JSON(w, http.StatusRequestEntityTooLarge, response{Error: "image is too large"})
				return
			}
			// An unreadable body carries no image.
			observe(metrics.ExtractBadRequest)
			respond.JSON(w, http.StatusBadRequest, response{Error: ai.ErrMissingImage.Error()})
			return
		}

		image, mimeType, err := ai.DecodeImage(req.Image)
		if err != nil {
			observe(metrics.ExtractBadRequest)
			respond.JSON(w, http.StatusBadRequest, response{Error: err.Error()})
			return
		}

		if opts.Extractor == nil {
			observe(metrics.ExtractUnavailable)
			respond.JSON(w, http.StatusInternalServerError, response{Error: "deal extraction is not configured"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		extracted, err := opts.Extractor.ExtractDeal(ctx, image, mimeType)
		if err == nil && opts.Validator != nil {
			err = opts.Validator.ValidateStruct(extracted)
		}
		if err != nil {
			observe(metrics.ExtractModelError)
			log.Error("deal extraction failed",
				"error", err,
				"mime", mimeType,
				"bytes", len(image),
				"rid", r.Header.Get("X-Request-Id"),
			)
			respond.JSON(w, http.StatusInternalServerError, response{Error: err.Error()})
			return
		}

		observe(metrics.ExtractOK)
		respond.JSON(w, http.StatusOK, response{Success: true, Extracted: extracted})
	}
}
