package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pauljones0/dealboard/internal/ai"
	"github.com/pauljones0/dealboard/internal/metrics"
	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/validator"
)

type mockExtractor struct {
	deal     *models.ExtractedDeal
	err      error
	gotImage []byte
	gotMIME  string
}

func (m *mockExtractor) ExtractDeal(_ context.Context, image []byte, mimeType string) (*models.ExtractedDeal, error) {
	m.gotImage, m.gotMIME = image, mimeType
	return m.deal, m.err
}

type countingObserver map[string]int

func (c countingObserver) ObserveExtraction(outcome string) { c[outcome]++ }

func post(h http.Handler, body string) (*httptest.ResponseRecorder, response) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/extract-deal", strings.NewReader(body)))
	var resp response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestExtract_Success(t *testing.T) {
	ext := &mockExtractor{deal: &models.ExtractedDeal{Title: "20% off", StoreName: "Target", SavingsType: models.SavingsPercentage}}
	obs := countingObserver{}
	h := NewPostHandler(Options{Extractor: ext, Validator: validator.New(), Metrics: obs})

	img := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	rec, resp := post(h, `{"image":"data:image/png;base64,`+img+`"}`)

	if rec.Code != http.StatusOK || !resp.Success || resp.Extracted.StoreName != "Target" {
		t.Fatalf("status = %d, resp = %+v", rec.Code, resp)
	}
	if string(ext.gotImage) != "png-bytes" || ext.gotMIME != "image/png" {
		t.Errorf("extractor got %q %q", ext.gotImage, ext.gotMIME)
	}
	if obs[metrics.ExtractOK] != 1 {
		t.Errorf("observer = %v", obs)
	}
}

func TestExtract_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing image", `{}`, ai.ErrMissingImage.Error()},
		{"empty image", `{"image":"  "}`, ai.ErrMissingImage.Error()},
		{"not base64", `{"image":"%%%not-base64%%%"}`, ai.ErrInvalidImage.Error()},
		{"not json", `image=abc`, ai.ErrMissingImage.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &mockExtractor{}
			rec, resp := post(NewPostHandler(Options{Extractor: ext}), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
			if resp.Success || !strings.HasPrefix(resp.Error, tt.wantErr) {
				t.Errorf("resp = %+v, want error %q", resp, tt.wantErr)
			}
			if ext.gotImage != nil {
				t.Error("extractor must not be called")
			}
		})
	}
}

func TestExtract_ServerErrors(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("jpeg"))
	tests := []struct {
		name string
		ext  *mockExtractor
	}{
		{"model output without JSON", &mockExtractor{err: ai.ErrNoJSON}},
		{"upstream failure", &mockExtractor{err: errors.New("gemini generation failed: quota")}},
		{"fails validation", &mockExtractor{deal: &models.ExtractedDeal{Title: "x", CategoryGuess: "cars"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPostHandler(Options{Extractor: tt.ext, Validator: validator.New()})
			rec, resp := post(h, `{"image":"`+img+`"}`)
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d", rec.Code)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("resp = %+v", resp)
			}
			if tt.ext.gotMIME != "image/jpeg" {
				t.Errorf("default MIME = %q", tt.ext.gotMIME)
			}
		})
	}
}

func TestExtract_TooLarge(t *testing.T) {
	h := NewPostHandler(Options{Extractor: &mockExtractor{}, MaxBodyBytes: 16})
	rec, _ := post(h, `{"image":"`+strings.Repeat("A", 64)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestExtract_Unconfigured(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte("jpeg"))
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantErr    string
	}{
		{"valid image", `{"image":"` + img + `"}`, http.StatusInternalServerError, "deal extraction is not configured"},
		{"missing image", `{}`, http.StatusBadRequest, ai.ErrMissingImage.Error()},
		{"not base64", `{"image":"%%%not-base64%%%"}`, http.StatusBadRequest, ai.ErrInvalidImage.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := countingObserver{}
			rec, resp := post(NewPostHandler(Options{Metrics: obs}), tt.body)
			if rec.Code != tt.wantStatus || resp.Success {
				t.Errorf("status = %d, resp = %+v", rec.Code, resp)
			}
			if !strings.HasPrefix(resp.Error, tt.wantErr) {
				t.Errorf("error = %q, want prefix %q", resp.Error, tt.wantErr)
			}
			if tt.wantStatus == http.StatusBadRequest && obs[metrics.ExtractBadRequest] != 1 {
				t.Errorf("outcomes = %v", obs)
			}
		})
	}
}
