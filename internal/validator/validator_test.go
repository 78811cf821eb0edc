package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pauljones0/dealboard/internal/models"
)

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		deal    models.Deal
		wantErr string
	}{
		{
			name: "Valid Deal",
			deal: models.Deal{
				Title:       "Test Deal",
				SavingsType: models.SavingsPercentage,
				URL:         "https://example.com/deal",
				Store:       models.StoreRef{Name: "Example"},
				CreatedAt:   time.Now(),
				Upvotes:     10,
			},
		},
		{
			name: "Missing Title",
			deal: models.Deal{
				SavingsType: models.SavingsOther,
				Store:       models.StoreRef{Name: "Example"},
			},
			wantErr: "Title is required",
		},
		{
			name: "Unknown savings type",
			deal: models.Deal{
				Title:       "Test Deal",
				SavingsType: "half_price",
				Store:       models.StoreRef{Name: "Example"},
			},
			wantErr: "SavingsType must be one of",
		},
		{
			name: "Invalid URL",
			deal: models.Deal{
				Title:       "Test Deal",
				SavingsType: models.SavingsBOGO,
				URL:         "invalid-url",
				Store:       models.StoreRef{Name: "Example"},
			},
			wantErr: "URL must be a valid URL",
		},
		{
			name: "Negative votes",
			deal: models.Deal{
				Title:       "Test Deal",
				SavingsType: models.SavingsBOGO,
				Store:       models.StoreRef{Name: "Example"},
				Downvotes:   -1,
			},
			wantErr: "Downvotes must be >= 0",
		},
		{
			name: "Missing store name",
			deal: models.Deal{
				Title:       "Test Deal",
				SavingsType: models.SavingsBOGO,
			},
			wantErr: "Store.Name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.deal)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateStruct() error %v does not wrap ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateStruct() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_ExtractedDeal(t *testing.T) {
	v := New()

	ok := models.ExtractedDeal{Title: "20% off", StoreName: "Target", SavingsType: models.SavingsPercentage, CategoryGuess: "home"}
	if err := v.ValidateStruct(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := models.ExtractedDeal{Title: "20% off", StoreName: "Target", CategoryGuess: "groceries"}
	if err := v.ValidateStruct(bad); err == nil {
		t.Error("expected error for unknown category guess")
	}
}
