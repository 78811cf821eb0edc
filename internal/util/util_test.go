package util

import (
	"testing"
)

func TestCleanDealURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "No change",
			input: "https://example.com/product?id=5",
			want:  "https://example.com/product?id=5",
		},
		{
			name:  "Force https and drop trailing slash",
			input: "http://shop.example.com/sale/",
			want:  "https://shop.example.com/sale",
		},
		{
			name:  "Remove UTM params",
			input: "https://example.com/deal?utm_source=foo&utm_medium=bar&color=red",
			want:  "https://example.com/deal?color=red",
		},
		{
			name:  "Remove click IDs",
			input: "https://example.com/deal?fbclid=abc&gclid=def",
			want:  "https://example.com/deal",
		},
		{
			name:    "Invalid URL",
			input:   "https://exa mple.com/%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanDealURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CleanDealURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("CleanDealURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Standard domain", input: "https://amazon.ca/dp/12345", want: "amazon.ca"},
		{name: "Subdomain", input: "https://sub.amazon.ca/dp/12345", want: "amazon.ca"},
		{name: "Two-part TLD", input: "https://example.co.uk/product", want: "example.co.uk"},
		{name: "Subdomain with two-part TLD", input: "https://sub.example.co.uk/product", want: "example.co.uk"},
		{name: "No scheme with www", input: "www.bestbuy.ca", want: "bestbuy.ca"},
		{name: "Bare host with path and port", input: "Shop.Target.com:443/sale", want: "target.com"},
		{name: "Not a domain", input: "Target", want: ""},
		{name: "Empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RegistrableDomain(tt.input); got != tt.want {
				t.Errorf("RegistrableDomain(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClampedInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 20},
		{"abc", 20},
		{"5", 5},
		{"0", 1},
		{"1000", 100},
	}
	for _, tt := range tests {
		if got := ClampedInt(tt.in, 20, 1, 100); got != tt.want {
			t.Errorf("ClampedInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
