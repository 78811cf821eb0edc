package models

import (
	"errors"
	"time"
)

var (
	// ErrDealExists is returned when attempting to create a deal that already exists.
	ErrDealExists = errors.New("deal already exists")
	// ErrNotFound is returned when a document lookup finds nothing.
	ErrNotFound = errors.New("not found")
)

// SavingsType classifies how a deal saves the shopper money.
type SavingsType string

const (
	SavingsPercentage   SavingsType = "percentage"
	SavingsFixedAmount  SavingsType = "fixed_amount"
	SavingsBOGO         SavingsType = "bogo"
	SavingsFreeShipping SavingsType = "free_shipping"
	SavingsFreeGift     SavingsType = "free_gift"
	SavingsOther        SavingsType = "other"
)

// SavingsTypes lists every accepted SavingsType in prompt order.
var SavingsTypes = []SavingsType{
	SavingsPercentage, SavingsFixedAmount, SavingsBOGO,
	SavingsFreeShipping, SavingsFreeGift, SavingsOther,
}

// StoreRef is the copy of a Store embedded in a Deal.
type StoreRef struct {
	ID     string `firestore:"id" json:"id"`
	Name   string `firestore:"name" json:"name" validate:"required"`
	Slug   string `firestore:"slug" json:"slug"`
	Domain string `firestore:"domain,omitempty" json:"domain,omitempty"`
}

// CategoryRef is the copy of a Category embedded in a Deal.
type CategoryRef struct {
	ID   string `firestore:"id" json:"id"`
	Name string `firestore:"name" json:"name"`
	Slug string `firestore:"slug" json:"slug"`
}

// Deal is a promotional offer with savings metadata and community votes.
type Deal struct {
	ID                  string      `firestore:"-" json:"id"`
	Slug                string      `firestore:"slug,omitempty" json:"slug"`
	Title               string      `firestore:"title" json:"title" validate:"required,max=200"`
	Description         string      `firestore:"description,omitempty" json:"description,omitempty"`
	DiscountDescription string      `firestore:"discountDescription,omitempty" json:"discountDescription,omitempty"`
	SavingsAmount       string      `firestore:"savingsAmount,omitempty" json:"savingsAmount,omitempty"`
	SavingsType         SavingsType `firestore:"savingsType" json:"savingsType" validate:"required,oneof=percentage fixed_amount bogo free_shipping free_gift other"`
	Code                string      `firestore:"code,omitempty" json:"code,omitempty"`
	URL                 string      `firestore:"url,omitempty" json:"url,omitempty" validate:"omitempty,url"`
	Conditions          string      `firestore:"conditions,omitempty" json:"conditions,omitempty"`

	Upvotes   int `firestore:"upvotes" json:"upvotes" validate:"gte=0"`
	Downvotes int `firestore:"downvotes" json:"downvotes" validate:"gte=0"`
	WorkedYes int `firestore:"workedYes" json:"workedYes" validate:"gte=0"`
	WorkedNo  int `firestore:"workedNo" json:"workedNo" validate:"gte=0"`

	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
	ExpiresAt      time.Time `firestore:"expiresAt,omitempty" json:"expiresAt,omitzero"`
	LastVerifiedAt time.Time `firestore:"lastVerifiedAt,omitempty" json:"lastVerifiedAt,omitzero"`

	Store       StoreRef    `firestore:"store" json:"store"`
	Category    CategoryRef `firestore:"category" json:"category"`
	SubmittedBy string      `firestore:"submittedBy,omitempty" json:"submittedBy,omitempty"`
}

// DealStatus is the freshness state derived from ExpiresAt.
type DealStatus string

const (
	StatusActive       DealStatus = "active"
	StatusExpiringSoon DealStatus = "expiring_soon"
	StatusExpired      DealStatus = "expired"
	StatusNoExpiry     DealStatus = "no_expiry"
)

const (
	expiringSoonWindow = 24 * time.Hour
	verifiedWindow     = 7 * 24 * time.Hour
)

// Status reports whether the deal is still live at now.
func (d Deal) Status(now time.Time) DealStatus {
	if d.ExpiresAt.IsZero() {
		return StatusNoExpiry
	}
	left := d.ExpiresAt.Sub(now)
	switch {
	case left <= 0:
		return StatusExpired
	case left < expiringSoonWindow:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// IsExpired is shorthand for Status(now) == StatusExpired.
func (d Deal) IsExpired(now time.Time) bool {
	return d.Status(now) == StatusExpired
}

// RecentlyVerified reports whether someone confirmed the deal in the last week.
func (d Deal) RecentlyVerified(now time.Time) bool {
	if d.LastVerifiedAt.IsZero() {
		return false
	}
	return now.Sub(d.LastVerifiedAt) <= verifiedWindow
}

// LastModified is the timestamp search engines should see for the deal page.
func (d Deal) LastModified() time.Time {
	if !d.LastVerifiedAt.IsZero() {
		return d.LastVerifiedAt
	}
	return d.CreatedAt
}
