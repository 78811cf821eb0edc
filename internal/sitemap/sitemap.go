// Package sitemap aggregates deals, stores and categories into sitemap
// entries. A database outage degrades the sitemap to static pages only.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/dealboard/internal/models"
)

type ChangeFrequency string

const (
	Hourly  ChangeFrequency = "hourly"
	Daily   ChangeFrequency = "daily"
	Weekly  ChangeFrequency = "weekly"
	Monthly ChangeFrequency = "monthly"
	Yearly  ChangeFrequency = "yearly"
)

// Entry is one URL in the sitemap.
type Entry struct {
	URL             string          `json:"url"`
	LastModified    time.Time       `json:"lastModified"`
	ChangeFrequency ChangeFrequency `json:"changeFrequency"`
	Priority        float64         `json:"priority"`
}

type staticRoute struct {
	path      string
	frequency ChangeFrequency
	priority  float64
}

var staticRoutes = []staticRoute{
	{"", Hourly, 1.0},
	{"/deals", Hourly, 0.9},
	{"/stores", Daily, 0.8},
	{"/categories", Daily, 0.8},
	{"/leaderboard", Daily, 0.6},
	{"/submit", Monthly, 0.5},
	{"/about", Yearly, 0.2},
}

const (
	dealPriority     = 0.7
	storePriority    = 0.6
	categoryPriority = 0.6
)

// Source is the slice of the storage layer the builder reads from.
type Source interface {
	ListDeals(ctx context.Context) ([]models.Deal, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type Builder struct {
	source  Source
	baseURL string
	now     func() time.Time

	// OnDegraded, when set, is called each time Build falls back to the
	// static routes.
	OnDegraded func(err error)
}

func New(source Source, baseURL string) *Builder {
	return &Builder{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Build never fails: if any collection cannot be fetched the static routes
// are returned on their own.
func (b *Builder) Build(ctx context.Context) []Entry {
	now := b.now()
	entries := b.static(now)

	var (
		deals      []models.Deal
		stores     []models.Store
		categories []models.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		deals, err = b.source.ListDeals(gctx)
		if err != nil {
			err = fmt.Errorf("list deals: %w", err)
		}
		return err
	})
	g.Go(func() (err error) {
		stores, err = b.source.ListStores(gctx)
		if err != nil {
			err = fmt.Errorf("list stores: %w", err)
		}
		return err
	})
	g.Go(func() (err error) {
		categories, err = b.source.ListCategories(gctx)
		if err != nil {
			err = fmt.Errorf("list categories: %w", err)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Warn("Sitemap falling back to static pages", "error", err)
		if b.OnDegraded != nil {
			b.OnDegraded(err)
		}
		return entries
	}

	for _, d := range deals {
		if d.Slug == "" {
			continue
		}
		lastMod := d.LastModified()
		if lastMod.IsZero() {
			lastMod = now
		}
		entries = append(entries, Entry{
			URL:             b.baseURL + "/deals/" + d.Slug,
			LastModified:    lastMod,
			ChangeFrequency: Daily,
			Priority:        dealPriority,
		})
	}
	for _, s := range stores {
		if s.Slug == "" {
			continue
		}
		entries = append(entries, Entry{
			URL:             b.baseURL + "/stores/" + s.Slug,
			LastModified:    now,
			ChangeFrequency: Weekly,
			Priority:        storePriority,
		})
	}
	for _, c := range categories {
		if c.Slug == "" {
			continue
		}
		entries = append(entries, Entry{
			URL:             b.baseURL + "/categories/" + c.Slug,
			LastModified:    now,
			ChangeFrequency: Weekly,
			Priority:        categoryPriority,
		})
	}
	return entries
}

func (b *Builder) static(now time.Time) []Entry {
	entries := make([]Entry, 0, len(staticRoutes))
	for _, r := range staticRoutes {
		entries = append(entries, Entry{
			URL:             b.baseURL + r.path,
			LastModified:    now,
			ChangeFrequency: r.frequency,
			Priority:        r.priority,
		})
	}
	return entries
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// WriteXML renders entries as a sitemaps.org urlset document.
func WriteXML(w io.Writer, entries []Entry) error {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, e := range entries {
		set.URLs = append(set.URLs, xmlURL{
			Loc:        e.URL,
			LastMod:    e.LastModified.UTC().Format(time.RFC3339),
			ChangeFreq: string(e.ChangeFrequency),
			Priority:   fmt.Sprintf("%.1f", e.Priority),
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return enc.Flush()
}
