// Package scraper reads a store's homepage to fill in its display name and
// logo when the store is first created.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pauljones0/dealboard/internal/util"
)

const maxPageBytes = 2 << 20

// StoreInfo is what a homepage tells us about the store.
type StoreInfo struct {
	Name    string
	LogoURL string
}

type Scraper interface {
	ScrapeStore(ctx context.Context, homepage string) (StoreInfo, error)
}

type Client struct {
	httpClient *http.Client
	selectors  SelectorConfig
	// allowHost rejects hosts that are not public registrable domains.
	allowHost func(host string) bool
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		selectors:  GetCurrentSelectors(),
		allowHost:  publicHost,
	}
}

// ScrapeStore fetches homepage and extracts the store name and logo. Fields
// that cannot be found are left empty.
func (c *Client) ScrapeStore(ctx context.Context, homepage string) (StoreInfo, error) {
	doc, base, err := c.fetchHTMLContent(ctx, homepage)
	if err != nil {
		return StoreInfo{}, err
	}

	var info StoreInfo
	if org, ok := findOrganization(doc); ok {
		info.Name = org.Name
		info.LogoURL = resolve(base, org.logoURL())
	}
	if info.Name == "" {
		info.Name = c.siteName(doc)
	}
	if info.LogoURL == "" {
		for _, sel := range c.selectors.Store.Icons {
			href, ok := doc.Find(sel).First().Attr("href")
			if ok && strings.TrimSpace(href) != "" {
				info.LogoURL = resolve(base, strings.TrimSpace(href))
				break
			}
		}
	}
	slog.Debug("Scraped store homepage", "url", homepage, "name", info.Name, "logo", info.LogoURL)
	return info, nil
}

func (c *Client) siteName(doc *goquery.Document) string {
	if name, ok := doc.Find(c.selectors.Store.SiteName).First().Attr("content"); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	title := strings.TrimSpace(doc.Find(c.selectors.Store.Title).First().Text())
	// "Shop Widgets | Acme" and "Acme - Home" both reduce to the brand part.
	for _, sep := range []string{" | ", " - ", " – ", " — ", " :: "} {
		if strings.Contains(title, sep) {
			parts := strings.Split(title, sep)
			shortest := parts[0]
			for _, p := range parts[1:] {
				if p = strings.TrimSpace(p); p != "" && len(p) < len(shortest) {
					shortest = p
				}
			}
			return strings.TrimSpace(shortest)
		}
	}
	return title
}

func (c *Client) fetchHTMLContent(ctx context.Context, urlStr string) (*goquery.Document, *url.URL, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse URL %s: %w", urlStr, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, nil, fmt.Errorf("invalid URL scheme %s: only http and https allowed", parsedURL.Scheme)
	}

	if !c.allowHost(parsedURL.Hostname()) {
		return nil, nil, fmt.Errorf("refusing to fetch non-public host %s", parsedURL.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request for URL %s: %w", urlStr, err)
	}
	req.Header.Set("Accept", "text/html")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch URL %s: %w", urlStr, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("failed to fetch URL %s: status code %d", urlStr, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML from %s: %w", urlStr, err)
	}
	// Redirects change the base for relative icon links.
	return doc, res.Request.URL, nil
}

func publicHost(host string) bool {
	if net.ParseIP(host) != nil {
		return false
	}
	return util.RegistrableDomain(host) != ""
}

func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// jsonLDOrganization is the subset of a schema.org Organization block used
// for store branding.
type jsonLDOrganization struct {
	Type string          `json:"@type"`
	Name string          `json:"name"`
	Logo json.RawMessage `json:"logo"`
}

func (o jsonLDOrganization) logoURL() string {
	if len(o.Logo) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(o.Logo, &s) == nil {
		return strings.TrimSpace(s)
	}
	var img struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(o.Logo, &img) == nil {
		return strings.TrimSpace(img.URL)
	}
	return ""
}

func findOrganization(doc *goquery.Document) (jsonLDOrganization, bool) {
	var found jsonLDOrganization
	var ok bool
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := []byte(strings.TrimSpace(s.Text()))
		var candidates []jsonLDOrganization
		if err := json.Unmarshal(raw, &candidates); err != nil {
			var single jsonLDOrganization
			if err := json.Unmarshal(raw, &single); err != nil {
				return true
			}
			candidates = []jsonLDOrganization{single}
		}
		for _, c := range candidates {
			if (c.Type == "Organization" || c.Type == "Store" || c.Type == "OnlineStore") && strings.TrimSpace(c.Name) != "" {
				c.Name = strings.TrimSpace(c.Name)
				found, ok = c, true
				return false
			}
		}
		return true
	})
	return found, ok
}
