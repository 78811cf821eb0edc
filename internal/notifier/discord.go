// Package notifier announces newly submitted deals to a Discord-compatible
// webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/votes"
)

const (
	colorColdDeal = 3092790  // #2F3136
	colorWarmDeal = 16753920 // #FFA500
	colorHotDeal  = 16711680 // #FF0000
	colorLavaDeal = 16776960 // #FFFF00
)

// New deals have no votes yet, so they are coloured by how they save.
var savingsColors = map[models.SavingsType]int{
	models.SavingsPercentage:   3066993,  // #2ECC71
	models.SavingsFixedAmount:  3447003,  // #3498DB
	models.SavingsBOGO:         10181046, // #9B59B6
	models.SavingsFreeShipping: 1752220,  // #1ABC9C
	models.SavingsFreeGift:     15277667, // #E91E63
}

type Client struct {
	webhookURL string
	siteURL    string
	client     *http.Client
	limiter    *rate.Limiter
}

// New returns a client posting to webhookURL. Deal links point at siteURL.
// With an empty webhookURL every Send is a no-op.
func New(webhookURL, siteURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		siteURL:    siteURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		// Discord allows 5 webhook posts per 2 seconds.
		limiter: rate.NewLimiter(rate.Every(400*time.Millisecond), 1),
	}
}

// Send posts a new deal announcement and returns the message ID.
func (c *Client) Send(ctx context.Context, deal models.Deal) (string, error) {
	if c.webhookURL == "" {
		return "", nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	embed := formatDealToEmbed(deal, c.siteURL)
	return c.sendAndGetMessageID(ctx, embed)
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedThumbnail struct {
	URL string `json:"url,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

type discordEmbed struct {
	Title       string                `json:"title,omitempty"`
	Description string                `json:"description,omitempty"`
	URL         string                `json:"url,omitempty"`
	Timestamp   string                `json:"timestamp,omitempty"`
	Color       int                   `json:"color,omitempty"`
	Thumbnail   discordEmbedThumbnail `json:"thumbnail,omitempty"`
	Fields      []discordEmbedField   `json:"fields,omitempty"`
	Footer      discordEmbedFooter    `json:"footer,omitempty"`
}

type discordMessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

func formatDealToEmbed(deal models.Deal, siteURL string) discordEmbed {
	var description string
	if deal.DiscountDescription != "" {
		description = deal.DiscountDescription
	}
	if deal.URL != "" {
		if description != "" {
			description += "\n"
		}
		description += fmt.Sprintf("[Link to Item](%s)", deal.URL)
	}

	var fields []discordEmbedField
	if deal.Store.Name != "" {
		fields = append(fields, discordEmbedField{Name: "Store", Value: deal.Store.Name, Inline: true})
	}
	if deal.Code != "" {
		fields = append(fields, discordEmbedField{Name: "Code", Value: "`" + deal.Code + "`", Inline: true})
	}
	if !deal.ExpiresAt.IsZero() {
		fields = append(fields, discordEmbedField{
			Name:   "Expires",
			Value:  fmt.Sprintf("<t:%d:R>", deal.ExpiresAt.Unix()),
			Inline: true,
		})
	}

	var isoTimestamp string
	if !deal.CreatedAt.IsZero() {
		isoTimestamp = deal.CreatedAt.Format(time.RFC3339)
	}

	var link string
	if siteURL != "" && deal.Slug != "" {
		link = siteURL + "/deals/" + deal.Slug
	}

	var footer discordEmbedFooter
	if deal.Category.Name != "" {
		footer.Text = deal.Category.Name
	}

	return discordEmbed{
		Title:       deal.Title,
		URL:         link,
		Description: description,
		Timestamp:   isoTimestamp,
		Color:       dealColor(deal),
		Fields:      fields,
		Footer:      footer,
	}
}

func (c *Client) sendAndGetMessageID(ctx context.Context, embed discordEmbed) (string, error) {
	payload := discordWebhookPayload{Embeds: []discordEmbed{embed}}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	parsedURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return "", err
	}
	q := parsedURL.Query()
	q.Set("wait", "true")
	parsedURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsedURL.String(), bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var msgResponse discordMessageResponse
		if err := json.Unmarshal(bodyBytes, &msgResponse); err != nil {
			return "", err
		}
		return msgResponse.ID, nil
	}
	return "", fmt.Errorf("webhook status: %s, body: %s", resp.Status, string(bodyBytes))
}

func dealColor(deal models.Deal) int {
	if deal.Upvotes > 0 || deal.Downvotes > 0 {
		return heatColor(votes.HeatOf(deal.Upvotes, deal.Downvotes))
	}
	if c, ok := savingsColors[deal.SavingsType]; ok {
		return c
	}
	return colorColdDeal
}

func heatColor(h votes.Heat) int {
	switch h {
	case votes.HeatLava:
		return colorLavaDeal
	case votes.HeatHot:
		return colorHotDeal
	case votes.HeatWarm:
		return colorWarmDeal
	}
	return colorColdDeal
}
