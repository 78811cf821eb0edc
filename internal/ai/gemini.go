package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/util"
)

const systemPrompt = `You extract promotional offers from screenshots of ads, flyers, receipts and shop pages.
Return ONLY a JSON object with these fields:
- title: short headline for the deal, e.g. "40% off winter jackets"
- storeName: the retailer's name
- storeDomain: the retailer's website domain if visible or well known, else ""
- description: one or two sentences describing the offer
- savingsAmount: the amount saved as written, e.g. "40%", "$15", "BOGO"
- savingsType: one of percentage, fixed_amount, bogo, free_shipping, free_gift, other
- code: promo code if shown, else omit
- url: offer URL if shown, else omit
- conditions: restrictions such as minimum spend or expiry, else omit
- categoryGuess: one of electronics, fashion, home, food, travel, beauty, sports, entertainment, services, other
Do not invent details that are not visible in the image.`

type Client struct {
	client *genai.Client
	model  string

	// generate is swapped out in tests.
	generate func(ctx context.Context, image []byte, mimeType string) (string, error)
}

// NewClient returns nil without error when no API key is configured so the
// caller can treat extraction as unavailable.
func NewClient(ctx context.Context, apiKey, modelID string) (*Client, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	c := &Client{client: client, model: modelID}
	c.generate = c.generateWithGemini
	return c, nil
}

// ExtractDeal asks the model to read a deal from an image.
func (c *Client) ExtractDeal(ctx context.Context, image []byte, mimeType string) (*models.ExtractedDeal, error) {
	if c == nil || c.generate == nil {
		return nil, fmt.Errorf("deal extraction is not configured")
	}
	if len(image) == 0 {
		return nil, ErrMissingImage
	}

	raw, err := c.generate(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	deal, err := ParseExtraction(raw)
	if err != nil {
		return nil, err
	}
	deal.Title = strings.TrimSpace(deal.Title)
	deal.StoreName = strings.TrimSpace(deal.StoreName)
	deal.StoreDomain = util.RegistrableDomain(deal.StoreDomain)
	deal.SavingsType = models.SavingsType(strings.ToLower(strings.TrimSpace(string(deal.SavingsType))))
	deal.CategoryGuess = strings.ToLower(strings.TrimSpace(deal.CategoryGuess))
	return deal, nil
}

func (c *Client) generateWithGemini(ctx context.Context, image []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText("Extract the deal shown in this image."),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1), // Low temperature for deterministic output
		ResponseMIMEType:  "application/json",
		ResponseSchema:    extractionSchema(),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from gemini")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text part in response")
	}
	return text, nil
}

func extractionSchema() *genai.Schema {
	savingsTypes := make([]string, 0, len(models.SavingsTypes))
	for _, s := range models.SavingsTypes {
		savingsTypes = append(savingsTypes, string(s))
	}
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":         str("Short headline for the deal."),
			"storeName":     str("Retailer name."),
			"storeDomain":   str("Retailer website domain, or empty."),
			"description":   str("One or two sentences describing the offer."),
			"savingsAmount": str("Amount saved as written on the image."),
			"savingsType":   {Type: genai.TypeString, Enum: savingsTypes},
			"code":          str("Promo code, if any."),
			"url":           str("Offer URL, if any."),
			"conditions":    str("Restrictions, if any."),
			"categoryGuess": {Type: genai.TypeString, Enum: models.CategoryGuesses},
		},
		Required: []string{"title", "storeName", "savingsType", "categoryGuess"},
	}
}
