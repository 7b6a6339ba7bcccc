// Package menuparse turns a photo of a printed menu into structured items.
package menuparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type ParsedItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type ParsedMenu struct {
	BrandName  string       `json:"brandName"`
	Categories []string     `json:"categories"`
	Items      []ParsedItem `json:"items"`
}

// Parser is a single request/response call; implementations should honour
// ctx cancellation but callers must not rely on it.
type Parser interface {
	ParseMenu(ctx context.Context, image []byte, mimeType, shopName string) (*ParsedMenu, error)
}

// Fallback is the placeholder menu used whenever parsing fails.
func Fallback(shopName string) *ParsedMenu {
	return &ParsedMenu{
		BrandName:  shopName,
		Categories: []string{"Mains", "Drinks"},
		Items: []ParsedItem{
			{Name: "Sample Beef Noodles", Price: 150, Category: "Mains"},
			{Name: "Sample Bubble Tea", Price: 60, Category: "Drinks"},
		},
	}
}

var ErrNoAPIKey = errors.New("gemini api key not configured")

type GeminiParser struct {
	APIKey string
	Model  string
}

func NewGeminiParser(apiKey, model string) *GeminiParser {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiParser{APIKey: apiKey, Model: model}
}

func (p *GeminiParser) ParseMenu(ctx context.Context, image []byte, mimeType, shopName string) (*ParsedMenu, error) {
	if p.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if len(image) == 0 {
		return nil, errors.New("empty menu image")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.Model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = menuSchema

	prompt := fmt.Sprintf("You are an ordering-system assistant for restaurants. "+
		"Read the menu in this image and return its categories, dish names and prices as JSON. "+
		"The shop is called %q.", shopName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(imageFormat(mimeType), image))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var rawJSON string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			rawJSON = string(txt)
			break
		}
	}
	return decode(rawJSON)
}

func decode(rawJSON string) (*ParsedMenu, error) {
	rawJSON = strings.TrimSpace(rawJSON)
	rawJSON = strings.TrimPrefix(rawJSON, "```json")
	rawJSON = strings.TrimPrefix(rawJSON, "```")
	rawJSON = strings.TrimSuffix(rawJSON, "```")

	var menu ParsedMenu
	if err := json.Unmarshal([]byte(rawJSON), &menu); err != nil {
		return nil, fmt.Errorf("decode menu json: %w", err)
	}
	return &menu, nil
}

// imageFormat maps "image/png" to the "png" form genai.ImageData expects.
func imageFormat(mimeType string) string {
	format := strings.TrimPrefix(strings.ToLower(mimeType), "image/")
	if format == "" || strings.Contains(format, "/") {
		return "jpeg"
	}
	return format
}

var menuSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"brandName":  {Type: genai.TypeString},
		"categories": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"price":    {Type: genai.TypeNumber},
					"category": {Type: genai.TypeString},
				},
				Required: []string{"name", "price", "category"},
			},
		},
	},
}
