package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// extractTabsPrompt asks the vision model for the three tabs. Field
// names deliberately match the canonical column synonyms so the guess
// normalizer resolves them without special cases.
const extractTabsPrompt = `You are reading a business document (an invoice, bill, or purchase record). Extract its content into structured JSON with exactly these three keys:

1. "InvoicesTab": records with serialNumber, customerName, productName, quantity, tax, totalAmount, date (YYYY-MM-DD).
2. "ProductsTab": records with name, quantity, unitPrice, tax, priceWithTax, discount (if applicable).
3. "CustomersTab": records with name, companyName, phoneNumber, email, address, totalPurchaseAmount.

Rules:
- If a field is not present in the document, leave it empty.
- Numeric fields must be numbers, not strings.
- Use a JSON array for each tab when there are multiple records.
- Return ONLY the JSON object, with no explanations and no markdown code blocks.`

// Gemini is a Collaborator that extracts tabs in-process using a Google
// Gemini vision model instead of a remote extraction service.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini collaborator.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *Gemini) ExtractTabs(ctx context.Context, file File) (*TabGuess, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	pngData, err := toPNG(file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(extractTabsPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnreachable, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no response from gemini", ErrServiceFailure)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return parseTabsJSON(responseText.String())
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// parseTabsJSON parses a model response into a tab guess, tolerating
// markdown fences and prose around the JSON object.
func parseTabsJSON(text string) (*TabGuess, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in model response", ErrMalformedResponse)
	}
	text = text[start : end+1]

	var guess TabGuess
	if err := json.Unmarshal([]byte(text), &guess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &guess, nil
}
