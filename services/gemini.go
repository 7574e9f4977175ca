package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/spendwise-app/spendwise-api/models"
)

// ============================================================================
// GEMINI SERVICE
// One process-scoped client, created on first use. Both the transaction
// classifier and the narrative generator go through it.
// ============================================================================

const geminiModel = "gemini-2.5-flash"

// categoryLabels is the closed label set the classifier must choose from.
var categoryLabels = []string{
	"Food & Dining", "Rent & Housing", "Utilities", "Shopping", "Entertainment",
	"Transportation", "Healthcare", "Education", "Salary", "Savings", "Other",
}

type CategorizedDescription struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

type GeminiService struct {
	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiService() *GeminiService {
	return &GeminiService{}
}

func (s *GeminiService) getClient(ctx context.Context) (*genai.Client, error) {
	s.once.Do(func() {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			s.initErr = fmt.Errorf("GEMINI_API_KEY is not configured")
			return
		}
		s.client, s.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		})
	})
	return s.client, s.initErr
}

func (s *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// CategorizeDescriptions classifies each description into one label from the
// closed set, preserving submission order. Callers must treat any error as
// total classifier failure and fall back to "Uncategorized".
func (s *GeminiService) CategorizeDescriptions(ctx context.Context, descriptions []string) ([]CategorizedDescription, error) {
	input, err := json.Marshal(descriptions)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`Categorize each transaction description into ONE of these categories:
%s

Input descriptions: %s

Return ONLY a valid JSON array of objects (no markdown, no extra text):
[{ "description": "...", "category": "..." }, ...]

Ensure the response is valid JSON only.`, strings.Join(categoryLabels, ", "), string(input))

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := extractJSONArray(text)
	if !ok {
		return nil, fmt.Errorf("could not extract JSON from model response")
	}

	var categorized []CategorizedDescription
	if err := json.Unmarshal([]byte(raw), &categorized); err != nil {
		return nil, fmt.Errorf("unmarshal categorization response: %w", err)
	}

	log.Printf("✅ Categorized %d descriptions", len(categorized))
	return categorized, nil
}

// GenerateInsights asks the model for a narrative analysis of the summary plus
// a bounded sample of recent transactions.
func (s *GeminiService) GenerateInsights(ctx context.Context, summary models.SpendingSummary, sample []models.Transaction) (string, error) {
	var topCategories strings.Builder
	for _, c := range summary.TopCategories {
		fmt.Fprintf(&topCategories, "      %s: $%.2f\n", c.Category, c.Amount)
	}

	var sampleLines strings.Builder
	for i, t := range sample {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sampleLines, "      - %s: $%.2f on %s (%s)\n",
			t.Date.Format("2006-01-02"), t.Amount, t.Description, t.Category)
	}

	prompt := fmt.Sprintf(`You are a financial advisor. Analyze this user's spending and provide actionable insights:

📊 Spending Summary:
- Total Spend: $%.2f
- Monthly Average: $%.2f
- Transaction Count: %d
- Top Categories:
%s
Spending Period: %s to %s

Sample Transactions (last 10):
%s
Provide a brief intro sentence, followed by 5-7 actionable insights as bullet points.

Use this EXACT format:
Here's an analysis of your spending with actionable recommendations:

* **Title:** Explanation and specific recommendation
* **Title:** Explanation and specific recommendation

Keep each point concise (2-3 sentences max). Be specific and actionable.
Focus on: budgeting, savings opportunities, spending patterns, and financial goals.`,
		summary.TotalSpend,
		summary.MonthlyAverage,
		summary.TransactionCount,
		topCategories.String(),
		summary.DateRange.Start.Format("Mon Jan 2 2006"),
		summary.DateRange.End.Format("Mon Jan 2 2006"),
		sampleLines.String(),
	)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	log.Println("✅ Generated spending insights")
	return text, nil
}

// extractJSONArray pulls the first top-level JSON array out of model output,
// tolerating markdown fences and surrounding prose.
func extractJSONArray(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
