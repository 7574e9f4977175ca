package services

import (
	"context"
	"log"
)

// DefaultCategory is applied whenever the classifier fails or returns no
// label for a description.
const DefaultCategory = "Uncategorized"

// Categorizer classifies description strings against a closed label set.
// Implemented by GeminiService; faked in tests.
type Categorizer interface {
	CategorizeDescriptions(ctx context.Context, descriptions []string) ([]CategorizedDescription, error)
}

// ============================================================================
// CATEGORIZATION MERGER
// Best-effort: categorization is an enhancement, never a requirement for the
// records to exist. Total classifier failure maps everything to the default.
// ============================================================================

// DedupeDescriptions returns the distinct descriptions in first-seen order.
func DedupeDescriptions(descriptions []string) []string {
	seen := make(map[string]bool, len(descriptions))
	distinct := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		if !seen[d] {
			seen[d] = true
			distinct = append(distinct, d)
		}
	}
	return distinct
}

// BuildCategoryMap submits the distinct descriptions and indexes the labels
// the classifier returned by exact description string. The second return is
// how many labels came back, for upload reporting.
func BuildCategoryMap(ctx context.Context, categorizer Categorizer, descriptions []string) (map[string]string, int) {
	distinct := DedupeDescriptions(descriptions)
	if len(distinct) == 0 {
		return map[string]string{}, 0
	}

	categorized, err := categorizer.CategorizeDescriptions(ctx, distinct)
	if err != nil {
		log.Printf("⚠️ Categorization failed, proceeding without AI categorization: %v", err)
		return map[string]string{}, 0
	}

	categoryMap := make(map[string]string, len(categorized))
	for _, c := range categorized {
		if c.Category != "" {
			categoryMap[c.Description] = c.Category
		}
	}
	return categoryMap, len(categorized)
}

// CategoryFor resolves a description against the classifier output,
// defaulting when the classifier returned a subset.
func CategoryFor(categoryMap map[string]string, description string) string {
	if category, ok := categoryMap[description]; ok {
		return category
	}
	return DefaultCategory
}
