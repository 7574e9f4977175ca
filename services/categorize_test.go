package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCategorizer struct {
	got    []string
	result []CategorizedDescription
	err    error
}

func (f *fakeCategorizer) CategorizeDescriptions(_ context.Context, descriptions []string) ([]CategorizedDescription, error) {
	f.got = descriptions
	return f.result, f.err
}

func TestDedupeDescriptions(t *testing.T) {
	got := DedupeDescriptions([]string{"Coffee", "Rent", "Coffee", "Gym", "Rent"})
	assert.Equal(t, []string{"Coffee", "Rent", "Gym"}, got)
}

func TestBuildCategoryMapDedupesBeforeSubmitting(t *testing.T) {
	fake := &fakeCategorizer{
		result: []CategorizedDescription{
			{Description: "Coffee", Category: "Food & Dining"},
			{Description: "Gym", Category: "Healthcare"},
		},
	}

	categoryMap, n := BuildCategoryMap(context.Background(), fake, []string{"Coffee", "Coffee", "Gym"})

	assert.Equal(t, []string{"Coffee", "Gym"}, fake.got)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Food & Dining", CategoryFor(categoryMap, "Coffee"))
	assert.Equal(t, "Healthcare", CategoryFor(categoryMap, "Gym"))
}

func TestBuildCategoryMapClassifierFailure(t *testing.T) {
	fake := &fakeCategorizer{err: errors.New("quota exceeded")}

	categoryMap, n := BuildCategoryMap(context.Background(), fake, []string{"Coffee", "Gym"})

	assert.Equal(t, 0, n)
	assert.Empty(t, categoryMap)
	assert.Equal(t, DefaultCategory, CategoryFor(categoryMap, "Coffee"))
}

func TestBuildCategoryMapNoDescriptions(t *testing.T) {
	fake := &fakeCategorizer{}

	categoryMap, n := BuildCategoryMap(context.Background(), fake, nil)

	require.Nil(t, fake.got, "classifier should not be called with nothing to classify")
	assert.Equal(t, 0, n)
	assert.Empty(t, categoryMap)
}

func TestCategoryForSubsetResponse(t *testing.T) {
	fake := &fakeCategorizer{
		result: []CategorizedDescription{
			{Description: "Coffee", Category: "Food & Dining"},
			{Description: "Mystery", Category: ""},
		},
	}

	categoryMap, n := BuildCategoryMap(context.Background(), fake, []string{"Coffee", "Mystery", "Gym"})

	assert.Equal(t, 2, n)
	assert.Equal(t, "Food & Dining", CategoryFor(categoryMap, "Coffee"))
	// Blank labels and descriptions the classifier skipped both default.
	assert.Equal(t, DefaultCategory, CategoryFor(categoryMap, "Mystery"))
	assert.Equal(t, DefaultCategory, CategoryFor(categoryMap, "Gym"))
}
