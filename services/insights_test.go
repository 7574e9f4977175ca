package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendwise-app/spendwise-api/models"
)

type fakeTransactionLister struct {
	transactions []models.Transaction
	err          error
}

func (f *fakeTransactionLister) ListByUser(context.Context, string) ([]models.Transaction, error) {
	return f.transactions, f.err
}

type fakeInsightStore struct {
	latest   *models.Insight
	inserted *models.Insight
}

func (f *fakeInsightStore) Latest(context.Context, string) (*models.Insight, error) {
	return f.latest, nil
}

func (f *fakeInsightStore) Insert(_ context.Context, insight *models.Insight) (*models.Insight, error) {
	f.inserted = insight
	saved := *insight
	saved.ID = "insight-1"
	saved.CreatedAt = insight.GeneratedAt
	return &saved, nil
}

type fakeGenerator struct {
	calls  int
	sample []models.Transaction
	text   string
	err    error
}

func (f *fakeGenerator) GenerateInsights(_ context.Context, _ models.SpendingSummary, sample []models.Transaction) (string, error) {
	f.calls++
	f.sample = sample
	return f.text, f.err
}

func newInsightServiceForTest(lister *fakeTransactionLister, store *fakeInsightStore, gen *fakeGenerator, now time.Time) *InsightService {
	svc := NewInsightService(lister, store, gen)
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetInsightsReturnsFreshCache(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cached := &models.Insight{
		UserID:      "u1",
		InsightText: "Spend less on coffee.",
		Summary:     models.SpendingSummary{TotalSpend: 100},
		GeneratedAt: now.Add(-23*time.Hour - 59*time.Minute),
		CreatedAt:   now.Add(-23*time.Hour - 59*time.Minute),
	}
	gen := &fakeGenerator{text: "should not be used"}
	svc := newInsightServiceForTest(&fakeTransactionLister{}, &fakeInsightStore{latest: cached}, gen, now)

	resp, err := svc.GetInsights(context.Background(), "u1")
	require.NoError(t, err)

	assert.True(t, resp.Cached)
	assert.Equal(t, "Spend less on coffee.", resp.Insights)
	assert.Equal(t, cached.GeneratedAt, resp.GeneratedAt)
	assert.Equal(t, 0, gen.calls)
}

func TestGetInsightsExactWindowIsStale(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cached := &models.Insight{
		UserID:      "u1",
		InsightText: "old",
		GeneratedAt: now.Add(-24 * time.Hour),
		CreatedAt:   now.Add(-24 * time.Hour),
	}
	lister := &fakeTransactionLister{transactions: []models.Transaction{
		{Date: now.AddDate(0, 0, -1), Amount: 10, Category: "Food"},
	}}
	gen := &fakeGenerator{text: "fresh take"}
	store := &fakeInsightStore{latest: cached}
	svc := newInsightServiceForTest(lister, store, gen, now)

	resp, err := svc.GetInsights(context.Background(), "u1")
	require.NoError(t, err)

	assert.False(t, resp.Cached)
	assert.Equal(t, "fresh take", resp.Insights)
	assert.Equal(t, 1, gen.calls)
	require.NotNil(t, store.inserted)
	assert.Equal(t, "fresh take", store.inserted.InsightText)
}

func TestGetInsightsNoTransactions(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	gen := &fakeGenerator{}
	store := &fakeInsightStore{}
	svc := newInsightServiceForTest(&fakeTransactionLister{}, store, gen, now)

	resp, err := svc.GetInsights(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "No transactions found. Upload your spending data to get insights.", resp.Insights)
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.Summary)
	assert.Equal(t, 0, gen.calls)
	assert.Nil(t, store.inserted, "empty-data message must not be persisted")
}

func TestGetInsightsGeneratorFailureNotPersisted(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lister := &fakeTransactionLister{transactions: []models.Transaction{
		{Date: now.AddDate(0, 0, -1), Amount: 50, Category: "Food"},
	}}
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	store := &fakeInsightStore{}
	svc := newInsightServiceForTest(lister, store, gen, now)

	resp, err := svc.GetInsights(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "Unable to generate insights at this time. Please try again later.", resp.Insights)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 50.00, resp.Summary.TotalSpend)
	assert.False(t, resp.Cached)
	assert.Nil(t, store.inserted, "failed generations must not poison the cache")
}

func TestGetInsightsSampleCap(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Store order is most-recent-first; the cap must keep that prefix.
	transactions := make([]models.Transaction, 0, 25)
	for i := 0; i < 25; i++ {
		transactions = append(transactions, models.Transaction{
			Date:        now.AddDate(0, 0, -i),
			Amount:      10,
			Description: "tx",
			Category:    "Food",
		})
	}

	gen := &fakeGenerator{text: "ok"}
	svc := newInsightServiceForTest(&fakeTransactionLister{transactions: transactions}, &fakeInsightStore{}, gen, now)

	_, err := svc.GetInsights(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, gen.sample, 20)
	assert.Equal(t, transactions[0].Date, gen.sample[0].Date)
}
