package preference

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palatehq/palate-platform/pkg/config"
	"github.com/palatehq/palate-platform/pkg/postgres"
)

// setupTestStore connects to a test database. Requires a PostgreSQL
// instance with the pgvector extension available.
func setupTestStore(t *testing.T) *PostgresStore {
	t.Skip("Integration test - requires PostgreSQL with pgvector")

	cfg := config.NewConfig()
	cfg.PostgresDB = "palate_test"
	logger := slog.Default()

	client := postgres.NewClient(cfg, logger)
	require.NoError(t, client.Connect(context.Background()))

	store := NewPostgresStore(client, logger)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestPostgresStore_ProfileRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	loaded, err := store.LoadProfile(ctx, "test-user")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	profile := DefaultProfile()
	profile.IngredientScores["chicken"] = 1.1
	require.NoError(t, store.SaveProfile(ctx, "test-user", profile))

	loaded, err = store.LoadProfile(ctx, "test-user")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1.1, loaded.IngredientScores["chicken"])
}

func TestPostgresStore_SimilarRatings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	extractor := NewExtractor(nil)

	now := time.Now()
	records := []RatingRecord{
		{ID: uuid.New(), MealName: "Grilled Chicken", Rating: 5,
			Features: extractor.Extract("Grilled Chicken"), CreatedAt: now},
		{ID: uuid.New(), MealName: "Chocolate Cake", Rating: 4,
			Features: extractor.Extract("Chocolate Cake"), CreatedAt: now},
	}
	require.NoError(t, store.SaveRatingHistory(ctx, "test-user", records))

	vec := extractor.Extract("Grilled Chicken with Broccoli").Vector()
	similar, err := store.SimilarRatings(ctx, "test-user", vec, 1)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "Grilled Chicken", similar[0].MealName)
}
