package reconcile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptoir/backoffice/internal/platform/db"
	"github.com/comptoir/backoffice/internal/sales/present"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("BACKOFFICE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("BACKOFFICE_TEST_PG_DSN not set")
	}
	pool, err := db.New(context.Background(), dsn, db.PoolOptions{MaxConns: 2, ApplicationName: "backoffice-test"})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestRepositorySaveAndList(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	runID := uuid.NewString()
	detected := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	finding := Finding{
		RunID:      runID,
		SaleID:     "s-" + runID,
		Reference:  "V-001",
		Field:      present.FieldTotalTax,
		Expected:   dec("2.00"),
		Stored:     dec("2.50"),
		Delta:      dec("0.50"),
		DetectedAt: detected,
	}

	require.NoError(t, repo.SaveFindings(ctx, []Finding{finding}))
	require.NoError(t, repo.SaveFindings(ctx, []Finding{finding}))

	listed, err := repo.ListFindings(ctx, 10)
	require.NoError(t, err)
	var matches []Finding
	for _, f := range listed {
		if f.RunID == runID {
			matches = append(matches, f)
		}
	}
	require.Len(t, matches, 1)
	got := matches[0]
	assert.NotZero(t, got.ID)
	assert.True(t, got.Delta.Equal(dec("0.5")))
	assert.True(t, got.Stored.Equal(dec("2.5")))
	assert.True(t, got.DetectedAt.Equal(detected))
}

func TestRepositoryNotInitialised(t *testing.T) {
	var repo *Repository
	assert.Error(t, repo.SaveFindings(context.Background(), []Finding{{}}))
	_, err := repo.ListFindings(context.Background(), 1)
	assert.Error(t, err)
}
