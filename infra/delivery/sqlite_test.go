package delivery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredelivery "github.com/kilianp07/deliveryeta/core/delivery"
	"github.com/kilianp07/deliveryeta/core/model"
)

func seeded(t *testing.T) (*SQLiteRepository, model.ReferenceData) {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "deliveries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	gen := coredelivery.NewGenerator(42)
	ref := gen.Reference(2, 5, 5)
	require.NoError(t, repo.SeedReference(context.Background(), &ref))
	return repo, ref
}

func TestSQLiteRepository_SeedAndReference(t *testing.T) {
	repo, ref := seeded(t)
	for _, p := range ref.DeliveryPersons {
		assert.NotZero(t, p.ID)
		assert.NotZero(t, p.VehicleID)
	}
	got, err := repo.Reference(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestSQLiteRepository_ListModes(t *testing.T) {
	ctx := context.Background()
	repo, ref := seeded(t)
	ds, err := coredelivery.NewGenerator(7).Deliveries(ref, 200)
	require.NoError(t, err)
	n, err := repo.Insert(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 200, n)

	want := 0
	for _, d := range ds {
		if d.TrafficLevel == model.TrafficHigh {
			want++
		}
	}

	full, err := repo.List(ctx, coredelivery.Filter{TrafficLevel: model.TrafficHigh, Mode: coredelivery.ScanFull})
	require.NoError(t, err)
	assert.Len(t, full, want)

	_, err = repo.List(ctx, coredelivery.Filter{TrafficLevel: model.TrafficHigh, Mode: coredelivery.ScanIndexed})
	assert.Error(t, err, "index hint without index")

	require.NoError(t, repo.EnsureTrafficIndex(ctx))
	require.NoError(t, repo.EnsureTrafficIndex(ctx))
	indexed, err := repo.List(ctx, coredelivery.Filter{TrafficLevel: model.TrafficHigh, Mode: coredelivery.ScanIndexed})
	require.NoError(t, err)
	assert.Equal(t, full, indexed)

	limited, err := repo.List(ctx, coredelivery.Filter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, limited, 10)
	assert.Equal(t, ds[0].DeliveredAt.UnixNano(), limited[0].DeliveredAt.UnixNano())
}
