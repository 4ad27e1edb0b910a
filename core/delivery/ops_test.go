package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/deliveryeta/core/model"
)

type memRepo struct {
	ref        model.ReferenceData
	deliveries []model.Delivery
	indexed    bool
	seedCalls  int
	lastFilter Filter
}

func (m *memRepo) SeedReference(_ context.Context, ref *model.ReferenceData) error {
	m.seedCalls++
	for i := range ref.PostOffices {
		ref.PostOffices[i].ID = int64(i + 1)
	}
	for i := range ref.DeliveryPersons {
		ref.DeliveryPersons[i].ID = int64(i + 1)
	}
	for i := range ref.Packages {
		ref.Packages[i].ID = int64(i + 1)
	}
	m.ref = *ref
	return nil
}

func (m *memRepo) Reference(context.Context) (model.ReferenceData, error) { return m.ref, nil }

func (m *memRepo) Insert(_ context.Context, ds []model.Delivery) (int, error) {
	m.deliveries = append(m.deliveries, ds...)
	return len(ds), nil
}

func (m *memRepo) List(_ context.Context, f Filter) ([]model.Delivery, error) {
	m.lastFilter = f
	if f.Mode == ScanIndexed && !m.indexed {
		return nil, errors.New("no such index")
	}
	var out []model.Delivery
	for _, d := range m.deliveries {
		if f.TrafficLevel == "" || d.TrafficLevel == f.TrafficLevel {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRepo) EnsureTrafficIndex(context.Context) error {
	m.indexed = true
	return nil
}

func (m *memRepo) Close() error { return nil }

func TestSeed_ReusesReference(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	gen := NewGenerator(1)

	res, err := Seed(ctx, repo, gen, SeedOptions{Offices: 2, People: 3, Packages: 4, Deliveries: 50})
	require.NoError(t, err)
	assert.True(t, res.ReferenceSeeded)
	assert.Equal(t, 50, res.Deliveries)

	res, err = Seed(ctx, repo, gen, SeedOptions{Offices: 2, People: 3, Packages: 4, Deliveries: 10})
	require.NoError(t, err)
	assert.False(t, res.ReferenceSeeded)
	assert.Equal(t, 1, repo.seedCalls)
	assert.Len(t, repo.deliveries, 60)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	repo := &memRepo{}
	_, err := Seed(ctx, repo, NewGenerator(3), DefaultSeed)
	require.NoError(t, err)

	want := 0
	for _, d := range repo.deliveries {
		if d.TrafficLevel == model.TrafficLow {
			want++
		}
	}

	full, err := Lookup(ctx, repo, model.TrafficLow, ScanFull)
	require.NoError(t, err)
	assert.Equal(t, want, full.Count)
	assert.False(t, repo.indexed)

	idx, err := Lookup(ctx, repo, model.TrafficLow, ScanIndexed)
	require.NoError(t, err)
	assert.Equal(t, want, idx.Count)
	assert.True(t, repo.indexed)
	assert.Equal(t, ScanIndexed, repo.lastFilter.Mode)
	assert.GreaterOrEqual(t, idx.TimeTakenSec, 0.0)

	_, err = Lookup(ctx, repo, "", ScanFull)
	assert.Error(t, err)
}
