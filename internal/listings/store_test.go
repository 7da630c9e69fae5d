package listings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/millennium/areamatch/internal/geo"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "houses.db"), geo.Azerbaijan)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func draft(title string, lat, lon, price float64) Draft {
	return Draft{
		Title:       ptr(title),
		Address:     ptr("Nizami st. 1"),
		Latitude:    ptr(lat),
		Longitude:   ptr(lon),
		Price:       ptr(price),
		Description: ptr("two rooms"),
	}
}

func TestAdd_DefaultsAndIDs(t *testing.T) {
	s := openTemp(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	a, err := s.Add(ctx, draft("A", 40.41, 49.86, 100000))
	require.NoError(t, err)
	b, err := s.Add(ctx, draft("B", 40.42, 49.87, 150000))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, DefaultSellerName, a.SellerName)
	assert.Zero(t, a.Bedrooms)
	assert.Zero(t, a.Area)

	got, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)
	assert.True(t, fixed.Equal(got.CreatedAt))

	_, err = s.Get(ctx, 99)
	assert.True(t, IsNotFound(err))
}

func TestAdd_Validation(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	d := draft("A", 40.41, 49.86, 1)
	d.Price = nil
	_, err := s.Add(ctx, d)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "missing required field: price")

	d = draft("A", 40.41, 49.86, 1)
	d.Title = nil
	d.Description = nil
	_, err = s.Add(ctx, d)
	assert.Contains(t, err.Error(), "title")

	_, err = s.Add(ctx, draft("London", 51.5, -0.12, 1))
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "houses.db")
	ctx := context.Background()

	s, err := Open(ctx, path, geo.Azerbaijan)
	require.NoError(t, err)
	_, err = s.Add(ctx, draft("A", 40.41, 49.86, 1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, geo.Azerbaijan)
	require.NoError(t, err)
	defer s.Close()
	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].Title)
}

func TestList_QualityScores(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for _, p := range []float64{200, 100, 150} {
		_, err := s.Add(ctx, draft("h", 40.41, 49.86, p))
		require.NoError(t, err)
	}
	ls, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, ls, 3)
	assert.Equal(t, 0.0, *ls[0].QualityScore)
	assert.Equal(t, 100.0, *ls[1].QualityScore)
	assert.Equal(t, 50.0, *ls[2].QualityScore)
}

func TestQualityScores_EqualPrices(t *testing.T) {
	ls := []Listing{{Price: 10}, {Price: 10}}
	QualityScores(ls)
	assert.Equal(t, 100.0, *ls[0].QualityScore)
	assert.Equal(t, 100.0, *ls[1].QualityScore)

	QualityScores(nil)
}

func TestInPriceRange(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for _, p := range []float64{50, 100, 150} {
		_, err := s.Add(ctx, draft("h", 40.41, 49.86, p))
		require.NoError(t, err)
	}
	ls, err := s.InPriceRange(ctx, 100, 150)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, 100.0, ls[0].Price)
}
