package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micromics/expt"
	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/matrix"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "expt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func storeFixture(t *testing.T) *expt.Experiment {
	t.Helper()
	smd, err := frame.New([]string{"S1", "S2"})
	require.NoError(t, err)
	require.NoError(t, smd.SetColumn("group", []string{"a", "b"}))
	fmd, err := frame.New([]string{"F1", "F2", "F3"})
	require.NoError(t, err)
	require.NoError(t, fmd.SetColumn("taxonomy", []string{"t1", "t2", "t3"}))
	e, err := expt.New(matrix.NewDense(2, 3, []float64{1, 0, 3, 0, 5, 6}), smd, fmd, "stored")
	require.NoError(t, err)
	return e
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	e := storeFixture(t)
	e.Metadata["normalized"] = 10000.0

	id, err := s.Put(e)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, matrix.EqualApprox(e.Data, got.Data, 1e-12))
	assert.Equal(t, e.SampleMetadata.IDs(), got.SampleMetadata.IDs())
	assert.Equal(t, e.FeatureMetadata.IDs(), got.FeatureMetadata.IDs())
	assert.Equal(t, "stored", got.Description)
	assert.Equal(t, 10000.0, got.Metadata["normalized"])
	assert.Equal(t, id, got.Metadata["experiment_id"])

	group, err := got.SampleMetadata.Column("group")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, group)
}

func TestPutKeepsProvenanceID(t *testing.T) {
	s := openTestStore(t)
	e := storeFixture(t)
	e.Metadata["experiment_id"] = "fixed-id"

	id, err := s.Put(e)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	// storing again under the same id replaces, not duplicates
	_, err = s.Put(e)
	require.NoError(t, err)
	infos, err := s.List()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	e := storeFixture(t)

	_, err := s.Put(e)
	require.NoError(t, err)
	e2 := e.Copy()
	e2.Description = "second"
	e2.Metadata["experiment_id"] = "second-id"
	_, err = s.Put(e2)
	require.NoError(t, err)

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, 2, info.Samples)
		assert.Equal(t, 3, info.Features)
		assert.False(t, info.CreatedAt.IsZero())
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	id, err := s.Put(storeFixture(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(id))
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(id), ErrNotFound)
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expt.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Put(storeFixture(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// reopening runs migrations again without error or data loss
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "stored", got.Description)
}
