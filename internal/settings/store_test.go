package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bbolt "go.etcd.io/bbolt"

	"github.com/relabs-tech/gyro_heading/internal/orientation"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestGetFloat64DefaultsToZero(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	v, err := s.GetFloat64("missing")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestPutGetFloat64(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	require.NoError(t, s.PutFloat64("k", -1.25e-3))
	v, err := s.GetFloat64("k")
	require.NoError(t, err)
	assert.Equal(t, -1.25e-3, v)
}

func TestDriftPersistsAcrossReopen(t *testing.T) {
	s, path := openTestStore(t)

	d, err := s.LoadDrift()
	require.NoError(t, err)
	assert.Equal(t, orientation.DriftOffset{}, d)

	want := orientation.DriftOffset{X: 0.0012, Y: -0.0031, Z: 0.0007}
	require.NoError(t, s.SaveDrift(want))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadDrift()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	z, err := s.GetFloat64(KeyDriftZ)
	require.NoError(t, err)
	assert.Equal(t, want.Z, z)
}

func TestCorruptValue(t *testing.T) {
	s, _ := openTestStore(t)
	defer s.Close()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketPrefs).Put([]byte(KeyDriftX), []byte{1, 2, 3})
	})
	require.NoError(t, err)

	_, err = s.LoadDrift()
	assert.Error(t, err)
	_, err = s.GetFloat64(KeyDriftX)
	assert.Error(t, err)
}
