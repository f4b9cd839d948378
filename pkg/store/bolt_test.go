package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backkem/matter-appliances/pkg/clusters"
	"github.com/backkem/matter-appliances/pkg/clusters/refrigeratormode"
	"github.com/backkem/matter-appliances/pkg/datamodel"
	"github.com/backkem/matter-appliances/pkg/report"
)

func newTestStore(t *testing.T) (*BoltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestLoadStore(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Load("1/0052/0002")
	assert.ErrorIs(t, err, clusters.ErrNotFound)

	require.NoError(t, s.Store("1/0052/0002", []byte{0x24, 0x01}))
	got, err := s.Load("1/0052/0002")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x24, 0x01}, got)

	at, err := s.UpdatedAt("1/0052/0002")
	require.NoError(t, err)
	assert.False(t, at.IsZero())
}

func TestReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Store("k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestClosed(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Load("k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Store("k", nil), ErrClosed)
}

func TestRefrigeratorModePersistence(t *testing.T) {
	s, _ := newTestStore(t)

	c, err := refrigeratormode.New(refrigeratormode.Config{EndpointID: 1, Storage: s})
	require.NoError(t, err)
	_, err = c.SetStartUpMode(datamodel.NewNullable[uint8](2))
	require.NoError(t, err)

	restored, err := refrigeratormode.New(refrigeratormode.Config{EndpointID: 1, Storage: s})
	require.NoError(t, err)
	assert.Equal(t, datamodel.NewNullable[uint8](2), restored.StartUpMode())
	assert.Equal(t, uint8(2), restored.CurrentMode())
}

func TestSnapshots(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	snap := &report.Snapshot{
		NodeID:      "node-1",
		Endpoint:    1,
		Cluster:     0x0402,
		DataVersion: 42,
		Attributes: map[datamodel.AttributeID]any{
			0: int64(-150),
			1: "label",
		},
	}
	require.NoError(t, s.Publish(ctx, snap))

	snap2 := *snap
	snap2.DataVersion = 43
	require.NoError(t, s.Publish(ctx, &snap2))

	got, err := s.Snapshot(datamodel.ConcreteClusterPath{Endpoint: 1, Cluster: 0x0402})
	require.NoError(t, err)
	assert.Equal(t, "node-1", got.NodeID)
	assert.Equal(t, datamodel.DataVersion(43), got.DataVersion)
	assert.EqualValues(t, -150, got.Attributes[0])
	assert.Equal(t, "label", got.Attributes[1])

	_, err = s.Snapshot(datamodel.ConcreteClusterPath{Endpoint: 2, Cluster: 0x0402})
	assert.ErrorIs(t, err, clusters.ErrNotFound)

	all, err := s.Snapshots()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
