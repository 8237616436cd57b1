package replay_test

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/replayd/internal/replay"
)

const hierarchyDoc = `{"timestamp":1700000001000,"screenName":"Home","rootElement":{"type":"View","children":[{"type":"Button","label":"Buy"}]}}`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeHierarchy_GzipRoundTrip(t *testing.T) {
	t.Parallel()

	plain, err := replay.DecodeHierarchy([]byte(hierarchyDoc), "p/s1/hierarchy/1.json")
	require.NoError(t, err)

	compressed, err := replay.DecodeHierarchy(gzipBytes(t, []byte(hierarchyDoc)), "p/s1/hierarchy/1.json")
	require.NoError(t, err)

	assert.Equal(t, plain, compressed)
	assert.Equal(t, "Home", plain.ScreenName)
	assert.Equal(t, int64(1700000001000), plain.Timestamp)
	assert.Equal(t, "View", plain.RootElement.(map[string]any)["type"])
}

func TestDecodeHierarchy_RootAliases(t *testing.T) {
	t.Parallel()

	snap, err := replay.DecodeHierarchy([]byte(`{"screen":"Cart","root":{"type":"Stack"}}`), "k.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "Stack"}, snap.RootElement)
	assert.Equal(t, "Cart", snap.ScreenName)

	whole, err := replay.DecodeHierarchy([]byte(`{"type":"Window","children":[]}`), "k.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "Window", "children": []any{}}, whole.RootElement)
	assert.Zero(t, whole.Timestamp)
}

func TestDecodeHierarchy_MislabeledGzipKey(t *testing.T) {
	t.Parallel()

	snap, err := replay.DecodeHierarchy([]byte(hierarchyDoc), "p/s1/hierarchy/1.json.gz")
	require.NoError(t, err)
	assert.Equal(t, "Home", snap.ScreenName)
}

func TestDecodeHierarchy_Corrupt(t *testing.T) {
	t.Parallel()

	_, err := replay.DecodeHierarchy([]byte("{not json"), "k.json")
	require.Error(t, err)

	_, err = replay.DecodeHierarchy([]byte{0x1f, 0x8b, 0x00, 0x01}, "k.json")
	require.Error(t, err)
}

func TestIsGzip(t *testing.T) {
	t.Parallel()

	assert.True(t, replay.IsGzip([]byte{0x1f, 0x8b, 0x08}, "x.json"))
	assert.True(t, replay.IsGzip([]byte("{}"), "x.JSON.GZ"))
	assert.False(t, replay.IsGzip([]byte("{}"), "x.json"))
	assert.False(t, replay.IsGzip(nil, ""))
}

func TestSortSnapshots_Stable(t *testing.T) {
	t.Parallel()

	snaps := []replay.HierarchySnapshot{
		{Timestamp: 30, ScreenName: "c"},
		{Timestamp: 10, ScreenName: "a"},
		{Timestamp: 10, ScreenName: "b"},
		{Timestamp: 0, ScreenName: "z"},
	}
	replay.SortSnapshots(snaps)

	names := make([]string, 0, len(snaps))
	for _, s := range snaps {
		names = append(names, s.ScreenName)
	}
	assert.Equal(t, []string{"z", "a", "b", "c"}, names)
}
