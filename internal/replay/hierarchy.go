package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxHierarchyBytes caps a decompressed snapshot.
const maxHierarchyBytes = 64 << 20

// HierarchySnapshot is a captured UI tree at a point in the session.
type HierarchySnapshot struct {
	Timestamp   int64  `json:"timestamp"`
	ScreenName  string `json:"screenName,omitempty"`
	RootElement any    `json:"rootElement"`
}

// IsGzip reports whether data should be treated as gzip: either the magic
// bytes are present or the object key says so.
func IsGzip(data []byte, key string) bool {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return true
	}
	return strings.HasSuffix(strings.ToLower(key), ".gz")
}

// DecodeHierarchy decodes one stored hierarchy snapshot. Compressed data
// that fails to decompress is parsed as-is, since some objects carry a .gz
// key without being compressed. The root is taken from rootElement, then
// root, then the whole document.
func DecodeHierarchy(data []byte, key string) (HierarchySnapshot, error) {
	body := data
	if IsGzip(data, key) {
		if inflated, err := gunzip(data); err == nil {
			body = inflated
		}
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return HierarchySnapshot{}, fmt.Errorf("replay.DecodeHierarchy(%q): %w", key, err)
	}

	snap := HierarchySnapshot{RootElement: doc}
	if obj, ok := asRecord(doc); ok {
		if root, found := present(obj, []string{"rootElement", "root"}); found {
			snap.RootElement = root
		}
		snap.ScreenName = lookupString([]record{obj}, []string{"screenName", "screen"})
		if ts, found := toFloat(obj["timestamp"]); found && !math.IsNaN(ts) && !math.IsInf(ts, 0) {
			snap.Timestamp = int64(math.Round(ts))
		}
	}

	return snap, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("replay.gunzip: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, maxHierarchyBytes))
	if err != nil {
		return nil, fmt.Errorf("replay.gunzip: %w", err)
	}
	return out, nil
}

// SortSnapshots orders snapshots ascending by timestamp, keeping the input
// order for ties.
func SortSnapshots(snaps []HierarchySnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Timestamp < snaps[j].Timestamp
	})
}
