package runner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/dataset"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

func TestRanges(t *testing.T) {
	tests := []struct {
		name               string
		start, count, size int
		want               []Range
	}{
		{"exact", 0, 6, 3, []Range{{0, 3}, {3, 6}}},
		{"remainder", 10, 5, 2, []Range{{10, 12}, {12, 14}, {14, 15}}},
		{"empty", 0, 0, 4, nil},
		{"size below one", 0, 2, 0, []Range{{0, 1}, {1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ranges(tt.start, tt.count, tt.size))
		})
	}
}

func smallSpec() *config.ReceiptSpec {
	spec := config.DefaultReceiptSpec()
	spec.ShortSize = config.IntRange{200, 220}
	spec.Document.ShortSize = config.IntRange{160, 180}
	spec.Document.Content.ProductsCount = config.IntRange{2, 4}
	return spec
}

func newJob(t *testing.T, root string) *Job {
	t.Helper()
	spec := smallSpec()
	table, err := dataset.NewTable(spec.Splits, 5)
	require.NoError(t, err)
	return &Job{
		Spec:        spec,
		Seed:        5,
		Now:         time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		MaxAttempts: 5,
		Writer:      dataset.NewWriter(root, table, logger.Nop()),
		Logger:      logger.Nop(),
	}
}

func listFiles(t *testing.T, root string) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".jpg" {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		out[rel] = data
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestRun_IndependentOfWorkers(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	ranges := Ranges(0, 6, 2)

	_, err := Run(context.Background(), newJob(t, rootA), ranges, 1)
	require.NoError(t, err)
	_, err = Run(context.Background(), newJob(t, rootB), ranges, 3)
	require.NoError(t, err)

	a, b := listFiles(t, rootA), listFiles(t, rootB)
	require.Len(t, a, 6)
	assert.Equal(t, a, b)
}

type memTracker struct {
	mu    sync.Mutex
	saved map[int]string
}

func (m *memTracker) IsSaved(_ context.Context, index int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[index]
	return ok, nil
}

func (m *memTracker) MarkSaved(_ context.Context, index int, split string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[index] = split
	return nil
}

func (m *memTracker) MarkFailed(context.Context, int) error { return nil }

func TestRunRange_SkipsSavedIndices(t *testing.T) {
	job := newJob(t, t.TempDir())
	tracker := &memTracker{saved: map[int]string{1: "train"}}
	job.Tracker = tracker

	res, err := RunRange(context.Background(), job, Range{0, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, 1, res.Skipped)

	keys := make([]int, 0, len(tracker.saved))
	for k := range tracker.saved {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	assert.Equal(t, []int{0, 1, 2}, keys)
}

func TestRunRange_RetryWithoutTrackerDoesNotDuplicate(t *testing.T) {
	root := t.TempDir()
	job := newJob(t, root)

	res, err := RunRange(context.Background(), job, Range{0, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Saved)

	retry := newJob(t, root)
	res, err = RunRange(context.Background(), retry, Range{0, 3})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	assert.Equal(t, 3, res.Skipped)

	lines := 0
	for _, split := range dataset.Splits {
		data, err := os.ReadFile(filepath.Join(root, split, "metadata_"+split+".jsonl"))
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		lines += strings.Count(string(data), "\n")
	}
	assert.Equal(t, 3, lines)
}

func TestRunRange_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunRange(ctx, newJob(t, t.TempDir()), Range{0, 2})
	assert.ErrorIs(t, err, context.Canceled)
}
