package dataset

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/generator"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/groundtruth"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

func defaultTable(t *testing.T, seed int64) *Table {
	t.Helper()
	tbl, err := NewTable(config.DefaultReceiptSpec().Splits, seed)
	require.NoError(t, err)
	return tbl
}

func testSample() *generator.Sample {
	return &generator.Sample{
		Image:   imaging.New(20, 30, color.NRGBA{200, 200, 200, 255}),
		Quality: 80,
		Data: groundtruth.Data{
			Shop: groundtruth.Shop{Name: "Biedronka"},
			Products: []groundtruth.Product{{
				Name:       "Chleb",
				Quantity:   groundtruth.NewAmount(decimal.NewFromInt(2)),
				Unit:       "szt.",
				UnitPrice:  groundtruth.NewAmount(decimal.RequireFromString("3.85")),
				TotalPrice: groundtruth.NewAmount(decimal.RequireFromString("7.70")),
			}},
			Total: groundtruth.NewAmount(decimal.RequireFromString("7.70")),
		},
	}
}

func TestTable_Reproducible(t *testing.T) {
	a := defaultTable(t, 42)
	b := defaultTable(t, 42)

	for i := 0; i < 2*a.Len(); i += 37 {
		assert.Equal(t, a.Split(i), b.Split(i))
	}
	assert.Equal(t, a.Split(5), a.Split(5+a.Len()))
}

func TestTable_Proportions(t *testing.T) {
	tbl := defaultTable(t, 7)

	counts := map[string]int{}
	for i := 0; i < tbl.Len(); i++ {
		counts[tbl.Split(i)]++
	}
	n := float64(tbl.Len())
	assert.InDelta(t, 0.70, float64(counts[SplitTrain])/n, 0.02)
	assert.InDelta(t, 0.15, float64(counts[SplitValidation])/n, 0.02)
	assert.InDelta(t, 0.15, float64(counts[SplitTest])/n, 0.02)
}

func TestNewTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec config.SplitSpec
	}{
		{"wrong ratio count", config.SplitSpec{Ratios: []float64{1, 0}, TableSize: 10}},
		{"zero size", config.SplitSpec{Ratios: []float64{1, 1, 1}, TableSize: 0}},
		{"all zero", config.SplitSpec{Ratios: []float64{0, 0, 0}, TableSize: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.spec, 1)
			assert.ErrorIs(t, err, ErrSplitTable)
		})
	}
}

func TestEncodeRecord(t *testing.T) {
	line, err := EncodeRecord("train/receipt_3.jpg", testSample().Data)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), line[len(line)-1])

	var rec Record
	require.NoError(t, json.Unmarshal(line, &rec))
	assert.Equal(t, "train/receipt_3.jpg", rec.FileName)
	assert.JSONEq(t,
		`{"gt_parse":{"shop":{"name":"Biedronka"},"products":[{"name":"Chleb","quantity":2,"unit":"szt.","unit_price":3.85,"total_price":7.7}],"total":7.7}}`,
		rec.GroundTruth)
}

func TestWriter_Save(t *testing.T) {
	root := t.TempDir()
	tbl := defaultTable(t, 42)
	w := NewWriter(root, tbl, logger.Nop())

	for i := 0; i < 5; i++ {
		split, err := w.Save(testSample(), i)
		require.NoError(t, err)
		assert.Equal(t, tbl.Split(i), split)

		img, err := imaging.Open(filepath.Join(root, split, "receipt_"+strconv.Itoa(i)+".jpg"))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(20, 30), img.Bounds().Size())
	}

	total := 0
	for _, split := range Splits {
		lines := readLines(t, filepath.Join(root, split, "metadata_"+split+".jsonl"))
		for _, l := range lines {
			var rec Record
			require.NoError(t, json.Unmarshal([]byte(l), &rec))
			_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rec.FileName)))
			assert.NoError(t, err)
		}
		total += len(lines)
	}
	assert.Equal(t, 5, total)

	counts := w.Counts()
	sum := 0
	for _, c := range counts {
		sum += c
	}
	assert.Equal(t, 5, sum)
	w.EndSave()
}

func TestWriter_ConcurrentAppends(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, defaultTable(t, 3), nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := w.Save(testSample(), i)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	total := 0
	for _, split := range Splits {
		for _, l := range readLines(t, filepath.Join(root, split, "metadata_"+split+".jsonl")) {
			var rec Record
			require.NoError(t, json.Unmarshal([]byte(l), &rec), "corrupt line %q", l)
			total++
		}
	}
	assert.Equal(t, 40, total)
}

func TestWriter_SaveFailsOnBadRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	w := NewWriter(root, defaultTable(t, 1), nil)
	_, err := w.Save(testSample(), 0)
	assert.Error(t, err)
}

func TestWriter_SaveIsIdempotentPerIndex(t *testing.T) {
	root := t.TempDir()
	tbl := defaultTable(t, 42)
	w := NewWriter(root, tbl, nil)

	split, err := w.Save(testSample(), 3)
	require.NoError(t, err)

	again, err := w.Save(testSample(), 3)
	assert.ErrorIs(t, err, ErrAlreadySaved)
	assert.Equal(t, split, again)

	// un writer nuevo sobre la misma salida lee los metadatos existentes
	fresh := NewWriter(root, tbl, nil)
	recorded, err := fresh.Recorded(3)
	require.NoError(t, err)
	assert.True(t, recorded)
	_, err = fresh.Save(testSample(), 3)
	assert.ErrorIs(t, err, ErrAlreadySaved)

	recorded, err = fresh.Recorded(4)
	require.NoError(t, err)
	assert.False(t, recorded)

	assert.Len(t, readLines(t, filepath.Join(root, split, "metadata_"+split+".jsonl")), 1)
	assert.Equal(t, map[string]int{split: 1}, w.Counts())
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestWriter_CleanupTemp(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, SplitTrain)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	stale := filepath.Join(dir, "receipt_1.jpg.tmp")
	fresh := filepath.Join(dir, "receipt_2.jpg.tmp")
	keep := filepath.Join(dir, "receipt_3.jpg")
	for _, p := range []string{stale, fresh, keep} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	w := NewWriter(root, defaultTable(t, 1), nil)
	n, err := w.CleanupTemp(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
	assert.FileExists(t, keep)
}

func TestWriter_CleanupTempMissingRoot(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "nope"), defaultTable(t, 1), nil)
	n, err := w.CleanupTemp(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}
