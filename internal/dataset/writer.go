package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/generator"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/groundtruth"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/metrics"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// ErrAlreadySaved el índice ya tiene línea en el archivo de metadatos de su split
var ErrAlreadySaved = errors.New("sample already recorded")

// Record línea de metadatos. GroundTruth es JSON codificado como string.
type Record struct {
	FileName    string `json:"file_name"`
	GroundTruth string `json:"ground_truth"`
}

// Parse estructura dentro de gt_parse
type Parse struct {
	Shop     groundtruth.Shop      `json:"shop"`
	Products []groundtruth.Product `json:"products"`
	Total    groundtruth.Amount    `json:"total"`
}

type envelope struct {
	GTParse Parse `json:"gt_parse"`
}

// Writer persiste muestras bajo root. Seguro para uso concurrente: cada
// archivo de metadatos tiene su propio mutex.
type Writer struct {
	root   string
	table  *Table
	logger *logger.Logger

	mu     sync.Mutex
	files  map[string]*metadataFile
	counts map[string]int
}

// metadataFile un JSONL de split y los file_name que ya contiene. names se
// carga del disco en el primer uso.
type metadataFile struct {
	mu    sync.Mutex
	path  string
	names map[string]bool
}

// NewWriter crea un writer sobre root
func NewWriter(root string, table *Table, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.Nop()
	}
	return &Writer{
		root:   root,
		table:  table,
		logger: log,
		files:  make(map[string]*metadataFile),
		counts: make(map[string]int),
	}
}

// Root directorio de salida
func (w *Writer) Root() string {
	return w.root
}

// FileName ruta relativa de la imagen del índice
func (w *Writer) FileName(index int) string {
	split := w.table.Split(index)
	return filepath.ToSlash(filepath.Join(split, fmt.Sprintf("receipt_%d.jpg", index)))
}

// Recorded indica si el índice ya tiene línea de metadatos
func (w *Writer) Recorded(index int) (bool, error) {
	m := w.metadata(w.table.Split(index))
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return false, err
	}
	return m.names[w.FileName(index)], nil
}

// Save escribe la imagen y luego agrega su línea de metadatos. Un fallo
// entre ambos pasos deja a lo sumo una imagen huérfana, nunca una línea sin
// imagen. Si el índice ya tiene línea retorna ErrAlreadySaved sin escribir.
func (w *Writer) Save(sample *generator.Sample, index int) (string, error) {
	split := w.table.Split(index)
	recorded, err := w.Recorded(index)
	if err != nil {
		metrics.RecordSaveFailure("metadata")
		return "", err
	}
	if recorded {
		return split, ErrAlreadySaved
	}

	dir := filepath.Join(w.root, split)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.RecordSaveFailure("image")
		return "", fmt.Errorf("failed to create split dir: %w", err)
	}

	rel := w.FileName(index)
	if err := writeJPEG(filepath.Join(w.root, filepath.FromSlash(rel)), sample); err != nil {
		metrics.RecordSaveFailure("image")
		return "", err
	}

	line, err := EncodeRecord(rel, sample.Data)
	if err != nil {
		metrics.RecordSaveFailure("metadata")
		return "", err
	}
	if err := w.appendRecord(w.metadata(split), rel, line); err != nil {
		if errors.Is(err, ErrAlreadySaved) {
			return split, err
		}
		metrics.RecordSaveFailure("metadata")
		return "", err
	}

	w.mu.Lock()
	w.counts[split]++
	w.mu.Unlock()

	w.logger.Debugw("Sample saved", "index", index, "split", split, "file", rel)
	return split, nil
}

// EncodeRecord línea JSONL (con salto de línea final) de una muestra.
// Los importes ya vienen redondeados a 2 decimales y se emiten tal cual.
func EncodeRecord(fileName string, d groundtruth.Data) ([]byte, error) {
	gt, err := json.Marshal(envelope{GTParse: Parse{
		Shop:     d.Shop,
		Products: d.Products,
		Total:    d.Total,
	}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ground truth: %w", err)
	}
	line, err := json.Marshal(Record{FileName: fileName, GroundTruth: string(gt)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return append(line, '\n'), nil
}

func writeJPEG(path string, sample *generator.Sample) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = imaging.Encode(f, sample.Image, imaging.JPEG, imaging.JPEGQuality(sample.Quality)); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

func (w *Writer) appendRecord(m *metadataFile, rel string, line []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(); err != nil {
		return err
	}
	if m.names[rel] {
		return ErrAlreadySaved
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open metadata: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append metadata: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close metadata: %w", err)
	}
	m.names[rel] = true
	return nil
}

func (w *Writer) metadata(split string) *metadataFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	m, ok := w.files[split]
	if !ok {
		m = &metadataFile{path: filepath.Join(w.root, split, fmt.Sprintf("metadata_%s.jsonl", split))}
		w.files[split] = m
	}
	return m
}

// load lee los file_name existentes; llamar con m.mu tomado
func (m *metadataFile) load() error {
	if m.names != nil {
		return nil
	}
	names := make(map[string]bool)
	f, err := os.Open(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		m.names = names
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open metadata: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	for {
		var rec Record
		if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("failed to read metadata %s: %w", m.path, err)
		}
		names[rec.FileName] = true
	}
	m.names = names
	return nil
}

// Counts muestras guardadas por split en este writer
func (w *Writer) Counts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

// EndSave cierra la sesión de guardado. No escribe nada; registra los
// conteos por split.
func (w *Writer) EndSave() {
	counts := w.Counts()
	splits := make([]string, 0, len(counts))
	for s := range counts {
		splits = append(splits, s)
	}
	sort.Strings(splits)

	kv := []interface{}{"root", w.root}
	for _, s := range splits {
		kv = append(kv, s, counts[s])
	}
	w.logger.Infow("Dataset save finished", kv...)
}
