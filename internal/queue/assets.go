package queue

import (
	"fmt"
	"sync"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/dataset"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

type assets struct {
	spec   *config.ReceiptSpec
	corpus *content.Corpus
	writer *dataset.Writer
}

type assetKey struct {
	path   string
	seed   int64
	output string
}

// assetCache configuración, corpus y writer por (ruta, semilla, salida).
// Compartir el writer serializa las escrituras de tareas concurrentes sobre
// el mismo archivo de metadatos.
type assetCache struct {
	mu    sync.Mutex
	items map[assetKey]*assets
}

func newAssetCache() *assetCache {
	return &assetCache{items: make(map[assetKey]*assets)}
}

func (c *assetCache) get(path string, seed int64, output string, log *logger.Logger) (*assets, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := assetKey{path: path, seed: seed, output: output}
	if a, ok := c.items[key]; ok {
		return a, nil
	}

	spec, err := config.LoadReceiptSpec(path)
	if err != nil {
		return nil, err
	}
	corpus, err := content.LoadCorpus(spec.Document.Content.CorpusPath)
	if err != nil {
		return nil, err
	}
	table, err := dataset.NewTable(spec.Splits, seed)
	if err != nil {
		return nil, fmt.Errorf("split table: %w", err)
	}

	a := &assets{
		spec:   spec,
		corpus: corpus,
		writer: dataset.NewWriter(output, table, log),
	}
	c.items[key] = a
	return a, nil
}
