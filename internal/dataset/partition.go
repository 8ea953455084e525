// Package dataset reparte las muestras en train/validation/test y las
// persiste como JPEG más una línea JSONL de metadatos por imagen.
package dataset

import (
	"errors"
	"fmt"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
)

// Splits en el orden de los ratios configurados
const (
	SplitTrain      = "train"
	SplitValidation = "validation"
	SplitTest       = "test"
)

// Splits nombres de split indexados como config.SplitSpec.Ratios
var Splits = []string{SplitTrain, SplitValidation, SplitTest}

// ErrSplitTable tabla de splits mal configurada
var ErrSplitTable = errors.New("invalid split table")

// splitStreamOffset separa el flujo de la tabla de los flujos por rango
const splitStreamOffset = -1

// Table asignación fija índice → split. Se construye una vez y solo se lee,
// por lo que puede compartirse entre goroutines.
type Table struct {
	slots []string
}

// NewTable sortea size posiciones con los ratios configurados usando un
// flujo derivado de la semilla global
func NewTable(spec config.SplitSpec, seed int64) (*Table, error) {
	if len(spec.Ratios) != len(Splits) {
		return nil, fmt.Errorf("%w: expected %d ratios, got %d", ErrSplitTable, len(Splits), len(spec.Ratios))
	}
	if spec.TableSize < 1 {
		return nil, fmt.Errorf("%w: table size must be >= 1, got %d", ErrSplitTable, spec.TableSize)
	}

	s := rng.New(rng.DeriveSeed(seed, splitStreamOffset))
	t := &Table{slots: make([]string, spec.TableSize)}
	for i := range t.slots {
		idx, err := s.Choice(spec.Ratios)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSplitTable, err)
		}
		t.slots[i] = Splits[idx]
	}
	return t, nil
}

// Split split del índice
func (t *Table) Split(index int) string {
	i := index % len(t.slots)
	if i < 0 {
		i += len(t.slots)
	}
	return t.slots[i]
}

// Len tamaño de la tabla
func (t *Table) Len() int {
	return len(t.slots)
}
