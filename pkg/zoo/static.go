package zoo

import (
	"sync/atomic"

	"github.com/modelzoo/modelzoo/pkg/model"
)

// StaticZoo returns a fixed, configuration-supplied list of models. It is
// the Go equivalent of original_source/zoo.py's StaticZoo: models is taken
// verbatim from config, only defaulting ModelName to ModelID when the
// config omits it.
type StaticZoo struct {
	name    string
	enabled atomic.Bool
	models  []model.Model
}

// NewStaticZoo constructs a StaticZoo. Any model in models missing a
// ModelName is given one equal to its ModelID, and ZooName is stamped on
// every entry.
func NewStaticZoo(name string, enabled bool, models []model.Model) *StaticZoo {
	stamped := make([]model.Model, len(models))
	for i, m := range models {
		m.ZooName = name
		if m.ModelName == "" {
			m.ModelName = m.ModelID
		}
		stamped[i] = m
	}
	z := &StaticZoo{name: name, models: stamped}
	z.enabled.Store(enabled)
	return z
}

func (z *StaticZoo) Name() string  { return z.name }
func (z *StaticZoo) Enabled() bool { return z.enabled.Load() }

// SetEnabled flips the zoo's enabled state, satisfying Toggler.
func (z *StaticZoo) SetEnabled(enabled bool) { z.enabled.Store(enabled) }

func (z *StaticZoo) Catalog() ([]model.Model, error) {
	return z.models, nil
}
