// Package zoo declares sources of advertisable models. A Zoo enumerates
// what could be launched; it does not launch anything itself.
package zoo

import "github.com/modelzoo/modelzoo/pkg/model"

// Zoo enumerates models available for launch from one source.
type Zoo interface {
	// Name is the zoo's configured identifier, stamped onto every Model
	// it produces as ZooName.
	Name() string
	// Enabled reports whether this zoo's models should be surfaced. A
	// disabled zoo is skipped by the dashboard's catalog aggregation but
	// the zoo itself is not torn down.
	Enabled() bool
	// Catalog enumerates this zoo's advertisable models. Errors are
	// collected by the caller, not panicked on: a single bad zoo must not
	// take down a catalog listing built from several.
	Catalog() ([]model.Model, error)
}

// Toggler is implemented by zoos whose enabled state can be flipped at
// runtime (the dashboard's "toggle zoo" operation). Both StaticZoo and
// FolderZoo implement it.
type Toggler interface {
	SetEnabled(bool)
}
