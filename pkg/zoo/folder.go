package zoo

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	gguf "github.com/gpustack/gguf-parser-go"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
)

// FolderZoo discovers GGUF models under a filesystem directory, grouping
// multi-part shards (e.g. "...-00001-of-00003.gguf") into a single
// logical Model, mirroring original_source/zoo.py's
// _process_multipart_models/_gguf_catalog.
type FolderZoo struct {
	name    string
	enabled atomic.Bool
	path    string
	log     logging.Logger
}

// NewFolderZoo constructs a FolderZoo rooted at path. log may be nil, in
// which case architecture-parsing warnings are discarded.
func NewFolderZoo(name string, enabled bool, path string, log logging.Logger) *FolderZoo {
	z := &FolderZoo{name: name, path: path, log: log}
	z.enabled.Store(enabled)
	return z
}

func (z *FolderZoo) Name() string  { return z.name }
func (z *FolderZoo) Enabled() bool { return z.enabled.Load() }

// SetEnabled flips the zoo's enabled state, satisfying Toggler.
func (z *FolderZoo) SetEnabled(enabled bool) { z.enabled.Store(enabled) }

func (z *FolderZoo) Catalog() ([]model.Model, error) {
	var files []string
	err := filepath.WalkDir(z.path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".gguf") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	groups := groupMultipart(files)

	baseNames := make([]string, 0, len(groups))
	for base := range groups {
		baseNames = append(baseNames, base)
	}
	sort.Strings(baseNames)

	models := make([]model.Model, 0, len(groups))
	for _, base := range baseNames {
		parts := groups[base]
		sort.Strings(parts)

		var total int64
		for _, part := range parts {
			if info, statErr := os.Stat(part); statErr == nil {
				total += info.Size()
			}
		}

		modelID, err := filepath.Abs(parts[0])
		if err != nil {
			modelID = parts[0]
		}

		m := model.Model{
			ZooName:     z.name,
			ModelID:     modelID,
			ModelFormat: model.FormatGGUF,
			ModelName:   base,
			ModelSize:   total,
		}
		if arch, ok := z.architecture(modelID); ok {
			m.ModelArchitecture = arch
		}
		models = append(models, m)
	}
	return models, nil
}

// groupMultipart buckets GGUF file paths by logical model name, splitting
// "<base>-0000N-of-0000M.gguf" shards into one group keyed by <base>,
// exactly as the source's string split on "-00" does.
func groupMultipart(files []string) map[string][]string {
	groups := make(map[string][]string)
	for _, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		base := stem
		if strings.Contains(stem, "-of-") {
			if idx := strings.Index(stem, "-00"); idx >= 0 {
				base = stem[:idx]
			}
		}
		groups[base] = append(groups[base], f)
	}
	return groups
}

// architecture best-effort parses the GGUF header for its architecture
// metadata, so the catalog doesn't have to trust the filename. Parse
// failures are logged and swallowed: a zoo with one malformed file must
// not fail the whole catalog listing.
func (z *FolderZoo) architecture(path string) (string, bool) {
	f, err := gguf.ParseGGUFFile(path)
	if err != nil {
		if z.log != nil {
			z.log.WithField("path", path).WithError(err).Debug("gguf header parse failed, skipping architecture metadata")
		}
		return "", false
	}
	meta := f.Metadata()
	if meta.Architecture == "" {
		return "", false
	}
	return meta.Architecture, true
}
