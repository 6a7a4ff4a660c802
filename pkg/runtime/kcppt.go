package runtime

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// kcpptConfig is the subset of a KoboldCpp "kcppt" checkpoint JSON file
// that runtime drivers care about: the optional co-bundled
// stable-diffusion model and its auxiliary components.
type kcpptConfig struct {
	SDModel string `json:"sdmodel"`
	SDT5XXL string `json:"sdt5xxl"`
	SDClipL string `json:"sdclipl"`
	SDVae   string `json:"sdvae"`
}

// loadKCPPTConfig reads and parses the kcppt checkpoint at path.
func loadKCPPTConfig(path string) (kcpptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kcpptConfig{}, err
	}
	var cfg kcpptConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return kcpptConfig{}, err
	}
	return cfg, nil
}

// resolveCheckpointAsset resolves an asset field from a kcppt config: an
// absolute path is used unchanged, otherwise the asset's basename is
// resolved relative to the checkpoint's own directory.
func resolveCheckpointAsset(checkpointPath, asset string) string {
	if asset == "" {
		return ""
	}
	if filepath.IsAbs(asset) {
		return asset
	}
	return filepath.Join(filepath.Dir(checkpointPath), filepath.Base(asset))
}
