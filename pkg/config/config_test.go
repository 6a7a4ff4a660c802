package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/protocol"
)

const sampleYAML = `
zoos:
  - name: curated
    class: static
    enabled: true
    params:
      models:
        - model_id: /models/one.gguf
          model_name: one
  - name: local
    class: folder
    enabled: true
    params:
      path: /models/local

runtimes:
  - name: llamacpp-default
    class: llama.cpp
    params:
      binary_path: /usr/local/bin/llama-server

environments:
  - name: gpu0
    vars:
      CUDA_VISIBLE_DEVICES: "0"

peers:
  - host: 10.0.0.2
    port: 8080
`

func TestLoadResolvesDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modelzoo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	resolved, err := Load(path, protocol.NewDefaultRegistry(nil), nil)
	require.NoError(t, err)

	require.Len(t, resolved.Zoos, 2)
	require.Contains(t, resolved.Runtimes, "llamacpp-default")
	require.Contains(t, resolved.Environments, "gpu0")
	require.Equal(t, "0", resolved.Environments["gpu0"].Vars["CUDA_VISIBLE_DEVICES"])
	require.Len(t, resolved.Peers, 1)
	require.Equal(t, "10.0.0.2", resolved.Peers[0].Host)

	catalog, err := resolved.Zoos[0].Catalog()
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, "one", catalog[0].ModelName)
}

func TestResolveUnknownZooClassIsError(t *testing.T) {
	doc := Document{Zoos: []ZooDef{{Name: "bad", Class: "does-not-exist"}}}
	_, err := Resolve(doc, protocol.NewDefaultRegistry(nil), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown class")
}

func TestResolveUnknownRuntimeClassIsError(t *testing.T) {
	doc := Document{Runtimes: []RuntimeDef{{Name: "bad", Class: "does-not-exist"}}}
	_, err := Resolve(doc, protocol.NewDefaultRegistry(nil), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown class")
}

func TestResolveFolderZooRequiresPath(t *testing.T) {
	doc := Document{Zoos: []ZooDef{{Name: "local", Class: "folder", Enabled: true}}}
	_, err := Resolve(doc, protocol.NewDefaultRegistry(nil), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "params.path")
}
