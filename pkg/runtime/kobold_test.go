package runtime

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/model"
)

func TestKoboldCppArgvGGUFUsesOpenAIProtocol(t *testing.T) {
	d := &koboldCppDriver{}
	params := NewParams(d.Parameters(), nil)
	listener := model.Listener{Host: "127.0.0.1", Port: 5001, Protocol: "openai"}

	argv := d.argv([]string{"--model", "/m.gguf"}, listener, params)

	require.Contains(t, argv, "--model")
	require.Contains(t, argv, "/m.gguf")
	require.Contains(t, argv, "--flashattention")
}

func TestKoboldCppSpawnKCPPTWithSDModelUsesA1111(t *testing.T) {
	dir := t.TempDir()
	checkpoint := filepath.Join(dir, "model.kcppt")
	cfg := kcpptConfig{SDModel: "sd.safetensors"}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(checkpoint, data, 0o644))

	// "true" stands in for the koboldcpp binary: it accepts any argv and
	// exits, so Spawn succeeds and the listener it recorded can be checked.
	// The protocol registry is nil here (healthFor tolerates a nil registry).
	d := NewKoboldCpp(nil, "true")
	m := model.Model{ModelID: checkpoint, ModelFormat: model.FormatKCPPT}
	listener := model.Listener{Host: "127.0.0.1", Port: 5001}

	rm, err := d.Spawn(nil, m, listener, nil, model.EnvironmentSet{}, testLogger{})
	require.NoError(t, err)
	require.Equal(t, "a1111", rm.Listener().Protocol)
}

func TestKoboldCppSpawnKCPPTWithoutSDModelUsesOpenAI(t *testing.T) {
	dir := t.TempDir()
	checkpoint := filepath.Join(dir, "model.kcppt")
	data, err := json.Marshal(kcpptConfig{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(checkpoint, data, 0o644))

	cfg, err := loadKCPPTConfig(checkpoint)
	require.NoError(t, err)
	require.Empty(t, cfg.SDModel)

	// "true" stands in for the koboldcpp binary, as above.
	d := NewKoboldCpp(nil, "true")
	m := model.Model{ModelID: checkpoint, ModelFormat: model.FormatKCPPT}
	rm, err := d.Spawn(nil, m, model.Listener{Host: "127.0.0.1", Port: 5001}, nil, model.EnvironmentSet{}, testLogger{})
	require.NoError(t, err)
	require.Equal(t, "openai", rm.Listener().Protocol)
}
