package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/model"
)

func TestLlamaCppArgvContextResolution(t *testing.T) {
	d := &llamaCppDriver{binPath: ""}
	m := model.Model{ModelID: "/models/m.gguf", ModelFormat: model.FormatGGUF}
	listener := model.Listener{Host: "127.0.0.1", Port: 9000}
	params := NewParams(d.Parameters(), map[string]interface{}{"context": "8K"})

	argv := d.argv(m, listener, params)

	require.Contains(t, argv, "-c")
	require.Contains(t, argv, "8192")
	require.Contains(t, argv, "-m")
	require.Contains(t, argv, "/models/m.gguf")
	require.Contains(t, argv, "-fa")
}

func TestLlamaCppArgvFlashAttentionDisabled(t *testing.T) {
	d := &llamaCppDriver{binPath: ""}
	m := model.Model{ModelID: "/models/m.gguf"}
	listener := model.Listener{Host: "0.0.0.0", Port: 9000}
	params := NewParams(d.Parameters(), map[string]interface{}{"flash_attention": false})

	argv := d.argv(m, listener, params)

	require.NotContains(t, argv, "-fa")
}

func TestLlamaCppSpawnRejectsUnsupportedFormat(t *testing.T) {
	d := NewLlamaCpp(nil, "")
	_, err := d.Spawn(nil, model.Model{ModelFormat: model.FormatGPTQ}, model.Listener{}, nil, model.EnvironmentSet{}, testLogger{})
	require.Error(t, err)
	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}
