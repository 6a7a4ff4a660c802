package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/model"
)

func TestLlamaSrbArgvResolvesCtxAndBatchSize(t *testing.T) {
	d := &llamaSrbDriver{pythonBin: "python3", scriptPath: "/srv/llamasrb/run.py"}
	m := model.Model{ModelID: "/models/m.gguf"}
	listener := model.Listener{Host: "127.0.0.1", Port: 6000}
	params := NewParams(d.Parameters(), map[string]interface{}{"ctx": "16K", "batch_size": 8})

	argv := d.argv(m, listener, params)

	require.Equal(t, []string{
		"python3", "/srv/llamasrb/run.py",
		"--model", "/models/m.gguf",
		"--port", "6000",
		"--ctx", "16384",
		"--n", "8",
	}, argv)
}
