package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/model"
)

func TestTabbyAPIArgvGPUSplitExplicit(t *testing.T) {
	d := &tabbyAPIDriver{scriptPath: "start.py"}
	m := model.Model{ModelID: "my-model"}
	listener := model.Listener{Host: "127.0.0.1", Port: 5000}
	params := NewParams(d.Parameters(), map[string]interface{}{"gpu_split": "12,12"})

	argv := d.argv(m, listener, params)

	require.Contains(t, argv, "--gpu-split")
	require.Contains(t, argv, "12,12")
	require.NotContains(t, argv, "--gpu-split-auto")
}

func TestTabbyAPIArgvGPUSplitAuto(t *testing.T) {
	d := &tabbyAPIDriver{scriptPath: "start.py"}
	m := model.Model{ModelID: "my-model"}
	listener := model.Listener{Host: "127.0.0.1", Port: 5000}
	params := NewParams(d.Parameters(), nil)

	argv := d.argv(m, listener, params)

	require.Contains(t, argv, "--gpu-split-auto")
	require.NotContains(t, argv, "--gpu-split")
}

func TestTabbyAPISpawnRejectsUnsupportedFormat(t *testing.T) {
	d := NewTabbyAPI(nil, "start.py")
	_, err := d.Spawn(nil, model.Model{ModelFormat: model.FormatGGUF}, model.Listener{}, nil, model.EnvironmentSet{}, testLogger{})
	require.Error(t, err)
}
