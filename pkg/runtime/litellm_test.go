package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/modelzoo/modelzoo/pkg/model"
)

func TestLiteLLMArgvIncludesAPIBaseWhenSet(t *testing.T) {
	d := &liteLLMDriver{binPath: ""}
	m := model.Model{ModelID: "gpt-4", ModelName: "my-gpt4", APIURL: "https://api.example.com/v1"}
	listener := model.Listener{Host: "127.0.0.1", Port: 4000}
	params := NewParams(d.Parameters(), map[string]interface{}{"drop_params": true})

	argv := d.argv(m, listener, params)

	require.Contains(t, argv, "--api_base")
	require.Contains(t, argv, "https://api.example.com/v1")
	require.Contains(t, argv, "--drop_params")
}

func TestLiteLLMSpawnInjectsAPIKey(t *testing.T) {
	// "true" stands in for the litellm binary so Spawn succeeds; the
	// supervisor's log banner lists the combined environment as
	// "  KEY=VALUE" lines.
	d := NewLiteLLM(nil, "true")
	m := model.Model{ModelID: "gpt-4", ModelFormat: model.FormatLiteLLM, APIKey: "sk-test"}

	rm, err := d.Spawn(nil, m, model.Listener{Host: "127.0.0.1", Port: 4000}, nil, model.EnvironmentSet{}, testLogger{})
	require.NoError(t, err)
	require.Contains(t, rm.Logs(), "  OPENAI_API_KEY="+m.APIKey)
}
