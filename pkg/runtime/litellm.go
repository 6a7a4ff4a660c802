package runtime

import (
	"context"
	"strconv"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// LiteLLMName is the registry key for the LiteLLM proxy driver.
const LiteLLMName = "litellm"

type liteLLMDriver struct {
	protocols protocol.Registry
	binPath   string
}

// NewLiteLLM constructs the LiteLLM driver.
func NewLiteLLM(protocols protocol.Registry, binPath string) Driver {
	return &liteLLMDriver{protocols: protocols, binPath: binPath}
}

func (d *liteLLMDriver) Name() string { return LiteLLMName }

func (d *liteLLMDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatLiteLLM}
}

func (d *liteLLMDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{Name: "drop_params", Type: model.ParamBool, Default: false},
		{Name: "max_tokens", Type: model.ParamStr, Default: ""},
	}
}

func (d *liteLLMDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
	if !supportsFormat(d.SupportedFormats(), m.ModelFormat) {
		return nil, &UnsupportedFormatError{Driver: d.Name(), Format: string(m.ModelFormat)}
	}

	params := NewParams(d.Parameters(), rawParams)
	listener.Protocol = "openai"

	argv := d.argv(m, listener, params)

	env := envSet.CombinedVars()
	if m.APIKey != "" {
		env["OPENAI_API_KEY"] = m.APIKey
	}

	healthCheck, healthStatus := healthFor(d.protocols, listener.Protocol)

	return runner.Spawn(runner.Spec{
		Argv:         argv,
		Env:          env,
		Listener:     listener,
		HealthCheck:  healthCheck,
		HealthStatus: healthStatus,
	}, log)
}

// argv composes the litellm command line. Extracted so it can be unit
// tested without spawning a real process.
func (d *liteLLMDriver) argv(m model.Model, listener model.Listener, params Params) []string {
	argv := []string{
		ResolveBinary(d.binPath, "litellm"),
		"-m", m.ModelID,
		"--alias", m.ModelName,
		"--host", listener.Host,
		"--port", strconv.Itoa(listener.Port),
	}
	if m.APIURL != "" {
		argv = append(argv, "--api_base", m.APIURL)
	}
	if params.Bool("drop_params") {
		argv = append(argv, "--drop_params")
	}
	if mt := params.String("max_tokens"); mt != "" && mt != "<nil>" {
		argv = append(argv, "--max_tokens", mt)
	}
	return argv
}
