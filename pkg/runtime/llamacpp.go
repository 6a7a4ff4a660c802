package runtime

import (
	"context"
	"strconv"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// LlamaCppName is the registry key for the llama.cpp server driver.
const LlamaCppName = "llama.cpp"

// llamaCppDriver launches the upstream llama.cpp server binary directly.
type llamaCppDriver struct {
	protocols protocol.Registry
	binPath   string
}

// NewLlamaCpp constructs the llama.cpp driver. binPath overrides the
// resolved binary name; pass "" to let ResolveBinary pick an
// architecture-variant build of "llama-server".
func NewLlamaCpp(protocols protocol.Registry, binPath string) Driver {
	return &llamaCppDriver{protocols: protocols, binPath: binPath}
}

func (d *llamaCppDriver) Name() string { return LlamaCppName }

func (d *llamaCppDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatGGUF}
}

func (d *llamaCppDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{
			Name: "context", Type: model.ParamEnum, Default: "8K",
			Enum: map[string]interface{}{"4K": 4096, "8K": 8192, "16K": 16384, "32K": 32768},
		},
		{Name: "num_gpu_layers", Type: model.ParamInt, Default: 999},
		{Name: "split_mode", Type: model.ParamStr, Default: "row"},
		{Name: "flash_attention", Type: model.ParamBool, Default: true},
		{Name: "extra_args", Type: model.ParamStr, Default: ""},
	}
}

func (d *llamaCppDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
	if !supportsFormat(d.SupportedFormats(), m.ModelFormat) {
		return nil, &UnsupportedFormatError{Driver: d.Name(), Format: string(m.ModelFormat)}
	}

	params := NewParams(d.Parameters(), rawParams)
	listener.Protocol = "openai"

	argv := d.argv(m, listener, params)

	healthCheck, healthStatus := healthFor(d.protocols, listener.Protocol)

	return runner.Spawn(runner.Spec{
		Argv:         argv,
		Env:          envSet.CombinedVars(),
		Listener:     listener,
		HealthCheck:  healthCheck,
		HealthStatus: healthStatus,
	}, log)
}

// argv composes the llama-server command line. Extracted so it can be
// unit tested without spawning a real process.
func (d *llamaCppDriver) argv(m model.Model, listener model.Listener, params Params) []string {
	argv := []string{
		ResolveBinary(d.binPath, "llama-server"),
		"-m", m.ModelID,
		"-c", strconv.Itoa(params.EnumInt("context")),
		"-ngl", strconv.Itoa(params.Int("num_gpu_layers")),
		"-sm", params.String("split_mode"),
		"--host", listener.Host,
		"--port", strconv.Itoa(listener.Port),
	}
	if params.Bool("flash_attention") {
		argv = append(argv, "-fa")
	}
	return append(argv, params.ExtraArgs("extra_args")...)
}
