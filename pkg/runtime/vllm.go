package runtime

import (
	"context"
	"fmt"
	"os"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
	"github.com/pkg/errors"
)

// VLLMName is the registry key for the vLLM driver.
const VLLMName = "vllm"

type vllmDriver struct {
	protocols protocol.Registry
	venvPath  string
}

// NewVLLM constructs the vLLM driver. venvPath is the virtualenv whose
// activate script is sourced before exec'ing "vllm serve".
func NewVLLM(protocols protocol.Registry, venvPath string) Driver {
	return &vllmDriver{protocols: protocols, venvPath: venvPath}
}

func (d *vllmDriver) Name() string { return VLLMName }

func (d *vllmDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatGGUF, model.FormatFP16, model.FormatAWQ, model.FormatGPTQ}
}

func (d *vllmDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{
			Name: "max_model_len", Type: model.ParamEnum, Default: "8K",
			Enum: map[string]interface{}{"4K": 4096, "8K": 8192, "16K": 16384, "32K": 32768},
		},
		{Name: "tensor_parallel_size", Type: model.ParamInt, Default: 1},
		{Name: "gpu_memory_utilization", Type: model.ParamFloat, Default: 0.95},
		{Name: "enforce_eager", Type: model.ParamBool, Default: true},
	}
}

func (d *vllmDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
	if !supportsFormat(d.SupportedFormats(), m.ModelFormat) {
		return nil, &UnsupportedFormatError{Driver: d.Name(), Format: string(m.ModelFormat)}
	}

	params := NewParams(d.Parameters(), rawParams)
	listener.Protocol = "openai"

	script := d.script(m, listener, params)

	f, err := os.CreateTemp("", "vllm_*.sh")
	if err != nil {
		return nil, errors.Wrap(err, "vllm: creating launch script")
	}
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "vllm: writing launch script")
	}
	f.Close()
	if err := os.Chmod(f.Name(), 0o755); err != nil {
		return nil, errors.Wrap(err, "vllm: chmod launch script")
	}

	healthCheck, healthStatus := healthFor(d.protocols, listener.Protocol)

	return runner.Spawn(runner.Spec{
		Argv:         []string{"sh", f.Name()},
		Env:          envSet.CombinedVars(),
		Listener:     listener,
		HealthCheck:  healthCheck,
		HealthStatus: healthStatus,
	}, log)
}

// script renders the shell launcher vllm is started through. Extracted so
// its content can be unit tested without touching the filesystem.
func (d *vllmDriver) script(m model.Model, listener model.Listener, params Params) string {
	return fmt.Sprintf(
		"#!/bin/sh\nsource %s/bin/activate\nvllm serve %s --host %s --port %d --tensor-parallel-size %d --max-model-len %d --gpu-memory-utilization %g%s\n",
		d.venvPath, m.ModelID, listener.Host, listener.Port,
		params.Int("tensor_parallel_size"), params.EnumInt("max_model_len"), params.Float("gpu_memory_utilization"),
		enforceEagerFlag(params),
	)
}

func enforceEagerFlag(params Params) string {
	if params.Bool("enforce_eager") {
		return " --enforce-eager"
	}
	return ""
}
