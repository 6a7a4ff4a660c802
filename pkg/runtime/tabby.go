package runtime

import (
	"context"
	"strconv"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// TabbyAPIName is the registry key for the TabbyAPI driver.
const TabbyAPIName = "tabbyapi"

type tabbyAPIDriver struct {
	protocols  protocol.Registry
	scriptPath string
}

// NewTabbyAPI constructs the TabbyAPI driver. scriptPath is the launcher
// script TabbyAPI is invoked through (e.g. "start.py").
func NewTabbyAPI(protocols protocol.Registry, scriptPath string) Driver {
	return &tabbyAPIDriver{protocols: protocols, scriptPath: scriptPath}
}

func (d *tabbyAPIDriver) Name() string { return TabbyAPIName }

func (d *tabbyAPIDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatGPTQ, model.FormatEXL2}
}

func (d *tabbyAPIDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{
			Name: "max_seq_len", Type: model.ParamEnum, Default: "8K",
			Enum: map[string]interface{}{"4K": 4096, "8K": 8192, "16K": 16384, "32K": 32768},
		},
		{Name: "tensor_parallel", Type: model.ParamBool, Default: false},
		{
			Name: "cache_mode", Type: model.ParamEnum, Default: "FP16",
			Enum: map[string]interface{}{"FP16": "FP16", "Q8": "Q8", "Q6": "Q6", "Q4": "Q4"},
		},
		{Name: "disable_auth", Type: model.ParamBool, Default: true},
		{Name: "gpu_split", Type: model.ParamStr, Default: ""},
		{Name: "extra_args", Type: model.ParamStr, Default: ""},
	}
}

func (d *tabbyAPIDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
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

// argv composes the TabbyAPI command line. Extracted so it can be unit
// tested without spawning a real process.
func (d *tabbyAPIDriver) argv(m model.Model, listener model.Listener, params Params) []string {
	argv := []string{
		d.scriptPath,
		"--model-name", m.ModelID,
		"--max-seq-len", strconv.Itoa(params.EnumInt("max_seq_len")),
		"--host", listener.Host,
		"--port", strconv.Itoa(listener.Port),
		"--cache-mode", params.EnumString("cache_mode"),
	}
	if params.Bool("tensor_parallel") {
		argv = append(argv, "--tensor-parallel", "True")
	}
	if params.Bool("disable_auth") {
		argv = append(argv, "--disable-auth", "True")
	}
	if split := params.String("gpu_split"); split != "" && split != "<nil>" {
		argv = append(argv, "--gpu-split", split)
	} else {
		argv = append(argv, "--gpu-split-auto", "False")
	}
	return append(argv, params.ExtraArgs("extra_args")...)
}
