package runtime

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// KoboldCppName is the registry key for the KoboldCpp driver.
const KoboldCppName = "koboldcpp"

type koboldCppDriver struct {
	protocols protocol.Registry
	binPath   string
}

// NewKoboldCpp constructs the KoboldCpp driver.
func NewKoboldCpp(protocols protocol.Registry, binPath string) Driver {
	return &koboldCppDriver{protocols: protocols, binPath: binPath}
}

func (d *koboldCppDriver) Name() string { return KoboldCppName }

func (d *koboldCppDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatGGUF, model.FormatKCPPT}
}

func (d *koboldCppDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{
			Name: "contextsize", Type: model.ParamEnum, Default: "8K",
			Enum: map[string]interface{}{"4K": 4096, "8K": 8192, "16K": 16384, "32K": 32768},
		},
		{Name: "gpulayers", Type: model.ParamInt, Default: -1},
		{Name: "flashattention", Type: model.ParamBool, Default: true},
		{
			Name: "quantkv", Type: model.ParamEnum, Default: "f16",
			Enum: map[string]interface{}{"f16": 0, "q8": 1, "q4": 2},
		},
		{Name: "extra_args", Type: model.ParamStr, Default: ""},
	}
}

func (d *koboldCppDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
	if !supportsFormat(d.SupportedFormats(), m.ModelFormat) {
		return nil, &UnsupportedFormatError{Driver: d.Name(), Format: string(m.ModelFormat)}
	}

	params := NewParams(d.Parameters(), rawParams)

	var modelSpec []string
	var workingDir string

	switch m.ModelFormat {
	case model.FormatKCPPT:
		cfg, err := loadKCPPTConfig(m.ModelID)
		if err != nil {
			return nil, err
		}
		if cfg.SDModel != "" {
			listener.Protocol = "a1111"
		} else {
			listener.Protocol = "openai"
		}
		modelSpec = []string{m.ModelID}
		workingDir = filepath.Dir(m.ModelID)
	default:
		listener.Protocol = "openai"
		modelSpec = []string{"--model", m.ModelID}
	}

	argv := d.argv(modelSpec, listener, params)

	healthCheck, healthStatus := healthFor(d.protocols, listener.Protocol)

	return runner.Spawn(runner.Spec{
		Argv:             argv,
		Env:              envSet.CombinedVars(),
		WorkingDirectory: workingDir,
		Listener:         listener,
		HealthCheck:      healthCheck,
		HealthStatus:     healthStatus,
	}, log)
}

// argv composes the koboldcpp command line. Extracted so it can be unit
// tested without spawning a real process.
func (d *koboldCppDriver) argv(modelSpec []string, listener model.Listener, params Params) []string {
	argv := []string{ResolveBinary(d.binPath, "koboldcpp")}
	argv = append(argv, modelSpec...)
	argv = append(argv,
		"--contextsize", strconv.Itoa(params.EnumInt("contextsize")),
		"--gpulayers", strconv.Itoa(params.Int("gpulayers")),
		"--host", listener.Host,
		"--port", strconv.Itoa(listener.Port),
		"--usecublas",
	)
	if params.Bool("flashattention") {
		argv = append(argv, "--flashattention")
	}
	argv = append(argv, "--quantkv", strconv.Itoa(params.EnumInt("quantkv")))
	return append(argv, params.ExtraArgs("extra_args")...)
}
