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

// LlamaSrbName is the registry key for the LlamaSrb driver.
const LlamaSrbName = "llamasrb"

type llamaSrbDriver struct {
	protocols  protocol.Registry
	pythonBin  string
	scriptPath string
}

// NewLlamaSrb constructs the LlamaSrb driver, invoked as
// "<pythonBin> <scriptPath> ...".
func NewLlamaSrb(protocols protocol.Registry, pythonBin, scriptPath string) Driver {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	return &llamaSrbDriver{protocols: protocols, pythonBin: pythonBin, scriptPath: scriptPath}
}

func (d *llamaSrbDriver) Name() string { return LlamaSrbName }

func (d *llamaSrbDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatGGUF}
}

func (d *llamaSrbDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{
			Name: "ctx", Type: model.ParamEnum, Default: "8K",
			Enum: map[string]interface{}{
				"4K": 4 * 1024, "8K": 8 * 1024, "12K": 12 * 1024,
				"16K": 16 * 1024, "24K": 24 * 1024, "32K": 32 * 1024,
			},
		},
		{Name: "batch_size", Type: model.ParamInt, Default: 4},
	}
}

func (d *llamaSrbDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
	if !supportsFormat(d.SupportedFormats(), m.ModelFormat) {
		return nil, &UnsupportedFormatError{Driver: d.Name(), Format: string(m.ModelFormat)}
	}

	params := NewParams(d.Parameters(), rawParams)
	listener.Protocol = "openai"

	argv := d.argv(m, listener, params)

	healthCheck, healthStatus := healthFor(d.protocols, listener.Protocol)

	return runner.Spawn(runner.Spec{
		Argv:             argv,
		Env:              envSet.CombinedVars(),
		WorkingDirectory: filepath.Dir(d.scriptPath),
		Listener:         listener,
		HealthCheck:      healthCheck,
		HealthStatus:     healthStatus,
	}, log)
}

// argv composes the launch command line. Extracted so it can be unit
// tested without spawning a real process.
func (d *llamaSrbDriver) argv(m model.Model, listener model.Listener, params Params) []string {
	return []string{
		d.pythonBin, d.scriptPath,
		"--model", m.ModelID,
		"--port", strconv.Itoa(listener.Port),
		"--ctx", strconv.Itoa(params.EnumInt("ctx")),
		"--n", strconv.Itoa(params.Int("batch_size")),
	}
}
