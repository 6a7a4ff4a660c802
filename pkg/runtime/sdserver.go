package runtime

import (
	"context"
	"strconv"
	"strings"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// SDServerName is the registry key for the stable-diffusion.cpp server
// driver.
const SDServerName = "sd-server"

type sdServerDriver struct {
	protocols protocol.Registry
	binPath   string
}

// NewSDServer constructs the SDServer driver.
func NewSDServer(protocols protocol.Registry, binPath string) Driver {
	return &sdServerDriver{protocols: protocols, binPath: binPath}
}

func (d *sdServerDriver) Name() string { return SDServerName }

func (d *sdServerDriver) SupportedFormats() []model.ModelFormat {
	return []model.ModelFormat{model.FormatKCPPT}
}

func (d *sdServerDriver) Parameters() []model.RuntimeParameter {
	return []model.RuntimeParameter{
		{
			Name: "sampler_name", Type: model.ParamEnum, Default: "Euler",
			Enum: map[string]interface{}{
				"Euler": "euler", "Euler A": "euler_a", "Heun": "heun",
				"DPM2": "dpm2", "DPM++": "dpmpp_2m", "LCM": "lcm",
			},
		},
		{Name: "cfg_scale", Type: model.ParamFloat, Default: 1.0},
		{Name: "steps", Type: model.ParamInt, Default: 1},
		{Name: "extra_args", Type: model.ParamStr, Default: ""},
	}
}

func (d *sdServerDriver) Spawn(ctx context.Context, m model.Model, listener model.Listener, rawParams map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error) {
	if !supportsFormat(d.SupportedFormats(), m.ModelFormat) {
		return nil, &UnsupportedFormatError{Driver: d.Name(), Format: string(m.ModelFormat)}
	}

	cfg, err := loadKCPPTConfig(m.ModelID)
	if err != nil {
		return nil, err
	}
	if cfg.SDModel == "" {
		return nil, &MissingDiffusionModelError{}
	}

	params := NewParams(d.Parameters(), rawParams)
	listener.Protocol = "sd-server"

	argv := d.argv(m, cfg, listener, params)

	healthCheck, healthStatus := healthFor(d.protocols, listener.Protocol)

	return runner.Spawn(runner.Spec{
		Argv:         argv,
		Env:          envSet.CombinedVars(),
		Listener:     listener,
		HealthCheck:  healthCheck,
		HealthStatus: healthStatus,
	}, log)
}

// argv composes the sd-server command line. Extracted so it can be unit
// tested without spawning a real process.
func (d *sdServerDriver) argv(m model.Model, cfg kcpptConfig, listener model.Listener, params Params) []string {
	diffusionPath := resolveCheckpointAsset(m.ModelID, cfg.SDModel)

	argv := []string{ResolveBinary(d.binPath, "sd-server")}
	if strings.Contains(strings.ToLower(diffusionPath), "flux") {
		argv = append(argv, "--diffusion-model", diffusionPath)
	} else {
		argv = append(argv, "-m", diffusionPath)
	}
	if t5xxl := resolveCheckpointAsset(m.ModelID, cfg.SDT5XXL); t5xxl != "" {
		argv = append(argv, "--t5xxl", t5xxl)
	}
	if clipL := resolveCheckpointAsset(m.ModelID, cfg.SDClipL); clipL != "" {
		argv = append(argv, "--clip_l", clipL)
	}
	if vae := resolveCheckpointAsset(m.ModelID, cfg.SDVae); vae != "" {
		argv = append(argv, "--vae", vae)
	}
	argv = append(argv,
		"--host", listener.Host,
		"--port", strconv.Itoa(listener.Port),
		"--sampling-method", params.EnumString("sampler_name"),
		"--cfg-scale", strconv.FormatFloat(params.Float("cfg_scale"), 'g', -1, 64),
		"--steps", strconv.Itoa(params.Int("steps")),
		"-p", "default prompt",
	)
	return append(argv, params.ExtraArgs("extra_args")...)
}
