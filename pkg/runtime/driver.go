package runtime

import (
	"context"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runner"
)

// Driver is the contract every runtime implements: turn a (Model,
// Listener, params) triple into a running backend process. Common
// preconditions (format support, enum resolution, protocol assignment)
// are the driver's own responsibility; Spawn delegates the actual
// process ownership to runner.Spawn.
type Driver interface {
	// Name is the registry key and the value reported in config records'
	// "class" field.
	Name() string
	// SupportedFormats lists the model.ModelFormat values this driver
	// accepts.
	SupportedFormats() []model.ModelFormat
	// Parameters declares this driver's configurable knobs.
	Parameters() []model.RuntimeParameter
	// Spawn launches m under this driver, bound to listener.Host:Port,
	// with combined environment envSet plus any driver-injected extra
	// environment (e.g. OPENAI_API_KEY). It sets listener.Protocol
	// internally before delegating to the supervisor.
	Spawn(ctx context.Context, m model.Model, listener model.Listener, params map[string]interface{}, envSet model.EnvironmentSet, log logging.Logger) (*runner.RunningModel, error)
}

// Factory constructs a Driver. NewDefaultRegistry maps each runtime
// class to its Factory; there is no dynamic class dispatch.
type Factory func() Driver

// supportsFormat reports whether format is among supported.
func supportsFormat(supported []model.ModelFormat, format model.ModelFormat) bool {
	for _, f := range supported {
		if f == format {
			return true
		}
	}
	return false
}

// healthFor resolves the health-check path/status the supervisor should
// probe for a given protocol key, defaulting to "never ready" if the
// protocol is unknown (which should not happen for a static registry
// consulted with one of our own protocol keys).
func healthFor(reg protocol.Registry, protocolKey string) (path string, status int) {
	def, ok := reg.Get(protocolKey)
	if !ok {
		return "", 0
	}
	return def.HealthCheck, def.HealthStatus
}
