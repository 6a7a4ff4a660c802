package runtime

import "github.com/modelzoo/modelzoo/pkg/protocol"

// BinaryPaths configures the binary/script locations each driver needs.
// A zero value lets the driver fall back to a bare command name resolved
// via ResolveBinary or a sensible default.
type BinaryPaths struct {
	LlamaCppBin    string
	KoboldCppBin   string
	TabbyScript    string
	VLLMVenv       string
	LlamaSrbPython string
	LlamaSrbScript string
	LiteLLMBin     string
	SDServerBin    string
}

// NewDefaultRegistry builds the static runtime-class -> Factory table.
// pkg/config does not consult it: config records are resolved and
// validated against pkg/config's own class table at load time, where an
// unknown "class" is a config error, not a dynamic dispatch.
func NewDefaultRegistry(protocols protocol.Registry, bins BinaryPaths) map[string]Factory {
	return map[string]Factory{
		LlamaCppName: func() Driver { return NewLlamaCpp(protocols, bins.LlamaCppBin) },
		KoboldCppName: func() Driver { return NewKoboldCpp(protocols, bins.KoboldCppBin) },
		TabbyAPIName: func() Driver { return NewTabbyAPI(protocols, bins.TabbyScript) },
		VLLMName:     func() Driver { return NewVLLM(protocols, bins.VLLMVenv) },
		LlamaSrbName: func() Driver { return NewLlamaSrb(protocols, bins.LlamaSrbPython, bins.LlamaSrbScript) },
		LiteLLMName:  func() Driver { return NewLiteLLM(protocols, bins.LiteLLMBin) },
		SDServerName: func() Driver { return NewSDServer(protocols, bins.SDServerBin) },
	}
}
