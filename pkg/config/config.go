// Package config loads the glue layer's YAML document — zoo definitions,
// runtime definitions, environment definitions, and the peer list — and
// resolves each {name, class, params} record against the core's static
// zoo/runtime registries. An unknown class is a config-validation error
// raised at load time, before any process is spawned: there is no
// dynamic class dispatch anywhere in this package.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modelzoo/modelzoo/pkg/federation"
	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/runtime"
	"github.com/modelzoo/modelzoo/pkg/zoo"
)

// Document is the raw YAML shape consumed from disk.
type Document struct {
	Zoos         []ZooDef     `yaml:"zoos"`
	Runtimes     []RuntimeDef `yaml:"runtimes"`
	Environments []EnvDef     `yaml:"environments"`
	Peers        []PeerDef    `yaml:"peers"`
}

// ZooDef is one {name, class, params} zoo record.
type ZooDef struct {
	Name    string    `yaml:"name"`
	Class   string    `yaml:"class"`
	Enabled bool      `yaml:"enabled"`
	Params  ZooParams `yaml:"params"`
}

// ZooParams holds every field either zoo class might need; unused fields
// for a given class are simply ignored.
type ZooParams struct {
	Path   string     `yaml:"path,omitempty"`
	Models []ModelDef `yaml:"models,omitempty"`
}

// ModelDef is one statically-configured model entry.
type ModelDef struct {
	ModelID     string `yaml:"model_id"`
	ModelName   string `yaml:"model_name,omitempty"`
	ModelFormat string `yaml:"model_format,omitempty"`
	APIURL      string `yaml:"api_url,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
}

// RuntimeDef is one {name, class, params} runtime record. Class selects
// the driver constructor from the static registry; name is the key
// launch requests reference, letting the same class be registered
// multiple times with different binary paths.
type RuntimeDef struct {
	Name   string        `yaml:"name"`
	Class  string        `yaml:"class"`
	Params RuntimeParams `yaml:"params"`
}

// RuntimeParams covers the binary/script/venv path every driver might
// need; each driver constructor reads only the field(s) relevant to it.
type RuntimeParams struct {
	BinaryPath string `yaml:"binary_path,omitempty"`
	ScriptPath string `yaml:"script_path,omitempty"`
	VenvPath   string `yaml:"venv_path,omitempty"`
	PythonBin  string `yaml:"python_bin,omitempty"`
}

// EnvDef is one named bag of environment variables.
type EnvDef struct {
	Name string            `yaml:"name"`
	Vars map[string]string `yaml:"vars"`
}

// PeerDef is one federated peer.
type PeerDef struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Resolved is the typed, validated result of loading a Document: every
// class reference has already been checked against the static registries,
// so nothing downstream needs to re-validate a "class" string.
type Resolved struct {
	Zoos         []zoo.Zoo
	Runtimes     map[string]runtime.Driver
	Environments map[string]model.Environment
	Peers        []federation.Peer
}

// Load reads path, parses it as YAML, and resolves it against protocols
// and the runtime driver registry. log may be nil (zoo construction
// tolerates it).
func Load(path string, protocols protocol.Registry, log logging.Logger) (*Resolved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return Resolve(doc, protocols, log)
}

// Resolve validates and builds a Resolved from an already-parsed
// Document. Exported separately from Load so callers (and tests) can
// construct a Document in code without a round trip through disk.
func Resolve(doc Document, protocols protocol.Registry, log logging.Logger) (*Resolved, error) {
	zoos, err := resolveZoos(doc.Zoos, log)
	if err != nil {
		return nil, err
	}

	runtimes, err := resolveRuntimes(doc.Runtimes, protocols)
	if err != nil {
		return nil, err
	}

	envs := make(map[string]model.Environment, len(doc.Environments))
	for _, e := range doc.Environments {
		if e.Name == "" {
			return nil, fmt.Errorf("config: environment definition missing name")
		}
		envs[e.Name] = model.Environment{Name: e.Name, Vars: e.Vars}
	}

	peers := make([]federation.Peer, len(doc.Peers))
	for i, p := range doc.Peers {
		if p.Host == "" || p.Port == 0 {
			return nil, fmt.Errorf("config: peer entry %d missing host or port", i)
		}
		peers[i] = federation.Peer{Host: p.Host, Port: p.Port}
	}

	return &Resolved{Zoos: zoos, Runtimes: runtimes, Environments: envs, Peers: peers}, nil
}

// zooClassFactory constructs a zoo.Zoo from one ZooDef. The registry is a
// literal map, matching the "no eval" design note for source-string class
// resolution.
type zooClassFactory func(def ZooDef, log logging.Logger) (zoo.Zoo, error)

var zooClasses = map[string]zooClassFactory{
	"static": func(def ZooDef, _ logging.Logger) (zoo.Zoo, error) {
		models := make([]model.Model, len(def.Params.Models))
		for i, m := range def.Params.Models {
			models[i] = model.Model{
				ModelID:     m.ModelID,
				ModelName:   m.ModelName,
				ModelFormat: model.ModelFormat(m.ModelFormat),
				APIURL:      m.APIURL,
				APIKey:      m.APIKey,
			}
		}
		return zoo.NewStaticZoo(def.Name, def.Enabled, models), nil
	},
	"folder": func(def ZooDef, log logging.Logger) (zoo.Zoo, error) {
		if def.Params.Path == "" {
			return nil, fmt.Errorf("config: folder zoo %q missing params.path", def.Name)
		}
		return zoo.NewFolderZoo(def.Name, def.Enabled, def.Params.Path, log), nil
	},
}

func resolveZoos(defs []ZooDef, log logging.Logger) ([]zoo.Zoo, error) {
	out := make([]zoo.Zoo, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("config: zoo definition missing name")
		}
		factory, ok := zooClasses[def.Class]
		if !ok {
			return nil, fmt.Errorf("config: zoo %q has unknown class %q", def.Name, def.Class)
		}
		z, err := factory(def, log)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}

// runtimeClassFactory constructs a Driver from one RuntimeDef's params.
type runtimeClassFactory func(def RuntimeDef, protocols protocol.Registry) runtime.Driver

var runtimeClasses = map[string]runtimeClassFactory{
	runtime.LlamaCppName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewLlamaCpp(protocols, def.Params.BinaryPath)
	},
	runtime.KoboldCppName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewKoboldCpp(protocols, def.Params.BinaryPath)
	},
	runtime.TabbyAPIName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewTabbyAPI(protocols, def.Params.ScriptPath)
	},
	runtime.VLLMName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewVLLM(protocols, def.Params.VenvPath)
	},
	runtime.LlamaSrbName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewLlamaSrb(protocols, def.Params.PythonBin, def.Params.ScriptPath)
	},
	runtime.LiteLLMName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewLiteLLM(protocols, def.Params.BinaryPath)
	},
	runtime.SDServerName: func(def RuntimeDef, protocols protocol.Registry) runtime.Driver {
		return runtime.NewSDServer(protocols, def.Params.BinaryPath)
	},
}

func resolveRuntimes(defs []RuntimeDef, protocols protocol.Registry) (map[string]runtime.Driver, error) {
	out := make(map[string]runtime.Driver, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("config: runtime definition missing name")
		}
		factory, ok := runtimeClasses[def.Class]
		if !ok {
			return nil, fmt.Errorf("config: runtime %q has unknown class %q", def.Name, def.Class)
		}
		out[def.Name] = factory(def, protocols)
	}
	return out, nil
}
