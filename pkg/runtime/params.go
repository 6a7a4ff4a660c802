package runtime

import (
	"fmt"
	"strconv"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/modelzoo/modelzoo/pkg/model"
)

// Params resolves runtime-parameter values supplied at launch time
// against a driver's declared RuntimeParameters, falling back to each
// parameter's Default and resolving enum labels to their underlying
// value.
type Params struct {
	defs   map[string]model.RuntimeParameter
	values map[string]interface{}
}

// NewParams binds defs (a driver's declared parameters) to the supplied
// values, which are typically the launch request's params map.
func NewParams(defs []model.RuntimeParameter, values map[string]interface{}) Params {
	byName := make(map[string]model.RuntimeParameter, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	if values == nil {
		values = map[string]interface{}{}
	}
	return Params{defs: byName, values: values}
}

func (p Params) raw(name string) interface{} {
	if v, ok := p.values[name]; ok {
		return v
	}
	if d, ok := p.defs[name]; ok {
		return d.Default
	}
	return nil
}

// String returns the string form of name's value.
func (p Params) String(name string) string {
	return fmt.Sprintf("%v", p.raw(name))
}

// Int returns the int form of name's value, converting from float64 (the
// JSON decode type) or string as needed.
func (p Params) Int(name string) int {
	switch v := p.raw(name).(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Float returns the float64 form of name's value.
func (p Params) Float(name string) float64 {
	switch v := p.raw(name).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Bool returns the bool form of name's value.
func (p Params) Bool(name string) bool {
	switch v := p.raw(name).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Enum resolves name's label against the parameter's declared Enum map,
// returning the underlying value. If the supplied value is not a known
// label it is returned unchanged, so a caller passing an already-resolved
// value (rather than a label) still works.
func (p Params) Enum(name string) interface{} {
	label := p.String(name)
	if d, ok := p.defs[name]; ok {
		if v, ok := d.ResolveEnum(label); ok {
			return v
		}
	}
	return p.raw(name)
}

// EnumInt is Enum for parameters whose underlying values are ints.
func (p Params) EnumInt(name string) int {
	switch v := p.Enum(name).(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// EnumString is Enum for parameters whose underlying values are strings.
func (p Params) EnumString(name string) string {
	return fmt.Sprintf("%v", p.Enum(name))
}

// ExtraArgs splits the named string parameter (conventionally
// "extra_args") into argv tokens the same way the source's
// extra_args.split() does, but shell-aware (quoting, escaping) via
// go-shellwords rather than a naive whitespace split.
func (p Params) ExtraArgs(name string) []string {
	raw := p.String(name)
	if raw == "" || raw == "<nil>" {
		return nil
	}
	tokens, err := shellwords.Parse(raw)
	if err != nil {
		return nil
	}
	return tokens
}
