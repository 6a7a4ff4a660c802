package runtime

import (
	"fmt"

	archvariant "github.com/tonistiigi/go-archvariant"
)

// ResolveBinary returns configuredPath unchanged if set, otherwise
// derives an architecture-variant-specific binary name from base (e.g.
// "llama-server" -> "llama-server-avx2") using the host's detected CPU
// variant. This mirrors how prebuilt llama.cpp-family releases ship
// multiple variant binaries for the same base name.
func ResolveBinary(configuredPath, base string) string {
	if configuredPath != "" {
		return configuredPath
	}
	variant, err := archvariant.Variant()
	if err != nil || variant == "" {
		return base
	}
	return fmt.Sprintf("%s-%s", base, variant)
}
