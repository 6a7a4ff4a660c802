package runtime

import "fmt"

// UnsupportedFormatError is returned when a driver is asked to launch a
// Model whose ModelFormat it does not declare support for.
type UnsupportedFormatError struct {
	Driver string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported model format %q", e.Driver, e.Format)
}

// MissingDiffusionModelError is returned by the SDServer driver when a
// kcppt checkpoint names no sdmodel.
type MissingDiffusionModelError struct{}

func (*MissingDiffusionModelError) Error() string {
	return "no diffusion model specified in checkpoint"
}
