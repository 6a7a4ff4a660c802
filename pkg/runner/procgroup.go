package runner

// groupSignal is the platform-neutral signal type passed to signalGroup.
// Its concrete values are defined per-platform in procgroup_posix.go and
// procgroup_windows.go.
type groupSignal int
