// Package ports tracks which listener ports are in use by locally
// launched models. The operator chooses the port for every launch;
// Allocator only guards against two launches racing onto the same one
// and frees it back up on stop.
package ports

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
)

const (
	// DefaultBasePort is the starting port for auto-allocation.
	DefaultBasePort = 30000
	// DefaultPortRangeSize is the number of ports available for allocation.
	DefaultPortRangeSize = 1000
)

// Allocator hands out ports for locally launched models, keyed by
// ModelName, and tracks which are in use so concurrent launches never
// collide.
type Allocator struct {
	basePort int
	maxPort  int
	used     map[int]string // port -> model name
	mu       sync.Mutex
}

// NewAllocator creates an Allocator. The base port defaults to
// DefaultBasePort, overridable via MODELZOO_BASE_PORT.
func NewAllocator() *Allocator {
	basePort := DefaultBasePort
	if envPort := os.Getenv("MODELZOO_BASE_PORT"); envPort != "" {
		if p, err := strconv.Atoi(envPort); err == nil && p > 0 && p < 65535 {
			basePort = p
		}
	}

	return &Allocator{
		basePort: basePort,
		maxPort:  basePort + DefaultPortRangeSize,
		used:     make(map[int]string),
	}
}

// Allocate finds and reserves a port for modelName. If preferredPort is
// > 0, that specific port is reserved instead of auto-selecting one.
func (a *Allocator) Allocate(modelName string, preferredPort int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if preferredPort > 0 {
		if owner, exists := a.used[preferredPort]; exists {
			return 0, fmt.Errorf("port %d already allocated to %s", preferredPort, owner)
		}
		if err := checkPortAvailable(preferredPort); err != nil {
			return 0, fmt.Errorf("port %d: %w", preferredPort, err)
		}
		a.used[preferredPort] = modelName
		return preferredPort, nil
	}

	for port := a.basePort; port < a.maxPort; port++ {
		if _, exists := a.used[port]; exists {
			continue
		}
		if err := checkPortAvailable(port); err != nil {
			continue
		}
		a.used[port] = modelName
		return port, nil
	}

	return 0, fmt.Errorf("no available ports in range %d-%d", a.basePort, a.maxPort-1)
}

// Release frees a previously allocated port.
func (a *Allocator) Release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.used, port)
}

// ReleaseByName releases every port allocated to modelName.
func (a *Allocator) ReleaseByName(modelName string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for port, name := range a.used {
		if name == modelName {
			delete(a.used, port)
		}
	}
}

func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("port in use: %w", err)
	}
	return ln.Close()
}
