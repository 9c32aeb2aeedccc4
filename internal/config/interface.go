package config

import (
	"context"

	"github.com/vk/a3dk/internal/devices"
)

// Loader is the interface for a format-specific project loader.
type Loader interface {
	// Load reads the project file at path and translates it into the
	// format-agnostic Source. Unreadable or malformed input is reported as
	// a *ParseError.
	Load(ctx context.Context, path string) (*Source, error)
}

// DeviceLookup resolves an FPGA part identifier to its infrastructure
// parameters. *devices.Registry satisfies it.
type DeviceLookup interface {
	Lookup(part string) (devices.Device, bool)
}
