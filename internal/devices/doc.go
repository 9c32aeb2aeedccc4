// Package devices is the device descriptor registry.
//
// It maps an FPGA part identifier to the shared infrastructure parameters
// the part can host: reconfigurable slot count, shuffler pipeline depth and
// the clock/reset buffer primitives. The built-in catalogue is an embedded
// HCL file; users may merge additional catalogues in the same format.
//
// A Registry is populated once at startup and only read afterwards, so it
// carries no locking.
package devices
