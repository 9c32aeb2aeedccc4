// Package config defines the format-agnostic configuration model of an
// a3dk project, along with the Loader interface implemented by the
// format-specific adapters (HCL, legacy INI, YAML).
//
// Loading is a two step process. A Loader turns a file into a Source, in
// which every optional key is a pointer so that "absent" stays
// distinguishable from zero. Build then fills defaults, repairs memory
// alignment, binds kernels to slots, resolves shuffler parameters through
// the device registry and validates the result. Build either returns a
// complete Project or an error; a Project is never returned half valid, and
// it is treated as read-only afterwards.
package config
