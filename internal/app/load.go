package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/ctxlog"
	"github.com/vk/a3dk/internal/devices"
	"github.com/vk/a3dk/internal/fsutil"
	"github.com/vk/a3dk/internal/hcl_adapter"
	"github.com/vk/a3dk/internal/ini_adapter"
	"github.com/vk/a3dk/internal/yaml_adapter"
)

// ProjectExtensions lists the file extensions a project may use.
var ProjectExtensions = []string{".hcl", ".cfg", ".ini", ".yaml", ".yml"}

// loaderFor picks the project loader matching the extension of path.
func loaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcl_adapter.NewLoader(), nil
	case ".cfg", ".ini":
		return ini_adapter.NewLoader(), nil
	case ".yaml", ".yml":
		return yaml_adapter.NewLoader(), nil
	}
	return nil, fmt.Errorf("unsupported project file %s: expected one of %s", path, strings.Join(ProjectExtensions, ", "))
}

// loadDevices returns the built-in device catalogue extended with the
// optional user catalogue. A directory contributes every *.hcl file below
// it, in lexical order, so later files override earlier ones.
func loadDevices(ctx context.Context, path string) (*devices.Registry, error) {
	logger := ctxlog.FromContext(ctx)

	reg, err := devices.Builtin()
	if err != nil {
		return nil, fmt.Errorf("loading built-in devices: %w", err)
	}
	if path == "" {
		logger.Debug("Device catalogue ready.", "parts", reg.Parts())
		return reg, nil
	}

	files := []string{path}
	if fsutil.IsDir(path) {
		if files, err = fsutil.FindFilesByExtension(path, ".hcl"); err != nil {
			return nil, fmt.Errorf("scanning device catalogues in %s: %w", path, err)
		}
	}
	for _, file := range files {
		if err := reg.LoadFile(file); err != nil {
			return nil, err
		}
		logger.Debug("Device catalogue extended.", "file", file)
	}
	logger.Debug("Device catalogue ready.", "parts", reg.Parts())
	return reg, nil
}

// loadProject reads, translates and validates the project file.
func loadProject(ctx context.Context, cfg *Config) (*config.Project, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading project...", "file", cfg.ProjectFile)

	loader, err := loaderFor(cfg.ProjectFile)
	if err != nil {
		return nil, err
	}
	src, err := loader.Load(ctx, cfg.ProjectFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Project file translated into unified model.")

	reg, err := loadDevices(ctx, cfg.DevicesFile)
	if err != nil {
		return nil, err
	}
	prj, err := config.Build(ctx, src, config.Options{Devices: reg, PadSlots: cfg.PadSlots})
	if err != nil {
		return nil, err
	}
	logger.Info("Project loaded.", "name", prj.Name, "kernels", len(prj.Kernels), "slots", len(prj.Slots))
	return prj, nil
}
