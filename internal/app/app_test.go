package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/a3dk/internal/app"
	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/macro"
	"github.com/vk/a3dk/internal/templates"
	"github.com/vk/a3dk/internal/testutil"
)

func newTestApp(t *testing.T, f *testutil.Fixture, mutate ...func(*app.Config)) (*app.App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()
	cfg := app.Config{
		ProjectFile: f.ProjectFile,
		RepoDir:     f.RepoDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		Workers:     4,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := app.NewApp(context.Background(), out, logs, appConfig)
	t.Cleanup(func() {
		if os.Getenv("A3DK_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	require.NoError(t, err)
	return a, out, logs
}

func TestNewConfig(t *testing.T) {
	_, err := app.NewConfig(app.Config{})
	assert.Error(t, err, "project file is required")

	_, err = app.NewConfig(app.Config{ProjectFile: "p.hcl", LogLevel: "verbose"})
	assert.ErrorContains(t, err, "log level")

	_, err = app.NewConfig(app.Config{ProjectFile: "p.hcl", LogFormat: "xml"})
	assert.ErrorContains(t, err, "log format")

	_, err = app.NewConfig(app.Config{ProjectFile: "p.hcl", Workers: -1})
	assert.ErrorContains(t, err, "worker")

	cfg, err := app.NewConfig(app.Config{ProjectFile: "p.hcl", LogLevel: "warn", LogFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, "p.hcl", cfg.ProjectFile)
}

func TestNewApp_LoadsEveryFormat(t *testing.T) {
	ini := `[General]
Name = Demo
TargetBoard = pynq
TargetPart = xc7z020clg400-1
ReferenceDesign = artico3
TargetXil = vivado,2018.3
TargetOS = linux

[ARTICo3]
Part = xc7z020

[A3Kernel@adder]
HwSource = vhdl
Replicas = 2
`
	yml := `general:
  name: Demo
  target_board: pynq
  target_part: xc7z020clg400-1
  reference_design: artico3
  target_xil: [vivado, "2018.3"]
  target_os: linux
artico3:
  part: xc7z020
kernels:
  - name: adder
    hw_source: vhdl
    replicas: 2
`
	cases := map[string]string{
		"demo.hcl":  testutil.DemoProject,
		"demo.cfg":  ini,
		"demo.yaml": yml,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			a, _, _ := newTestApp(t, testutil.NewFixture(t, name, content))
			p := a.Project()
			assert.Equal(t, "Demo", p.Name)
			assert.Equal(t, 4, p.Shuffler.Slots, "slot count comes from the device catalogue")
			assert.Len(t, p.Slots, 2)
		})
	}
}

func TestNewApp_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.toml", "")
		cfg, err := app.NewConfig(app.Config{ProjectFile: f.ProjectFile})
		require.NoError(t, err)
		_, err = app.NewApp(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, cfg)
		assert.ErrorContains(t, err, "unsupported project file")
	})

	t.Run("validation problems", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.hcl", strings.Replace(testutil.DemoProject, "replicas  = 2", "replicas  = 5", 1))
		cfg, err := app.NewConfig(app.Config{ProjectFile: f.ProjectFile})
		require.NoError(t, err)
		_, err = app.NewApp(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, cfg)
		var verr *config.ValidationError
		require.True(t, errors.As(err, &verr))
	})

	t.Run("parse error", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.hcl", "general {")
		cfg, err := app.NewConfig(app.Config{ProjectFile: f.ProjectFile})
		require.NoError(t, err)
		_, err = app.NewApp(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, cfg)
		var perr *config.ParseError
		require.True(t, errors.As(err, &perr))
	})
}

func TestNewApp_PadSlotsOverride(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	a, _, _ := newTestApp(t, f, func(c *app.Config) { c.PadSlots = config.Ptr(true) })

	p := a.Project()
	require.Len(t, p.Slots, 4)
	assert.Equal(t, config.PadKernelName, p.Slots[3].Kernel.Name)
}

func TestNewApp_DevicesFile(t *testing.T) {
	project := strings.Replace(testutil.DemoProject, `part = "xc7z020"`, `part = "xc7z045"`, 1)
	f := testutil.NewFixture(t, "demo.hcl", project)
	devicesFile := filepath.Join(f.Root, "devices.hcl")
	require.NoError(t, os.WriteFile(devicesFile, []byte(`
device "xc7z045" {
  slots      = 8
  pipe_depth = 4
  clk_buffer = "global"
  rst_buffer = "none"
}
`), 0o644))

	a, _, _ := newTestApp(t, f, func(c *app.Config) { c.DevicesFile = devicesFile })
	assert.Equal(t, 8, a.Project().Shuffler.Slots)
	assert.Equal(t, config.BufferNone, a.Project().Shuffler.ResetBuffer)
}

func TestNewApp_DevicesDirectory(t *testing.T) {
	project := strings.Replace(testutil.DemoProject, `part = "xc7z020"`, `part = "xc7z045"`, 1)
	f := testutil.NewFixture(t, "demo.hcl", project)
	dir := filepath.Join(f.Root, "devices")
	testutil.WriteTree(t, dir, map[string]string{
		"a.hcl":      "device \"xc7z045\" {\n  slots = 8\n  pipe_depth = 4\n  clk_buffer = \"global\"\n  rst_buffer = \"none\"\n}\n",
		"zynq/b.hcl": "device \"xc7z045\" {\n  slots = 6\n  pipe_depth = 4\n  clk_buffer = \"global\"\n  rst_buffer = \"none\"\n}\n",
		"README.txt": "not a catalogue",
	})

	a, _, _ := newTestApp(t, f, func(c *app.Config) { c.DevicesFile = dir })
	assert.Equal(t, 6, a.Project().Shuffler.Slots, "later files override earlier ones")
}

func TestApp_Info(t *testing.T) {
	a, out, _ := newTestApp(t, testutil.NewFixture(t, "demo.hcl", testutil.DemoProject))

	require.NoError(t, a.Info())

	text := out.String()
	assert.Contains(t, text, "ARTICo3 Project 'Demo'")
	assert.Contains(t, text, "  Xilinx Tools      vivado,2018.3\n")
	assert.Contains(t, text, "  Clock Buffers     horizontal\n")
	assert.Contains(t, text, "id=1,kernel=adder")
}

func TestApp_ExportHW(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	a, _, _ := newTestApp(t, f)

	require.NoError(t, a.ExportHW(context.Background(), app.HWOptions{}))

	want := map[string]string{
		"system.tcl":                 "set part xc7z020\nset clk HORIZONTAL\nslot 0 a3_adder\nslot 1 a3_adder\n",
		"constraints/xc7z020.xdc":    "# constraints\n",
		"pcores/adder/adder.prj":     "vhdl adder.vhd\nbanks 2 rst low\n",
		"pcores/adder/hdl/adder.vhd": "entity adder is end;\n",
	}
	got := testutil.ReadTree(t, filepath.Join(f.ProjectDir, "demo.hw"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("hardware export mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_ExportHW_PaddedKernelWithoutSources(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	a, _, logs := newTestApp(t, f, func(c *app.Config) { c.PadSlots = config.Ptr(true) })
	dir := filepath.Join(f.Root, "out")

	require.NoError(t, a.ExportHW(context.Background(), app.HWOptions{Dir: dir}))

	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "banks 2 rst low\n", got["pcores/dummy/dummy.prj"])
	assert.Contains(t, got["system.tcl"], "slot 3 a3_dummy\n")
	assert.Contains(t, logs.String(), "Kernel sources not found")
}

func TestApp_ExportHW_SingleKernel(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	a, _, _ := newTestApp(t, f)

	require.NoError(t, a.ExportHW(context.Background(), app.HWOptions{Kernel: "adder", Link: true}))

	got := testutil.ReadTree(t, filepath.Join(f.ProjectDir, "demo.hw.adder"))
	assert.Equal(t, "-> "+filepath.Join(f.ProjectDir, "src", "a3_adder", "vhdl", "adder.vhd"), got["adder/hdl/adder.vhd"])
	assert.NoDirExists(t, filepath.Join(f.ProjectDir, "demo.hw"))

	err := a.ExportHW(context.Background(), app.HWOptions{Kernel: "missing"})
	assert.ErrorContains(t, err, `kernel "missing" not found`)
}

func TestApp_ExportHW_Errors(t *testing.T) {
	t.Run("missing repository", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
		a, _, _ := newTestApp(t, f, func(c *app.Config) { c.RepoDir = "" })
		assert.ErrorContains(t, a.ExportHW(context.Background(), app.HWOptions{}), "repository")
	})

	t.Run("unsupported tool", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.hcl", strings.Replace(testutil.DemoProject, "vivado 2018.3", "ise 14.7", 1))
		a, _, _ := newTestApp(t, f)
		assert.ErrorContains(t, a.ExportHW(context.Background(), app.HWOptions{}), `tool "ise" not supported`)
	})

	t.Run("missing template", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.hcl", strings.Replace(testutil.DemoProject, `"pynq"`, `"zybo"`, 1))
		a, _, _ := newTestApp(t, f)
		err := a.ExportHW(context.Background(), app.HWOptions{})
		var rerr *templates.ResolutionError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, "ref_linux_zybo_artico3_vivado_2018.3", rerr.Name)
	})

	t.Run("unsupported hardware source", func(t *testing.T) {
		f := testutil.NewFixture(t, "demo.hcl", strings.Replace(testutil.DemoProject, `hw_source = "vhdl"`, `hw_source = "verilog"`, 1))
		a, _, _ := newTestApp(t, f)
		assert.ErrorContains(t, a.ExportHW(context.Background(), app.HWOptions{}), `unsupported hardware source "verilog"`)
	})
}

func TestApp_ExportHW_HLSKernel(t *testing.T) {
	project := strings.Replace(testutil.DemoProject, `hw_source = "vhdl"`, `hw_source = "hls"`, 1)
	f := testutil.NewFixture(t, "demo.hcl", project)
	testutil.WriteTree(t, f.ProjectDir, map[string]string{
		"src/a3_adder/hls/adder.cpp": "A3_KERNEL(a3in_t int *a, a3out_t int *b) {}\n",
	})
	testutil.WriteTree(t, f.RepoDir, map[string]string{
		"templates/artico3_kernel_hls_build/csynth.tcl": macro.Marker + "\nset_part <a3<PART>a3>\n<a3<generate for PORTS>a3>\nport <a3<pid>a3> <a3<bid>a3>\n<a3<end generate>a3>\n",
	})
	a, _, _ := newTestApp(t, f)

	require.NoError(t, a.ExportHW(context.Background(), app.HWOptions{Kernel: "adder"}))

	got := testutil.ReadTree(t, filepath.Join(f.ProjectDir, "demo.hls.adder"))
	assert.Equal(t, "set_part xc7z020clg400-1\nport *a 0\nport *b 1\n", got["csynth.tcl"])
}

func TestApp_ExportSW(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	a, _, _ := newTestApp(t, f)

	require.NoError(t, a.ExportSW(context.Background(), app.SWOptions{Debug: true}))

	want := map[string]string{
		"config.h":       "#define A3_SLOTS 4\n#define A3_FLAGS \"-O3 -DA3_DEBUG\"\n",
		"Makefile":       "REPO = ../../artico3\nOBJ src/main.o\nOBJ src/util/vec.o\n",
		"src/main.c":     testutil.DemoSources["src/application/main.c"],
		"src/util/vec.c": testutil.DemoSources["src/application/util/vec.c"],
		"src/util/vec.h": testutil.DemoSources["src/application/util/vec.h"],
	}
	got := testutil.ReadTree(t, filepath.Join(f.ProjectDir, "demo.sw"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("software export mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_Preview(t *testing.T) {
	f := testutil.NewFixture(t, "demo.hcl", testutil.DemoProject)
	a, out, _ := newTestApp(t, f)

	t.Run("file", func(t *testing.T) {
		out.Reset()
		file := filepath.Join(f.Root, "snippet.txt")
		require.NoError(t, os.WriteFile(file, []byte("<a3<NAME>a3> has <a3<NUM_SLOTS>a3> slots on <a3<DEVICE>a3>\n"), 0o644))

		require.NoError(t, a.Preview(context.Background(), file, app.ContextProject))
		assert.Equal(t, "demo has 4 slots on zynq\n", out.String())
	})

	t.Run("template", func(t *testing.T) {
		out.Reset()
		require.NoError(t, a.Preview(context.Background(), "artico3_app_linux", app.ContextSoftware))
		assert.Equal(t, "==> config.h\n#define A3_SLOTS 4\n#define A3_FLAGS \"-O3\"\n", out.String())
		assert.Contains(t, testutil.ReadTree(t, f.RepoDir), "templates/artico3_app_linux/config.h", "the template is left untouched")
	})

	t.Run("unknown kind", func(t *testing.T) {
		assert.ErrorContains(t, a.Preview(context.Background(), "artico3_app_linux", "kernel"), "unknown context kind")
	})

	t.Run("unknown template", func(t *testing.T) {
		var rerr *templates.ResolutionError
		assert.True(t, errors.As(a.Preview(context.Background(), "nope", app.ContextHardware), &rerr))
	})
}

func TestHardwareTemplate(t *testing.T) {
	p := &config.Project{Impl: config.Implementation{
		Boards: []string{"zcu102", "ultra96"}, OS: "linux", Design: "artico3", Tool: "vivado", ToolVersion: "2018.3",
	}}
	assert.Equal(t, "ref_linux_zcu102_ultra96_artico3_vivado_2018.3", app.HardwareTemplate(p))
}
