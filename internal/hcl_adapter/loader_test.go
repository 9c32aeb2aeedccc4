package hcl_adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/a3dk/internal/config"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load_FullProject(t *testing.T) {
	path := writeProject(t, `
general {
  name             = "addvector"
  target_board     = ["pynq"]
  target_part      = "xc7z020clg400-1"
  reference_design = "artico3"
  target_xil       = ["vivado", "2018.3"]
  target_os        = "linux"
  cflags           = "-O3"
}

artico3 {
  slots     = 4
  part      = "xc7z020"
  pad_slots = true
}

kernel "addvector" {
  hw_source = "hls"
  mem_bytes = 16000
  mem_banks = 3
  rst_pol   = "high"
  replicas  = 2
}

kernel "scale" {
  hw_source = "vhdl"
  regs      = 6
}
`)

	src, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)

	want := &config.Source{
		File: path,
		General: config.GeneralSource{
			Name:            config.Ptr("addvector"),
			TargetBoard:     []string{"pynq"},
			TargetPart:      config.Ptr("xc7z020clg400-1"),
			ReferenceDesign: config.Ptr("artico3"),
			TargetXil:       []string{"vivado", "2018.3"},
			TargetOS:        config.Ptr("linux"),
			CFlags:          config.Ptr("-O3"),
		},
		Shuffler: config.ShufflerSource{
			Slots:    config.Ptr(4),
			Part:     config.Ptr("xc7z020"),
			PadSlots: config.Ptr(true),
		},
		Kernels: []config.KernelSource{
			{
				Name:     "addvector",
				HwSource: config.Ptr("hls"),
				MemBytes: config.Ptr(16000),
				MemBanks: config.Ptr(3),
				RstPol:   config.Ptr("high"),
				Replicas: config.Ptr(2),
			},
			{
				Name:     "scale",
				HwSource: config.Ptr("vhdl"),
				Regs:     config.Ptr(6),
			},
		},
	}
	if diff := cmp.Diff(want, src); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Load_StringLists(t *testing.T) {
	path := writeProject(t, `
general {
  target_board = "zcu102, pynq"
  target_xil   = "vivado 2018.3"
}
`)

	src, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zcu102", "pynq"}, src.General.TargetBoard)
	assert.Equal(t, []string{"vivado", "2018.3"}, src.General.TargetXil)
}

func TestLoader_Load_AbsentKeysStayNil(t *testing.T) {
	path := writeProject(t, `
general {
  name = "minimal"
}

kernel "k" {}
`)

	src, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, src.General.TargetBoard)
	assert.Nil(t, src.General.TargetPart)
	assert.Equal(t, config.ShufflerSource{}, src.Shuffler)
	require.Len(t, src.Kernels, 1)
	assert.Nil(t, src.Kernels[0].MemBytes)
	assert.Nil(t, src.Kernels[0].RstPol)
}

func TestLoader_Load_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "syntax error", content: `general {`},
		{name: "unknown attribute", content: `general { colour = "red" }`},
		{name: "unknown block", content: `pipeline "x" {}`},
		{name: "fractional integer", content: `kernel "k" { mem_bytes = 3.5 }`},
		{name: "wrong list type", content: `general { target_board = { a = 1 } }`},
		{name: "kernel without name", content: `kernel { hw_source = "vhdl" }`},
		{name: "duplicate general", content: "general {}\ngeneral {}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeProject(t, tc.content)

			_, err := NewLoader().Load(context.Background(), path)
			require.Error(t, err)
			var perr *config.ParseError
			require.True(t, errors.As(err, &perr), "expected *config.ParseError, got %T", err)
			assert.Equal(t, path, perr.File)
		})
	}
}

func TestLoader_Load_MissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
	var perr *config.ParseError
	assert.ErrorAs(t, err, &perr)
}
