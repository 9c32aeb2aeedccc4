package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/vk/a3dk/internal/macro"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// DemoProject is an HCL project with one VHDL kernel bound to two of the
// four slots of an xc7z020.
const DemoProject = `
general {
  name             = "Demo"
  target_board     = "pynq"
  target_part      = "xc7z020clg400-1"
  reference_design = "artico3"
  target_xil       = "vivado 2018.3"
  target_os        = "linux"
  cflags           = "-O3"
  ldflags          = "-lm"
}

artico3 {
  part = "xc7z020"
}

kernel "adder" {
  hw_source = "vhdl"
  mem_bytes = 8192
  mem_banks = 2
  reg_rw    = 1
  reg_ro    = 1
  replicas  = 2
}
`

// DemoSources are the user sources of DemoProject.
var DemoSources = map[string]string{
	"src/application/main.c":      "int main(void) { return 0; }\n",
	"src/application/util/vec.c":  "void vec(void) {}\n",
	"src/application/util/vec.h":  "void vec(void);\n",
	"src/a3_adder/vhdl/adder.vhd": "entity adder is end;\n",
}

// DemoRepo is a template repository able to export DemoProject.
var DemoRepo = map[string]string{
	"templates/artico3_devices/xc7z020.xdc": "# constraints\n",

	"templates/ref_linux_pynq_artico3_vivado_2018.3/system.tcl": macro.Marker + `
set part <a3<PART>a3>
set clk <a3<CLK_BUFFER>a3>
<a3<generate for SLOTS>a3>
slot <a3<id>a3> <a3<SlotCoreName>a3>
<a3<end generate>a3>
`,
	"templates/ref_linux_pynq_artico3_vivado_2018.3/constraints/<a3<generate_for_SOURCES>a3>": "",

	"templates/artico3_kernel_vhdl_pcore/<a3<NAME>a3>/hdl/<a3<generate_for_SOURCES>a3>": "",
	"templates/artico3_kernel_vhdl_pcore/<a3<NAME>a3>/<a3<NAME>a3>.prj": macro.Marker + `
<a3<generate for INCLUDES>a3>
vhdl <a3<File>a3>.vhd
<a3<end generate>a3>
banks <a3<MEMBANKS>a3> rst <a3<RST_POL>a3>
`,

	"templates/artico3_app_linux/src/<a3<generate_for_SOURCES>a3>": "",
	"templates/artico3_app_linux/config.h": macro.Marker + `
#define A3_SLOTS <a3<NUM_SLOTS>a3>
#define A3_FLAGS "<a3<CFLAGS>a3>"
`,
	"templates/artico3_app_linux/Makefile": `REPO = <a3<REPO_REL>a3>
<a3<generate for OBJS>a3>
OBJ <a3<Source>a3>
<a3<end generate>a3>
`,
}

// Fixture is a project and a template repository laid out side by side in
// a temporary directory.
type Fixture struct {
	Root        string
	ProjectDir  string
	ProjectFile string
	RepoDir     string
}

// NewFixture writes project as demo.<ext> next to DemoSources and DemoRepo.
func NewFixture(t *testing.T, name, project string) *Fixture {
	t.Helper()
	root := t.TempDir()
	f := &Fixture{
		Root:       root,
		ProjectDir: filepath.Join(root, "demo"),
		RepoDir:    filepath.Join(root, "artico3"),
	}
	f.ProjectFile = filepath.Join(f.ProjectDir, name)
	WriteTree(t, f.ProjectDir, DemoSources)
	WriteTree(t, f.RepoDir, DemoRepo)
	if err := os.WriteFile(f.ProjectFile, []byte(project), 0o644); err != nil {
		t.Fatalf("writing project file: %v", err)
	}
	return f
}
