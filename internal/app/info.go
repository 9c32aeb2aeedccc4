package app

import (
	"fmt"
	"io"
	"strings"
)

const rule = "----------------------------------------"

// Info prints a summary of the project: target, shuffler, kernels and slots.
func (a *App) Info() error {
	p := a.project
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %-18s%s\n", label, value)
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "ARTICo3 Project '%s'\n", p.Name)
	row("Board", strings.Join(p.Impl.Boards, ","))
	row("Reference Design", p.Impl.Design)
	row("Part", p.Impl.Part)
	row("Operating System", p.Impl.OS)
	row("Xilinx Tools", p.Impl.Tool+","+p.Impl.ToolVersion)
	row("CFlags", p.Impl.CFlags)
	row("LdFlags", p.Impl.LdFlags)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Shuffler:")
	row("Slots", fmt.Sprint(p.Shuffler.Slots))
	row("Pipeline Stages", fmt.Sprint(p.Shuffler.PipelineStages))
	row("Clock Buffers", string(p.Shuffler.ClockBuffer))
	row("Reset Buffers", string(p.Shuffler.ResetBuffer))
	row("Device", p.Shuffler.Part)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Kernels:")
	for _, k := range p.Kernels {
		fmt.Fprintf(&b, "  %s\n", k)
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Slots:")
	for _, s := range p.Slots {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	fmt.Fprintln(&b, rule)

	_, err := io.WriteString(a.outW, b.String())
	return err
}
