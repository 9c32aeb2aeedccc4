package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/a3dk/internal/app"
)

func newInfoCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the validated project",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			return a.Info()
		},
	}
}

func newExportHWCommand(v *viper.Viper) *cobra.Command {
	var opts app.HWOptions
	cmd := &cobra.Command{
		Use:   "export-hw [DIR]",
		Short: "Generate the hardware design and kernel cores",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			return a.ExportHW(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Link, "link", "l", false, "Link sources instead of copying them.")
	cmd.Flags().StringVarP(&opts.Kernel, "kernel", "k", "", "Export only the core of this kernel.")
	return cmd
}

func newExportSWCommand(v *viper.Viper) *cobra.Command {
	var opts app.SWOptions
	cmd := &cobra.Command{
		Use:   "export-sw [DIR]",
		Short: "Generate the host application",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			return a.ExportSW(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Link, "link", "l", false, "Link sources instead of copying them.")
	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "Build the runtime with debug output.")
	return cmd
}

func newPreviewCommand(v *viper.Viper) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "preview FILE|DIR|TEMPLATE",
		Short: "Print the expansion of a file or template without writing it",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			return a.Preview(cmd.Context(), args[0], app.ContextKind(kind))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(app.ContextProject), "Generation context: 'hw', 'sw' or 'project'.")
	return cmd
}
