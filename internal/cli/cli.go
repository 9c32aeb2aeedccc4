package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vk/a3dk/internal/app"
	"github.com/vk/a3dk/internal/config"
	"github.com/vk/a3dk/internal/fsutil"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError marks err as a mistake in how the tool was invoked.
func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// usageArgs wraps a positional argument validator so its failures are
// usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// DotEnvFile is read from the working directory before flags are resolved.
// Variables already present in the environment win.
const DotEnvFile = ".env"

// Execute runs the command line in args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	if fsutil.Exists(DotEnvFile) {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return usageError(fmt.Errorf("loading %s: %w", DotEnvFile, err))
		}
	}
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the a3dk command tree. Every persistent flag can
// also be given as an A3DK_* environment variable, e.g. A3DK_LOG_LEVEL.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("A3DK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "a3dk",
		Short: "ARTICo3 development kit",
		Long: `a3dk generates the hardware design, kernel cores and host application of an
ARTICo3 project from a project file and a repository of templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	f := root.PersistentFlags()
	f.StringP("config", "c", "", "Project file (.hcl, .cfg, .ini, .yaml, .yml). Defaults to the only project file in the working directory.")
	f.String("repo", "", "Template repository. Also read from A3DK_REPO or ARTICo3.")
	f.String("devices", "", "HCL file, or directory of HCL files, extending the built-in device catalogue.")
	f.Bool("pad-slots", false, "Bind free slots to a pass-through kernel. Overrides the project setting.")
	f.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	f.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	f.Int("workers", runtime.GOMAXPROCS(0), "Number of files expanded concurrently.")
	if err := v.BindPFlags(f); err != nil {
		panic(err)
	}
	if err := v.BindEnv("repo", "A3DK_REPO", "ARTICo3"); err != nil {
		panic(err)
	}

	root.AddCommand(
		newInfoCommand(v),
		newExportHWCommand(v),
		newExportSWCommand(v),
		newPreviewCommand(v),
	)
	return root
}

// loadApp assembles the application configuration and loads the project.
func loadApp(cmd *cobra.Command, v *viper.Viper) (*app.App, error) {
	file := v.GetString("config")
	if file == "" {
		found, err := discoverProject(".")
		if err != nil {
			return nil, usageError(err)
		}
		file = found
	}

	cfg := app.Config{
		ProjectFile: file,
		RepoDir:     v.GetString("repo"),
		DevicesFile: v.GetString("devices"),
		LogFormat:   strings.ToLower(v.GetString("log-format")),
		LogLevel:    strings.ToLower(v.GetString("log-level")),
		Workers:     v.GetInt("workers"),
	}
	if v.IsSet("pad-slots") {
		cfg.PadSlots = config.Ptr(v.GetBool("pad-slots"))
	}
	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), appConfig)
}

// discoverProject returns the only project file in dir.
func discoverProject(dir string) (string, error) {
	files, err := fsutil.ListFiles(dir, false, nil)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, f := range files {
		if slices.Contains(app.ProjectExtensions, strings.ToLower(filepath.Ext(f))) {
			candidates = append(candidates, filepath.Join(dir, f))
		}
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no project file found in %s: use --config", dir)
	case 1:
		return candidates[0], nil
	}
	return "", fmt.Errorf("several project files found (%s): use --config", strings.Join(candidates, ", "))
}
