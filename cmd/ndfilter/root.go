// Root command for the ndfilter CLI.
package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gogpu/ndfilter"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "ndfilter",
		Short: "Run accelerated N-dimensional image filters",
		Long: `ndfilter runs drop-in replacements of reference toolkit filters
(signed distance map, discrete Gaussian and its derivatives, bin shrink,
median) on a GPU or CPU array backend.

Images are read and written as PNG, TIFF or BMP, chosen by file extension.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file with filter parameters")
	pf.String("backend", "", "array backend (cpu, wgpu; default: best available)")
	pf.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	pf.Bool("compare", false, "also run the reference filter and print the largest difference")
	pf.String("spacing", "", "input pixel spacing, fastest axis first (e.g. 0.5,0.5)")

	root.AddCommand(
		newFilterCmd(distanceCmd, &configFile),
		newFilterCmd(gaussianCmd, &configFile),
		newFilterCmd(derivativeCmd, &configFile),
		newFilterCmd(shrinkCmd, &configFile),
		newFilterCmd(medianCmd, &configFile),
		newBackendsCmd(&configFile),
	)
	return root
}

// setupLogging installs a text handler on stderr at the configured level.
func setupLogging(cmd *cobra.Command, level string) error {
	l, err := parseLevel(level)
	if err != nil {
		return err
	}
	h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: l})
	ndfilter.SetLogger(slog.New(h))
	return nil
}
