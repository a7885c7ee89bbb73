// Backends command lists the registered array backends.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/ndfilter"
)

var opNames = []struct {
	op   ndfilter.AcceleratedOp
	name string
}{
	{ndfilter.OpDistanceTransform, "edt"},
	{ndfilter.OpBinaryErosion, "erosion"},
	{ndfilter.OpGaussian, "gaussian"},
	{ndfilter.OpDownscale, "downscale"},
	{ndfilter.OpMedian, "median"},
}

func newBackendsCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the array backends and whether they initialize",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd, *configFile, nil)
			if err != nil {
				return err
			}
			if err := setupLogging(cmd, v.GetString(cfgKeyLogLevel)); err != nil {
				return err
			}
			defer ndfilter.CloseBackends()

			out := cmd.OutOrStdout()
			for _, name := range ndfilter.AvailableBackends() {
				b, err := ndfilter.OpenBackend(name)
				if err != nil {
					fmt.Fprintf(out, "%-6s unavailable: %v\n", name, err)
					continue
				}
				var ops []string
				for _, o := range opNames {
					if b.CanAccelerate(o.op) {
						ops = append(ops, o.name)
					}
				}
				fmt.Fprintf(out, "%-6s ok (%s)\n", name, strings.Join(ops, ", "))
			}
			return nil
		},
	}
}
