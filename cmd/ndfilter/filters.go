// Filter subcommands.
package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/ndfilter"
	"github.com/gogpu/ndfilter/accel"
	"github.com/gogpu/ndfilter/reference"
)

// filterCmd describes one filter subcommand.
type filterCmd struct {
	use    string
	short  string
	filter string // reference toolkit name
	keys   []optionKey
}

var (
	useSpacingKey = optionKey{"use_image_spacing", kindBool, "measure in physical units using the image spacing (default true)"}
	varianceKeys  = []optionKey{
		{"variance", kindString, "Gaussian variance per axis (default 0)"},
		{"maximum_error", kindString, "tolerated kernel truncation error per axis (default 0.01)"},
		{"maximum_kernel_width", kindString, "largest kernel width in pixels (default 32)"},
		useSpacingKey,
	}
)

var distanceCmd = filterCmd{
	use:    "distance",
	short:  "Signed Maurer distance map of a binary mask",
	filter: "SignedMaurerDistanceMap",
	keys: []optionKey{
		{"squared_distance", kindBool, "output squared distances (default true)"},
		{"inside_is_positive", kindBool, "report positive distances inside the object"},
		useSpacingKey,
		{"background_value", kindString, "background pixel value; only 0 is supported"},
	},
}

var gaussianCmd = filterCmd{
	use:    "gaussian",
	short:  "Discrete Gaussian smoothing",
	filter: "DiscreteGaussian",
	keys:   varianceKeys,
}

var derivativeCmd = filterCmd{
	use:    "derivative",
	short:  "Discrete Gaussian derivative",
	filter: "DiscreteGaussianDerivative",
	keys: append([]optionKey{
		{"order", kindString, "derivative order per axis, fastest axis first (default 1)"},
		{"normalize_across_scale", kindBool, "scale derivatives by sigma^order"},
	}, varianceKeys...),
}

var shrinkCmd = filterCmd{
	use:    "shrink",
	short:  "Bin shrink by integer factors",
	filter: "BinShrink",
	keys: []optionKey{
		{"shrink_factors", kindString, "shrink factor per axis (default 1)"},
	},
}

var medianCmd = filterCmd{
	use:    "median",
	short:  "Median filter over a box neighbourhood",
	filter: "Median",
	keys: []optionKey{
		{"radius", kindString, "neighbourhood radius per axis (default 1)"},
	},
}

func newFilterCmd(fc filterCmd, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fc.use + " <input> <output>",
		Short: fc.short,
		Long: fc.short + ` (` + fc.filter + `).

Options may also be given as NDFILTER_<OPTION> environment variables or as
top-level keys of the --config file, for example:

  ` + fc.keys[0].key + `: ...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd, *configFile, fc.keys)
			if err != nil {
				return err
			}
			if err := setupLogging(cmd, v.GetString(cfgKeyLogLevel)); err != nil {
				return err
			}
			return runFilter(cmd, v, fc, args[0], args[1])
		},
	}
	for _, k := range fc.keys {
		k.register(cmd.Flags())
	}
	return cmd
}

func runFilter(cmd *cobra.Command, v *viper.Viper, fc filterCmd, inPath, outPath string) error {
	opts := filterOptions(v, fc.keys)

	in, err := readImage(inPath)
	if err != nil {
		return err
	}
	if s := v.GetString(cfgKeySpacing); s != "" {
		if err := applySpacing(in, s); err != nil {
			return err
		}
	}

	var options []accel.Option
	if name := v.GetString(cfgKeyBackend); name != "" {
		options = append(options, accel.WithBackendName(name))
	}
	f, err := accel.New(fc.filter, opts, options...)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := accel.Run(f, in)
	if err != nil {
		return fmt.Errorf("%s: %w", fc.filter, err)
	}
	ndfilter.Logger().Info("filter done", "filter", fc.filter, "size", out.Size, "elapsed", time.Since(start))

	if v.GetBool(cfgKeyCompare) {
		diff, err := compareReference(fc.filter, opts, in, out)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "max abs difference vs reference: %g\n", diff)
	}
	return writeImage(outPath, out)
}

// applySpacing sets the spacing of im from a comma separated list; a single
// value applies to every axis.
func applySpacing(im *ndfilter.Image, s string) error {
	spacing, err := parseFloats(s)
	if err != nil {
		return fmt.Errorf("spacing: %w", err)
	}
	switch len(spacing) {
	case 1:
		spacing = ndfilter.Fill(im.Dim(), spacing[0])
	case im.Dim():
	default:
		return fmt.Errorf("spacing: %d values for a %d-d image", len(spacing), im.Dim())
	}
	for _, sp := range spacing {
		if !(sp > 0) {
			return fmt.Errorf("spacing: %v is not positive", sp)
		}
	}
	im.Spacing = spacing
	return nil
}

// compareReference runs the CPU reference filter on in and returns the
// largest absolute difference to out. Matching infinities count as equal.
func compareReference(name string, opts reference.Options, in, out *ndfilter.Image) (float64, error) {
	ref, err := reference.New(name, opts)
	if err != nil {
		return 0, err
	}
	ref.SetInput(in)
	if err := ref.Update(); err != nil {
		return 0, fmt.Errorf("reference %s: %w", name, err)
	}
	want := ref.Output()
	if !out.SameGeometry(want.Info, 1e-9) {
		return 0, fmt.Errorf("reference %s: output geometry differs", name)
	}
	return maxAbsDiff(out.Buffer(), want.Buffer()), nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func maxAbsDiff(a, b []float64) float64 {
	var worst float64
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		d := math.Abs(a[i] - b[i])
		if math.IsNaN(d) {
			return math.Inf(1)
		}
		worst = max(worst, d)
	}
	return worst
}
