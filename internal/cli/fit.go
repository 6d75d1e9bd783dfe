package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/pipeline"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// fitResult is the JSON output of the fit command.
type fitResult struct {
	Fitted    bool               `json:"fitted"`
	Transform viewport.Transform `json:"transform"`
	SVG       string             `json:"svg"`
}

// fitCommand creates the fit command, which computes the transform for a
// bounding box without running a layout.
func (c *CLI) fitCommand() *cobra.Command {
	var asJSON bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "fit X Y WIDTH HEIGHT",
		Short: "Compute the transform that fits a bounding box into the viewport",
		Long: `Compute the transform that fits a bounding box into the viewport.

The box is scaled so that it fills --fill of the limiting axis and is
centered. A box with zero width or height cannot be fitted; the identity
transform is printed and the exit status is still zero.`,
		Example: `  proctree fit 0 0 240 160 --width 1024 --height 768`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := parseBox(args)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyConfig(cmd, &opts, cfg.Options())
			if err := opts.ValidateForTree(); err != nil {
				return err
			}

			t, ok := viewport.Fit(box, opts.Size(), opts.Fill)
			if !ok {
				t = viewport.Identity
			}
			if asJSON {
				data, err := json.MarshalIndent(fitResult{Fitted: ok, Transform: t, SVG: t.String()}, "", "  ")
				if err != nil {
					return err
				}
				return c.writeOutput(stdoutPath, append(data, '\n'))
			}
			if !ok {
				printWarning("Box has no extent; transform unchanged")
			}
			fmt.Fprintln(c.Out, t.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the transform as JSON")
	addViewFlags(cmd, &opts)

	return cmd
}

// parseBox parses the four numeric box arguments.
func parseBox(args []string) (viewport.Box, error) {
	var v [4]float64
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return viewport.Box{}, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "box value %q", a)
		}
		v[i] = f
	}
	return viewport.Box{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
