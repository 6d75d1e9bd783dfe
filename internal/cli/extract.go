package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/pipeline"
)

// extractCommand creates the extract command: PDF → plain text.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		output  string
		format  string
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "extract [file.pdf]",
		Short: "Extract the plain text of a PDF document",
		Long: `Extract the plain text of a PDF document.

Pages are read in order from the first to the last. The text items of a page
are joined with single spaces and every page is followed by a blank line.
If the document cannot be opened, or any page cannot be read, nothing is
written.

Backends:
  fragments  one item per text fragment (default)
  rows       one item per text run, rows in reading order`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateTextFormat(format); err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			applyConfig(cmd, &opts, cfg.Options())
			opts.Refresh = refresh
			return c.runExtract(cmd.Context(), args[0], opts, format, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.txt or .json)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatText, "output format: text, json")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "PDF backend: fragments (default), rows")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-extract instead of reading the cache")

	return cmd
}

// runExtract reads the document, extracts its text and writes the output.
func (c *CLI) runExtract(ctx context.Context, input string, opts pipeline.Options, format, output string) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", input)
		}
		return fmt.Errorf("read %s: %w", input, err)
	}
	logger.Debug("read document", "path", input, "bytes", len(data))

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Extracting text...")
	spinner.Start()

	res, err := runner.Extract(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Extraction failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Extracted %d pages", res.Stats.PageCount))

	out, err := pipeline.RenderText(res, format)
	if err != nil {
		return err
	}
	ext := format
	if format == pipeline.FormatText {
		ext = "txt"
	}
	path := outputPath(input, output, ext)
	if err := c.writeOutput(path, out); err != nil {
		return err
	}
	if path == stdoutPath {
		return nil
	}

	printSuccess("Extraction complete")
	printFile(path)
	printKeyValue("backend", res.Backend)
	printKeyValue("pages", fmt.Sprint(res.Stats.PageCount))
	printCacheStatus(res.CacheInfo.ExtractHit)
	return nil
}
