package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindweave/pkg/render/nodelink"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		formats  string
		output   string
		detailed bool
		pinned   bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "export <map>",
		Short: "Render a mind map as Graphviz DOT, SVG or PNG",
		Long: `Render a mind map through Graphviz.

Several formats can be given as a comma-separated list. --pinned keeps the
positions computed by 'layout' instead of letting Graphviz place the nodes.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeMap,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := nodelink.Options{Detailed: detailed, Pinned: pinned}
			return c.runExport(cmd.Context(), args[0], parseFormats(formats), output, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "", "output formats: dot, svg, png (comma-separated, default: svg)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or base name for several formats (default: <map>.<format>)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include tags and task progress in labels")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "pin nodes at their saved positions")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, name string, formats []nodelink.Format, output string, opts nodelink.Options, noCache bool) error {
	if len(formats) == 0 {
		return fmt.Errorf("no output format given")
	}
	exporters := make([]*nodelink.Exporter, len(formats))
	for i, f := range formats {
		exp, err := nodelink.NewExporter(f, opts)
		if err != nil {
			return err
		}
		exporters[i] = exp
	}

	lc := c.openCache(ctx, noCache)
	defer lc.Close()
	eng, st, err := c.loadMap(ctx, name, lc)
	if err != nil {
		return err
	}
	st.Close()

	sp := newSpinner(ctx, "Rendering...").start()
	defer sp.stop()
	var written []string
	for i, exp := range exporters {
		prog := newProgress(c.Logger)
		data, err := eng.Export(ctx, exp)
		if err != nil {
			sp.fail("Render failed")
			return fmt.Errorf("render %s: %w", formats[i], err)
		}
		path := outputPath(name, output, formats[i], len(formats) > 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			sp.fail("Write failed")
			return fmt.Errorf("write %s: %w", path, err)
		}
		prog.done("export", "format", exp.Format(), "bytes", len(data))
		written = append(written, path)
	}
	sp.stop()

	printSuccess("Exported %s", name)
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// parseFormats parses a comma-separated format list.
func parseFormats(s string) []nodelink.Format {
	if s == "" {
		return []nodelink.Format{nodelink.FormatSVG}
	}
	var out []nodelink.Format
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, nodelink.Format(f))
		}
	}
	return out
}

// outputPath returns the file for one format. With several formats the
// output flag is a base name and each format gets its own extension.
func outputPath(name, output string, f nodelink.Format, multi bool) string {
	ext := "." + string(f)
	switch {
	case output == "":
		return name + ext
	case multi:
		return strings.TrimSuffix(output, filepath.Ext(output)) + ext
	default:
		return output
	}
}
