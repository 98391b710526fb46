package nodelink

import (
	"context"
	"slices"

	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

// Format is an output format of the exporter.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatDOT, FormatSVG, FormatPNG}

// Exporter renders documents in one format. It satisfies engine.Exporter.
type Exporter struct {
	format Format
	opts   Options
}

// NewExporter returns an exporter for format.
func NewExporter(format Format, opts Options) (*Exporter, error) {
	if !slices.Contains(Formats, format) {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported export format %q (want dot, svg or png)", format)
	}
	return &Exporter{format: format, opts: opts}, nil
}

// Format returns the output format name, suffixed with any options that
// change the output.
func (x *Exporter) Format() string {
	if x.opts.Detailed || x.opts.Pinned {
		return string(x.format) + "+" + x.variant()
	}
	return string(x.format)
}

func (x *Exporter) variant() string {
	switch {
	case x.opts.Detailed && x.opts.Pinned:
		return "detailed,pinned"
	case x.opts.Detailed:
		return "detailed"
	default:
		return "pinned"
	}
}

// Export renders doc.
func (x *Exporter) Export(ctx context.Context, doc snapshot.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dot := ToDOT(doc, x.opts)
	switch x.format {
	case FormatSVG:
		return RenderSVG(dot)
	case FormatPNG:
		return RenderPNG(dot)
	default:
		return []byte(dot), nil
	}
}
