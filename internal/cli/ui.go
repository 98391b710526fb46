package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/matzehuels/mindweave/pkg/engine"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings and the root of an outline.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleTag     = lipgloss.NewStyle().Foreground(colorBlue)
	styleDone    = lipgloss.NewStyle().Foreground(colorGreen)
	styleCached  = lipgloss.NewStyle().Foreground(colorGreen)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(stdout, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed detail line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(stdout, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints map statistics on a single line.
func printStats(nodes, branches int, cached bool) {
	parts := []string{fmt.Sprintf("%d nodes", nodes), fmt.Sprintf("%d branches", branches)}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	}
	fmt.Fprintln(stdout, "  "+StyleDim.Render(strings.Join(parts, " · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Outline
// =============================================================================

// renderOutline draws the hierarchy below id as a tree.
func renderOutline(eng *engine.Engine, id string, showIDs bool) string {
	return outlineTree(eng, id, showIDs, true).String()
}

func outlineTree(eng *engine.Engine, id string, showIDs, root bool) *tree.Tree {
	n, _ := eng.Node(id)
	t := tree.Root(nodeLabel(n, showIDs, root)).EnumeratorStyle(StyleDim)
	for _, cid := range eng.Children(id) {
		if len(eng.Children(cid)) == 0 {
			c, _ := eng.Node(cid)
			t.Child(nodeLabel(c, showIDs, false))
			continue
		}
		t.Child(outlineTree(eng, cid, showIDs, false))
	}
	return t
}

// nodeLabel renders a node's text followed by its tags and task progress.
func nodeLabel(n mindmap.Node, showIDs, root bool) string {
	var b strings.Builder
	if root {
		b.WriteString(StyleTitle.Render(n.Text))
	} else {
		b.WriteString(StyleValue.Render(n.Text))
	}
	for _, tag := range n.Tags {
		b.WriteString(" " + styleTag.Render("#"+tag))
	}
	if len(n.Tasks) > 0 {
		done := 0
		for _, t := range n.Tasks {
			if t.Done {
				done++
			}
		}
		style := StyleDim
		if done == len(n.Tasks) {
			style = styleDone
		}
		b.WriteString(" " + style.Render(fmt.Sprintf("[%d/%d]", done, len(n.Tasks))))
	}
	if showIDs {
		b.WriteString(" " + StyleDim.Render("("+n.ID+")"))
	}
	return b.String()
}
