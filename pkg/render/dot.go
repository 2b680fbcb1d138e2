package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/meshview/meshview/pkg/mesh"
	"github.com/meshview/meshview/pkg/mesh/reconcile"
	"github.com/meshview/meshview/pkg/mesh/style"
)

// Options configures DOT export.
type Options struct {
	// Detailed includes role, node number, and last-seen metadata in node
	// labels. When false, only the display name is shown.
	Detailed bool

	// HideDimmed drops entities the style engine dims instead of drawing
	// them grey. Useful for focused exports of a selection.
	HideDimmed bool
}

// ToDOT converts the buffer to Graphviz DOT, taking every visual attribute
// from the style engine so exports match the interactive view.
func ToDOT(b *reconcile.Buffer, eng *style.Engine, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph mesh {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fontcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [fontsize=9];\n")
	buf.WriteString("\n")

	for _, n := range b.Nodes() {
		color := eng.NodeColor(n.ID)
		if opts.HideDimmed && color == style.ColorDim {
			continue
		}
		attrs := nodeAttrs(n, color, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range b.Links() {
		k := l.Key()
		color := eng.LinkColor(k)
		if opts.HideDimmed && color == style.ColorDim {
			continue
		}
		attrs := linkAttrs(eng, k, color)
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.From, l.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *mesh.NodeRecord, color string, detailed bool) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", nodeLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", color),
		fmt.Sprintf("color=%q", color),
	}
	switch n.Kind {
	case mesh.KindRouteHidden:
		// Routing intermediates are inferred, not named stations.
		attrs = append(attrs, "shape=point", "width=0.12")
	case mesh.KindMqttBridge, mesh.KindInterfaceBridge:
		attrs = append(attrs, "shape=box")
	}
	return attrs
}

func nodeLabel(n *mesh.NodeRecord, detailed bool) string {
	if n.Kind == mesh.KindRouteHidden {
		return ""
	}
	name := n.DisplayName()
	if !detailed {
		return name
	}

	parts := []string{name}
	if n.Role != "" {
		parts = append(parts, n.Role)
	}
	if n.Number != 0 {
		parts = append(parts, fmt.Sprintf("#%d", n.Number))
	}
	if !n.LastSeen.IsZero() {
		parts = append(parts, n.LastSeen.UTC().Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, "\n")
}

func linkAttrs(eng *style.Engine, k mesh.LinkKey, color string) []string {
	attrs := []string{
		fmt.Sprintf("color=%q", color),
		fmt.Sprintf("penwidth=%.2f", eng.LinkWidth(k)),
	}
	if label := eng.LinkLabel(k); label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", label), fmt.Sprintf("fontcolor=%q", color))
	}
	if s := dotStyle(eng.LinkDash(k)); s != "" {
		attrs = append(attrs, fmt.Sprintf("style=%q", s))
	}
	return attrs
}

// dotStyle maps the SVG dash patterns onto Graphviz edge styles. DOT has
// no free-form dasharray, so the three patterns collapse to dashed and
// dotted.
func dotStyle(dash string) string {
	switch dash {
	case style.DashAssumed, style.DashMultiHop:
		return "dashed"
	case style.DashBridge:
		return "dotted"
	default:
		return ""
	}
}
