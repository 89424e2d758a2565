/*
hmi.go Terminal viewer of a calculation: a result table per cable coloured by
compliance band, and the radial tree as seen from the source.
*/

package hmi

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/topology"
	"github.com/rivo/tview"
)

// HMI builds one page of the viewer.
type HMI func(*tview.Pages) (title string, content tview.Primitive)

var header = []string{"Cable", "Type", "Distal", "Length m", "I (A)", "ΔU (V)", "ΔU %", "Losses kW", "Band"}

// ComplianceColor maps a band to its display colour.
func ComplianceColor(c network.Compliance) tcell.Color {
	switch c {
	case network.Compliant:
		return tcell.ColorGreen
	case network.Warning:
		return tcell.ColorYellow
	case network.Critical:
		return tcell.ColorRed
	}
	return tcell.ColorWhite
}

func format(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// ResultTable lists every cable result in input order.
func ResultTable(res network.CalculationResult) *tview.Table {
	table := tview.NewTable().
		SetFixed(1, 1).
		SetSelectable(true, false).
		SetSeparator(' ')

	for column, title := range header {
		table.SetCell(0, column, tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	for i, c := range res.Cables {
		distal := c.DistalNodeID
		if c.Approximate {
			distal += "*"
		}
		row := []string{
			c.ID,
			c.TypeID,
			distal,
			format(c.LengthM, 0),
			format(c.CurrentA, 1),
			format(c.VoltageDropV, 2),
			format(c.VoltageDropPercent, 2),
			format(c.LossesKW, 3),
			string(c.Compliance),
		}
		for column, text := range row {
			color := tcell.ColorWhite
			align := tview.AlignRight
			switch {
			case column == 0:
				color = tcell.ColorDarkCyan
				align = tview.AlignLeft
			case column < 3:
				align = tview.AlignLeft
			case column >= 6:
				color = ComplianceColor(c.Compliance)
			}
			table.SetCell(i+1, column, tview.NewTableCell(text).
				SetTextColor(color).
				SetAlign(align))
		}
	}

	table.SetBorder(true).SetTitle(" Cables ")
	return table
}

// Summary describes the network-wide figures.
func Summary(name string, res network.CalculationResult) *tview.TextView {
	view := tview.NewTextView().SetDynamicColors(true)
	fmt.Fprintf(view, "[white]%s  scenario [yellow]%s[white]\n", name, res.Scenario.String())
	fmt.Fprintf(view, "loads %s kVA  productions %s kVA  losses %s kW\n",
		format(res.TotalLoadsKVA, 1), format(res.TotalProductionsKVA, 1), format(res.GlobalLossesKW, 3))
	fmt.Fprintf(view, "max ΔU [%s]%s %%  %s[white]",
		colorTag(res.Compliance), format(res.MaxVoltageDropPercent, 2), res.Compliance)
	return view
}

func colorTag(c network.Compliance) string {
	switch c {
	case network.Compliant:
		return "green"
	case network.Warning:
		return "yellow"
	case network.Critical:
		return "red"
	}
	return "white"
}

// TopologyTree renders the radial tree from the source node. Nodes carry their
// own net power for the scenario.
func TopologyTree(tree topology.Tree, nodes []network.Node) *tview.TreeView {
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if _, seen := names[n.ID]; seen {
			continue
		}
		label := n.ID
		if n.Name != "" {
			label = n.Name + " (" + n.ID + ")"
		}
		if d, p := n.DemandKVA(), n.ProductionKVA(); d != 0 || p != 0 {
			label += fmt.Sprintf("  %s / -%s kVA", format(d, 1), format(p, 1))
		}
		names[n.ID] = label
	}

	root := tview.NewTreeNode(names[tree.Root()]).
		SetColor(tcell.ColorBlue).
		SetReference(tree.Root())

	// iterative so that deep feeders do not grow the stack
	stack := []*tview.TreeNode{root}
	for len(stack) > 0 {
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range tree.Children(parent.GetReference().(string)) {
			node := tview.NewTreeNode(names[child]).SetReference(child)
			parent.AddChild(node)
			stack = append(stack, node)
		}
	}

	view := tview.NewTreeView().
		SetRoot(root).
		SetCurrentNode(root)
	view.SetBorder(true).SetTitle(" Topology ")
	return view
}

// Results is the page of the result table and its summary.
func Results(name string, res network.CalculationResult) HMI {
	return func(pages *tview.Pages) (string, tview.Primitive) {
		flex := tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(Summary(name, res), 3, 0, false).
			AddItem(ResultTable(res), 0, 1, true)
		return "Results", flex
	}
}

// Topology is the page of the radial tree.
func Topology(tree topology.Tree, nodes []network.Node) HMI {
	return func(pages *tview.Pages) (string, tview.Primitive) {
		return "Topology", TopologyTree(tree, nodes)
	}
}

// Viewer is the terminal application.
type Viewer struct {
	app    *tview.Application
	pages  *tview.Pages
	titles []string
}

// NewViewer assembles the given pages; the first one is shown. Tab cycles through
// pages and q quits.
func NewViewer(hmis ...HMI) *Viewer {
	v := &Viewer{app: tview.NewApplication(), pages: tview.NewPages()}
	for i, hmi := range hmis {
		title, primitive := hmi(v.pages)
		v.pages.AddPage(title, primitive, true, i == 0)
		v.titles = append(v.titles, title)
	}

	current := 0
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyTab && len(v.titles) > 0:
			current = (current + 1) % len(v.titles)
			v.pages.SwitchToPage(v.titles[current])
			return nil
		case event.Rune() == 'q':
			v.app.Stop()
			return nil
		}
		return event
	})
	return v
}

// Titles lists the page titles in display order.
func (v *Viewer) Titles() []string {
	return v.titles
}

// Run blocks until the viewer is closed.
func (v *Viewer) Run() error {
	return v.app.SetRoot(v.pages, true).Run()
}
