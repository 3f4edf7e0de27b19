package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Faultbox/bimview/internal/engine/classify"
	"github.com/Faultbox/bimview/internal/viewer"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderRecord(w io.Writer, rec viewer.ModelRecord, visible int) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Name", rec.Name})
	t.AppendRow(table.Row{"ID", rec.ID})
	t.AppendRow(table.Row{"Status", rec.Status})
	t.AppendRow(table.Row{"Size", humanize.Bytes(uint64(rec.ByteSize))})
	t.AppendRow(table.Row{"Load time", rec.Duration})

	if st := rec.Statistics; st != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Meshes", humanize.Comma(int64(st.MeshCount))})
		t.AppendRow(table.Row{"Fragments", humanize.Comma(int64(st.FragmentCount))})
		t.AppendRow(table.Row{"Vertices", humanize.Comma(int64(st.VertexCount))})
		t.AppendRow(table.Row{"Faces", humanize.Comma(int64(st.FaceCount))})
		t.AppendRow(table.Row{"Memory", humanize.IBytes(uint64(st.MemoryUsageMB * 1024 * 1024))})
		if b := st.BoundingBox; b != nil {
			size := b.Size()
			t.AppendRow(table.Row{"Bounds", fmt.Sprintf("%.2f x %.2f x %.2f", size.X, size.Y, size.Z)})
		}
	}
	t.AppendRow(table.Row{"In view", humanize.Comma(int64(visible))})
	t.Render()
}

func renderClasses(w io.Writer, classes []classify.ClassInfo) {
	if len(classes) == 0 {
		_, _ = fmt.Fprintln(w, "(0 classes)")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Class", "Count", "Visible", "Color"})
	for _, c := range classes {
		vis := "yes"
		if !c.Visible {
			vis = "no"
		}
		t.AppendRow(table.Row{c.Name, c.Count, vis, c.Color})
	}
	t.Render()
}

func renderFilterStats(w io.Writer, fs classify.FilterStats) {
	_, _ = fmt.Fprintf(w, "%d classes (%d visible, %d hidden), %d of %d elements visible\n",
		fs.TotalClasses, fs.VisibleClasses, fs.HiddenClasses, fs.VisibleElements, fs.TotalElements)
}

func renderPick(w io.Writer, hit viewer.PickResult) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Element", hit.ElementID})
	t.AppendRow(table.Row{"Class", hit.Class})
	if hit.Name != "" {
		t.AppendRow(table.Row{"Name", hit.Name})
	}
	if hit.GlobalID != "" {
		t.AppendRow(table.Row{"Global ID", hit.GlobalID})
	}
	t.AppendRow(table.Row{"Distance", fmt.Sprintf("%.3f", hit.Distance)})
	t.AppendRow(table.Row{"Point", fmt.Sprintf("%.2f, %.2f, %.2f", hit.Point.X, hit.Point.Y, hit.Point.Z)})
	t.Render()
}

// renderMetrics prints one value per metric family: counters and gauges
// summed over labels, histograms as sample counts.
func renderMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	t := newTable(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, mf := range families {
		var v float64
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				v += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v += float64(m.GetHistogram().GetSampleCount())
			}
		}
		t.AppendRow(table.Row{mf.GetName(), v})
	}
	t.Render()
	return nil
}
