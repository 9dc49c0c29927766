package report

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"golang.org/x/term"

	"github.com/srodi/appwatch/pkg/aggregate"
	"github.com/srodi/appwatch/pkg/types"
)

const (
	// DefaultWidth is used when the output is not a terminal.
	DefaultWidth = 100
	chartHeight  = 12
	barWidth     = 5
	barGap       = 1
	minWidth     = 40
)

// terminalWidth allows tests to pretend the writer is a TTY.
var terminalWidth = defaultTerminalWidth

func defaultTerminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// ChartReporter draws bar charts of usage seconds, RAM and disk per
// application as plain text. Bars are numbered; a legend maps each number to
// its application.
type ChartReporter struct {
	out   io.Writer
	width int
}

// NewChartReporter writes charts to w, defaulting to os.Stdout. A width of 0
// follows the terminal.
func NewChartReporter(w io.Writer, width int) *ChartReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ChartReporter{out: w, width: width}
}

// Report renders the table.
func (c *ChartReporter) Report(table types.UsageTable) error {
	_, err := io.WriteString(c.out, RenderChart(table, c.resolveWidth()))
	return err
}

func (c *ChartReporter) resolveWidth() int {
	if c.width > 0 {
		return c.width
	}
	if w, ok := terminalWidth(c.out); ok {
		return w
	}
	return DefaultWidth
}

// RenderChart returns the three charts followed by the legend.
func RenderChart(table types.UsageTable, width int) string {
	if width < minWidth {
		width = minWidth
	}
	rows := BuildRows(table)
	sum := aggregate.Totals(table)

	var b strings.Builder
	fmt.Fprintf(&b, "Application usage: %d apps, %d seconds tracked, %s RAM, %s disk\n",
		len(rows), table.TotalSystemUsage, formatMB(float64(sum.RAMUsage)/bytesPerMB), formatMB(float64(sum.DiskUsage)/bytesPerMB))
	if len(rows) == 0 {
		b.WriteString("no usage recorded yet\n")
		return b.String()
	}

	labels := make([]string, len(rows))
	seconds := make([]float64, len(rows))
	ram := make([]float64, len(rows))
	disk := make([]float64, len(rows))
	for i, row := range rows {
		labels[i] = fmt.Sprintf("%d", i+1)
		seconds[i] = float64(row.TimeSpent)
		ram[i] = row.RAMMB
		disk[i] = row.DiskMB
	}

	charts := []*widgets.BarChart{
		newBarChart("Usage (seconds)", labels, seconds, ui.ColorGreen),
		newBarChart("RAM (MB)", labels, ram, ui.ColorYellow),
		newBarChart("Disk I/O (MB)", labels, disk, ui.ColorCyan),
	}
	buf := ui.NewBuffer(image.Rect(0, 0, width, chartHeight*len(charts)))
	for i, chart := range charts {
		chart.SetRect(0, i*chartHeight, width, (i+1)*chartHeight)
		chart.Draw(buf)
	}
	b.WriteString(bufferText(buf))

	if shown := (width - 2) / (barWidth + barGap); shown < len(rows) {
		fmt.Fprintf(&b, "(%d of %d bars shown)\n", shown, len(rows))
	}
	for i, row := range rows {
		fmt.Fprintf(&b, "%3d  %-32s %8ds %10s RAM %10s disk\n",
			i+1, row.Name, row.TimeSpent, formatMB(row.RAMMB), formatMB(row.DiskMB))
	}
	return b.String()
}

func newBarChart(title string, labels []string, data []float64, color ui.Color) *widgets.BarChart {
	bc := widgets.NewBarChart()
	bc.Title = title
	bc.Labels = labels
	bc.Data = data
	bc.BarWidth = barWidth
	bc.BarGap = barGap
	bc.BarColors = []ui.Color{color}
	bc.LabelStyles = []ui.Style{ui.NewStyle(ui.ColorWhite)}
	bc.NumStyles = []ui.Style{ui.NewStyle(ui.ColorBlack)}
	bc.NumFormatter = func(v float64) string { return fmt.Sprintf("%.0f", v) }
	// All-zero data would divide by zero when scaling bars.
	bc.MaxVal = maxOf(data)
	if bc.MaxVal == 0 {
		bc.MaxVal = 1
	}
	return bc
}

// bufferText flattens drawn cells into lines. Bars are filled with blank
// cells on a coloured background, so those become block runes.
func bufferText(buf *ui.Buffer) string {
	var b strings.Builder
	for y := buf.Min.Y; y < buf.Max.Y; y++ {
		line := make([]rune, 0, buf.Dx())
		for x := buf.Min.X; x < buf.Max.X; x++ {
			cell := buf.GetCell(image.Pt(x, y))
			switch {
			case cell.Rune == 0:
				line = append(line, ' ')
			case cell.Rune == ' ' && cell.Style.Bg != ui.ColorClear:
				line = append(line, '█')
			default:
				line = append(line, cell.Rune)
			}
		}
		b.WriteString(strings.TrimRight(string(line), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

func maxOf(values []float64) float64 {
	var m float64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func formatMB(mb float64) string {
	if mb >= 1024 {
		return fmt.Sprintf("%.1f GB", mb/1024)
	}
	return fmt.Sprintf("%.1f MB", mb)
}
