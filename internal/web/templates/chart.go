package templates

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sweeper/internal/core"
)

const (
	chartWidth   = 720.0
	chartHeight  = 260.0
	chartPadding = 32.0
	legendHeight = 20.0

	// MaxChartRows caps the rows drawn; larger tables show their head.
	MaxChartRows = 100
)

var chartColors = []string{"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948", "#b07aa1", "#ff9da7"}

// ChartSVG draws a grouped bar chart: one group per row, one bar per series.
// Missing values leave a gap.
func ChartSVG(spec *core.ChartSpec) templ.Component {
	return component(func(h *htmlWriter) {
		rows := min(len(spec.Categories), MaxChartRows)
		lo, hi := spec.Range()
		if hi == lo {
			hi = lo + 1
		}

		plotW := chartWidth - 2*chartPadding
		plotH := chartHeight - 2*chartPadding - legendHeight
		top := chartPadding + legendHeight
		y := func(v float64) float64 {
			return top + (hi-v)/(hi-lo)*plotH
		}

		h.rawf(`<figure class="chart"><svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" role="img">`,
			num(chartWidth), num(chartHeight))

		for i, s := range spec.Series {
			x := chartPadding + float64(i)*120
			h.rawf(`<rect x="%s" y="6" width="10" height="10" fill="%s"/>`, num(x), color(i))
			h.rawf(`<text x="%s" y="15" font-size="11">`, num(x+14))
			h.text(s.Name)
			h.raw(`</text>`)
		}

		h.rawf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#888"/>`,
			num(chartPadding), num(y(0)), num(chartPadding+plotW), num(y(0)))
		h.rawf(`<text x="2" y="%s" font-size="10">%s</text>`, num(top+4), num(hi))
		h.rawf(`<text x="2" y="%s" font-size="10">%s</text>`, num(top+plotH), num(lo))

		if rows > 0 && len(spec.Series) > 0 {
			groupW := plotW / float64(rows)
			barW := groupW / float64(len(spec.Series)+1)
			for r := 0; r < rows; r++ {
				for i, s := range spec.Series {
					v := s.Values[r]
					if v == nil {
						continue
					}
					y0, y1 := y(max(*v, 0)), y(min(*v, 0))
					x := chartPadding + float64(r)*groupW + float64(i)*barW + barW/2
					h.rawf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"><title>`,
						num(x), num(y0), num(barW), num(y1-y0), color(i))
					h.text(s.Name + " [" + strconv.Itoa(spec.Categories[r]) + "]: " + num(*v))
					h.raw(`</title></rect>`)
				}
			}
		}

		h.raw(`</svg>`)
		if len(spec.Categories) > rows {
			h.rawf(`<figcaption>First %d of %d rows.</figcaption>`, rows, len(spec.Categories))
		}
		h.raw(`</figure>`)
	})
}

func color(i int) string {
	return chartColors[i%len(chartColors)]
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
