package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

const (
	legendPerRow = 3
	legendRowGap = 20.0
	// minRingHeight is the smallest plot area kept above the legend. The
	// viewBox grows past the requested height when the legend needs more.
	minRingHeight = 160.0
)

// Donut renders one proportional segment per label with a legend underneath.
// Colours are assigned by position, not by label.
func Donut(width, height int, labels []string, values []float64, opts DonutOpts) (template.HTML, error) {
	if len(labels) == 0 {
		return "", fmt.Errorf("chart: labels required")
	}
	if len(labels) != len(values) {
		return "", fmt.Errorf("chart: values length must match labels")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	border := fallback(opts.BorderColor, "#0f0f23")
	legendColor := fallback(opts.LegendColor, "#f8fafc")
	hole := opts.Hole
	if hole <= 0 || hole >= 1 {
		hole = 0.5
	}
	colors := Colors(len(labels), opts.Palette)

	legendRows := (len(labels) + legendPerRow - 1) / legendPerRow
	legendHeight := float64(legendRows) * legendRowGap
	plotHeight := float64(height) - legendHeight - DefaultPadding
	if plotHeight < minRingHeight {
		plotHeight = minRingHeight
		height = int(math.Ceil(plotHeight + legendHeight + DefaultPadding))
	}
	outer := math.Min(float64(width), plotHeight)/2 - 4
	if outer <= 0 {
		return "", fmt.Errorf("chart: viewport too small")
	}
	inner := outer * hole
	cx := float64(width) / 2
	cy := DefaultPadding/2 + plotHeight/2

	var total float64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}

	titleID := makeID(opts.Title, "donut-title")
	descID := makeID(opts.Title, "donut-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Threat Categories"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of threats per category"))))

	if total <= 0 {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\" aria-hidden=\"true\"></circle>", cx, cy, (outer+inner)/2, PlaceholderColor, outer-inner))
	}

	angle := -math.Pi / 2
	for i, label := range labels {
		value := values[i]
		if total <= 0 || value <= 0 {
			continue
		}
		sweep := value / total * 2 * math.Pi
		tooltip := template.HTMLEscapeString(fmt.Sprintf("%s: %s", label, formatTick(value)))
		if sweep >= 2*math.Pi-1e-9 {
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\" data-category=\"%s\"><title>%s</title></circle>", cx, cy, (outer+inner)/2, colors[i], outer-inner, template.HTMLEscapeString(label), tooltip))
			angle += sweep
			continue
		}
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"3\" data-category=\"%s\"><title>%s</title></path>", segmentPath(cx, cy, outer, inner, angle, angle+sweep), colors[i], border, template.HTMLEscapeString(label), tooltip))
		angle += sweep
	}

	legendTop := DefaultPadding/2 + plotHeight + 14
	slot := float64(width) / legendPerRow
	for i, label := range labels {
		row := i / legendPerRow
		col := i % legendPerRow
		x := float64(col)*slot + 12
		y := legendTop + float64(row)*legendRowGap
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"12\" height=\"12\" fill=\"%s\"></rect>", x, y-10, colors[i]))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"12\" text-anchor=\"start\">%s</text>", x+18, y, legendColor, template.HTMLEscapeString(label)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func segmentPath(cx, cy, outer, inner, start, end float64) string {
	large := 0
	if end-start > math.Pi {
		large = 1
	}
	ox0, oy0 := polar(cx, cy, outer, start)
	ox1, oy1 := polar(cx, cy, outer, end)
	ix1, iy1 := polar(cx, cy, inner, end)
	ix0, iy0 := polar(cx, cy, inner, start)
	return fmt.Sprintf("M%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 0 %.2f %.2f Z",
		ox0, oy0, outer, outer, large, ox1, oy1,
		ix1, iy1, inner, inner, large, ix0, iy0)
}

func polar(cx, cy, r, angle float64) (float64, float64) {
	return cx + r*math.Cos(angle), cy + r*math.Sin(angle)
}
