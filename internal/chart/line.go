package chart

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Line renders an SVG line chart. Points are placed in the order given.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("chart: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("chart: labels length must match series")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	strokeColor := fallback(opts.StrokeColor, "#00d4ff")
	fillColor := fallback(opts.FillColor, "rgba(0, 212, 255, 0.1)")
	axisColor := fallback(opts.AxisColor, "#cbd5e1")
	gridColor := fallback(opts.GridColor, "#1e293b")

	chartWidth := float64(width) - 2*padding
	chartHeight := float64(height) - 2*padding
	if chartWidth <= 0 || chartHeight <= 0 {
		return "", fmt.Errorf("chart: viewport too small")
	}

	// y axis begins at zero
	minVal, maxVal := bounds(series)
	if minVal > 0 {
		minVal = 0
	}
	if maxVal < 0 {
		maxVal = 0
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	scale := chartHeight / (maxVal - minVal)

	pointX := func(i int) float64 {
		if len(series) == 1 {
			return padding + chartWidth/2
		}
		return padding + float64(i)*chartWidth/float64(len(series)-1)
	}
	pointY := func(v float64) float64 {
		return padding + chartHeight - (v-minVal)*scale
	}

	var path strings.Builder
	for i, value := range series {
		if i == 0 {
			path.WriteString(fmt.Sprintf("M%.2f %.2f", pointX(i), pointY(value)))
			continue
		}
		path.WriteString(fmt.Sprintf(" L%.2f %.2f", pointX(i), pointY(value)))
	}

	titleID := makeID(opts.Title, "line-title")
	descID := makeID(opts.Title, "line-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Threats"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Threats over time"))))

	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := padding + chartHeight - ratio*chartHeight
		value := minVal + (maxVal-minVal)*ratio
		b.WriteString(fmt.Sprintf("<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" aria-hidden=\"true\"></line>", padding, y, padding+chartWidth, y, gridColor))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"end\">%s</text>", padding-6, y+4, axisColor, template.HTMLEscapeString(formatTick(value))))
	}

	if fillColor != "" {
		base := padding + chartHeight
		area := fmt.Sprintf("%s L%.2f %.2f L%.2f %.2f Z", path.String(), pointX(len(series)-1), base, pointX(0), base)
		b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" stroke=\"none\" aria-hidden=\"true\"></path>", area, fillColor))
	}
	b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"3\" stroke-linejoin=\"round\" stroke-linecap=\"round\"></path>", path.String(), strokeColor))

	if opts.ShowDots {
		for i, value := range series {
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"4\" fill=\"%s\" stroke=\"#0f0f23\" stroke-width=\"2\" data-label=\"%s\"></circle>", pointX(i), pointY(value), strokeColor, template.HTMLEscapeString(labels[i])))
		}
	}

	for i, label := range labels {
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"middle\">%s</text>", pointX(i), padding+chartHeight+16, axisColor, template.HTMLEscapeString(label)))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	minVal := series[0]
	maxVal := series[0]
	for _, v := range series[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	default:
		if almostEqual(v, math.Round(v)) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.1f", v)
	}
}
