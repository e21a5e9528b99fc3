package chart

import (
	"fmt"
	"strings"
	"testing"
)

func TestLineProducesSVGInReceivedOrder(t *testing.T) {
	html, err := Line(400, 200, []float64{3, 9, 1}, []string{"2026-10-19", "2026-10-17", "2026-10-18"}, LineOpts{
		Title:    "Threats",
		ShowDots: true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<circle") != 3 {
		t.Fatalf("expected one dot per point")
	}
	first := strings.Index(output, "2026-10-19")
	second := strings.Index(output, "2026-10-17")
	third := strings.Index(output, "2026-10-18")
	if !(first < second && second < third) {
		t.Fatalf("labels were reordered: %s", output)
	}
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	if _, err := Line(400, 200, []float64{1, 2}, []string{"a"}, LineOpts{}); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
}

func TestDonutAssignsPaletteByIndex(t *testing.T) {
	html, err := Donut(360, 260, []string{"botnet", "phishing"}, []float64{3, 1}, DonutOpts{Title: "Threat Categories"})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	output := string(html)
	if strings.Count(output, "data-category=") != 2 {
		t.Fatalf("expected one segment per category: %s", output)
	}
	if !strings.Contains(output, `fill="#00d4ff" stroke="#0f0f23" stroke-width="3" data-category="botnet"`) {
		t.Fatalf("expected first palette colour on first category")
	}

	swapped, err := Donut(360, 260, []string{"phishing", "botnet"}, []float64{1, 3}, DonutOpts{Title: "Threat Categories"})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	if !strings.Contains(string(swapped), `fill="#00d4ff" stroke="#0f0f23" stroke-width="3" data-category="phishing"`) {
		t.Fatalf("expected colour to follow position, not category")
	}
}

func TestDonutSingleCategoryDrawsFullRing(t *testing.T) {
	html, err := Donut(360, 260, []string{"malware"}, []float64{5}, DonutOpts{})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	if !strings.Contains(string(html), `data-category="malware"`) {
		t.Fatalf("expected ring segment for single category")
	}
}

func TestColorsWrapAroundPalette(t *testing.T) {
	colors := Colors(12, nil)
	if colors[10] != Palette[0] || colors[11] != Palette[1] {
		t.Fatalf("expected palette to cycle, got %v", colors)
	}
}

func TestCanvasDestroysPreviousInstance(t *testing.T) {
	canvas := NewCanvas("categoryChart", 360, 260)
	first := NewChart("doughnut", "<svg>one</svg>")
	canvas.Draw(first)
	second := NewChart("doughnut", "<svg>two</svg>")
	canvas.Draw(second)

	if !first.Destroyed() {
		t.Fatalf("expected first instance destroyed on redraw")
	}
	if canvas.Live() != second {
		t.Fatalf("expected second instance live")
	}
	if canvas.HTML() != "<svg>two</svg>" {
		t.Fatalf("unexpected canvas html %q", canvas.HTML())
	}

	canvas.Clear("No threat categories found")
	if !second.Destroyed() || canvas.Live() != nil {
		t.Fatalf("expected no live instance after clear")
	}
	out := string(canvas.HTML())
	if !strings.Contains(out, "No threat categories found") || !strings.Contains(out, PlaceholderColor) {
		t.Fatalf("expected placeholder text, got %s", out)
	}
}

func TestDonutGrowsViewportForLongLegend(t *testing.T) {
	labels := make([]string, 50)
	values := make([]float64, 50)
	for i := range labels {
		labels[i] = fmt.Sprintf("category-%02d", i)
		values[i] = float64(i + 1)
	}

	html, err := Donut(360, 300, labels, values, DonutOpts{})
	if err != nil {
		t.Fatalf("donut renderer error: %v", err)
	}
	output := string(html)
	if got := strings.Count(output, "data-category="); got != 50 {
		t.Fatalf("expected 50 segments, got %d", got)
	}
	if strings.Contains(output, `viewBox="0 0 360 300"`) {
		t.Fatalf("expected viewBox taller than the requested 300px")
	}
	if !strings.Contains(output, ">category-49</text>") {
		t.Fatalf("expected last legend entry to be drawn")
	}
}
