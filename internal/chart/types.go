package chart

// LineOpts customises the timeline renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
}

// DonutOpts customises the category renderer.
type DonutOpts struct {
	Title       string
	Description string
	BorderColor string
	LegendColor string
	Palette     []string
	// Inner radius as a fraction of the outer radius.
	Hole float64
}

// Defaults shared by the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 5

	PlaceholderColor = "#94a3b8"
)

// Palette is cycled by index when assigning category colours.
var Palette = []string{
	"#00d4ff", "#7c3aed", "#ef4444", "#f59e0b", "#10b981",
	"#ec4899", "#8b5cf6", "#06b6d4", "#f97316", "#84cc16",
}

// Colors returns count colours taken from palette in order, wrapping around.
func Colors(count int, palette []string) []string {
	if len(palette) == 0 {
		palette = Palette
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, palette[i%len(palette)])
	}
	return result
}
