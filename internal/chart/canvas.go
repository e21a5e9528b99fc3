package chart

import (
	"fmt"
	"html/template"
)

// Chart is one rendered chart instance. Once destroyed it renders nothing.
type Chart struct {
	kind      string
	markup    template.HTML
	destroyed bool
}

// NewChart wraps rendered markup in a chart instance.
func NewChart(kind string, markup template.HTML) *Chart {
	return &Chart{kind: kind, markup: markup}
}

// Kind returns the chart type, e.g. "doughnut" or "line".
func (c *Chart) Kind() string { return c.kind }

// Destroy releases the instance.
func (c *Chart) Destroy() {
	if c == nil {
		return
	}
	c.destroyed = true
	c.markup = ""
}

// Destroyed reports whether Destroy has been called.
func (c *Chart) Destroyed() bool { return c == nil || c.destroyed }

// HTML returns the chart markup.
func (c *Chart) HTML() template.HTML {
	if c.Destroyed() {
		return ""
	}
	return c.markup
}

// Canvas is a chart slot bound to a page element. It holds at most one live
// chart; drawing or clearing always destroys the previous instance first.
// A Canvas is not safe for concurrent use; its owner serialises access.
type Canvas struct {
	ID          string
	Width       int
	Height      int
	chart       *Chart
	placeholder string
}

// NewCanvas binds a canvas to the element id.
func NewCanvas(id string, width, height int) *Canvas {
	return &Canvas{ID: id, Width: width, Height: height}
}

// Draw destroys the current instance and installs ch.
func (c *Canvas) Draw(ch *Chart) {
	c.release()
	c.chart = ch
	c.placeholder = ""
}

// Clear destroys the current instance and paints text in its place.
func (c *Canvas) Clear(text string) {
	c.release()
	c.placeholder = text
}

// Live returns the current chart instance, or nil.
func (c *Canvas) Live() *Chart { return c.chart }

// Placeholder returns the painted empty-state text, if any.
func (c *Canvas) Placeholder() string { return c.placeholder }

// HTML renders whatever currently occupies the canvas.
func (c *Canvas) HTML() template.HTML {
	if c.chart != nil {
		return c.chart.HTML()
	}
	if c.placeholder != "" {
		return placeholderSVG(c.ID, c.Width, c.Height, c.placeholder)
	}
	return ""
}

func (c *Canvas) release() {
	if c.chart != nil {
		c.chart.Destroy()
		c.chart = nil
	}
}

func placeholderSVG(id string, width, height int, text string) template.HTML {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return template.HTML(fmt.Sprintf(
		"<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-label=\"%s\" data-canvas=\"%s\"><text x=\"%d\" y=\"%d\" fill=\"%s\" font-family=\"sans-serif\" font-size=\"14\" text-anchor=\"middle\">%s</text></svg>",
		width, height, template.HTMLEscapeString(text), template.HTMLEscapeString(id), width/2, height/2, PlaceholderColor, template.HTMLEscapeString(text)))
}
