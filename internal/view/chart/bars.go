// Package chart draws small inline SVG charts for console pages.
package chart

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Group is one labelled pair of bars.
type Group struct {
	Label     string
	Primary   float64
	Secondary float64
}

// Options customises the bar chart.
type Options struct {
	Title          string
	PrimaryLabel   string
	SecondaryLabel string
	Width          int
	Height         int
	Ticks          int
}

const (
	defaultWidth  = 640
	defaultHeight = 220
	defaultTicks  = 4
	padding       = 32.0
	axisColor     = "#475569"
	gridColor     = "#e2e8f0"
	primaryColor  = "#2563eb"
	secondColor   = "#16a34a"
)

// ErrNoGroups is returned when there is nothing to draw.
var ErrNoGroups = errors.New("chart: no groups")

// Bars renders grouped bars, primary next to secondary, for each group.
// Values are clamped at zero.
func Bars(groups []Group, opts Options) (template.HTML, error) {
	if len(groups) == 0 {
		return "", ErrNoGroups
	}
	width, height, ticks := opts.Width, opts.Height, opts.Ticks
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if ticks <= 0 {
		ticks = defaultTicks
	}
	plotW := float64(width) - 2*padding
	plotH := float64(height) - 2*padding
	if plotW <= 0 || plotH <= 0 {
		return "", fmt.Errorf("chart: viewport %dx%d too small", width, height)
	}

	top := 0.0
	for _, g := range groups {
		top = math.Max(top, math.Max(g.Primary, g.Secondary))
	}
	if top == 0 {
		top = 1
	}
	scale := plotH / top
	baseline := padding + plotH
	slot := plotW / float64(len(groups))
	barW := slot / 3

	title := template.HTMLEscapeString(fallback(opts.Title, "Bar chart"))
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-label="%s">`, width, height, title)
	fmt.Fprintf(&b, `<title>%s</title>`, title)

	for i := 0; i <= ticks; i++ {
		ratio := float64(i) / float64(ticks)
		y := baseline - ratio*plotH
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="0.5"></line>`, padding, y, padding+plotW, y, gridColor)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" font-size="10" text-anchor="end">%s</text>`, padding-4, y+3, axisColor, compact(top*ratio))
	}
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"></line>`, padding, baseline, padding+plotW, baseline, axisColor)

	for i, g := range groups {
		x := padding + float64(i)*slot
		label := template.HTMLEscapeString(g.Label)
		writeBar(&b, x+barW*0.4, barW, g.Primary, scale, baseline, primaryColor, label)
		writeBar(&b, x+barW*1.5, barW, g.Secondary, scale, baseline, secondColor, label)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x+slot/2, baseline+14, axisColor, label)
	}

	legend := []struct{ color, label string }{
		{primaryColor, fallback(opts.PrimaryLabel, "Primary")},
		{secondColor, fallback(opts.SecondaryLabel, "Secondary")},
	}
	for i, item := range legend {
		x := padding + float64(i)*110
		fmt.Fprintf(&b, `<rect x="%.1f" y="8" width="10" height="10" fill="%s"></rect>`, x, item.color)
		fmt.Fprintf(&b, `<text x="%.1f" y="17" fill="%s" font-size="10">%s</text>`, x+14, axisColor, template.HTMLEscapeString(item.label))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func writeBar(b *strings.Builder, x, w, value, scale, baseline float64, color, label string) {
	h := math.Max(value, 0) * scale
	fmt.Fprintf(b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s: %s</title></rect>`, x, baseline-h, w, h, color, label, compact(value))
}

// compact prints 1500 as 1.5k and 2000000 as 2M.
func compact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return trim(v/1e6) + "M"
	case abs >= 1e3:
		return trim(v/1e3) + "k"
	default:
		return trim(v)
	}
}

func trim(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
