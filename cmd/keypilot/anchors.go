package main

import (
	"fmt"
	"io"

	"github.com/keypilot/keypilot/tour"
)

// The terminal has no live DOM to anchor tooltips to, so tours run
// against a fixed virtual rendering of each screen. The rectangles
// mirror the dashboard layout at its reference size.
var (
	virtualViewport = tour.Rect{X: 0, Y: 0, W: 1280, H: 800}

	tooltipSize = tour.Rect{W: 320, H: 140}
)

var dashboardAnchors = map[string]tour.Rect{
	"dashboard-header": {X: 0, Y: 0, W: 1280, H: 64},
	"stats-cards":      {X: 40, Y: 96, W: 1200, H: 120},
	"key-table":        {X: 40, Y: 248, W: 880, H: 480},
	"add-key-button":   {X: 1080, Y: 96, W: 160, H: 40},
	"playground-tab":   {X: 480, Y: 24, W: 120, H: 32},
}

var addKeyAnchors = map[string]tour.Rect{
	"key-name-field":   {X: 400, Y: 160, W: 480, H: 48},
	"template-select":  {X: 400, Y: 240, W: 480, H: 48},
	"rate-limit-field": {X: 400, Y: 320, W: 480, H: 48},
	"submit-button":    {X: 400, Y: 420, W: 160, H: 44},
}

func dashboardLayout() tour.AnchorResolver {
	return mapResolver(dashboardAnchors)
}

func addKeyLayout() tour.AnchorResolver {
	return mapResolver(addKeyAnchors)
}

func mapResolver(anchors map[string]tour.Rect) tour.AnchorResolver {
	return tour.ResolverFunc(func(target string) (tour.Rect, bool) {
		r, ok := anchors[target]
		return r, ok
	})
}

// renderStep prints the current step as it would appear on screen,
// including where the tooltip lands in the virtual viewport.
func renderStep(w io.Writer, e *tour.Engine) {
	step, ok := e.CurrentStep()
	if !ok {
		return
	}

	fmt.Fprintf(w, "\n[%d/%d] %s\n", e.StepIndex()+1, e.TotalSteps(), step.Title)
	fmt.Fprintf(w, "  %s\n", step.Description)

	var pos tour.Point
	if anchor, ok := e.CurrentAnchor(); ok {
		pos = tour.Position(anchor, tooltipSize, virtualViewport, step.Placement)
	} else {
		pos = tour.DefaultPosition(tooltipSize, virtualViewport)
	}
	fmt.Fprintf(w, "  tooltip at (%d, %d)", pos.X, pos.Y)
	if step.Highlighted {
		fmt.Fprintf(w, ", %s highlighted", step.Target)
	}
	fmt.Fprintln(w)
	if step.Action != "" {
		fmt.Fprintf(w, "  try it: %s\n", step.Action)
	}
}
