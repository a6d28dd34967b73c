package tour

// Placement is the preferred side of the anchor for the tooltip.
type Placement string

const (
	PlacementBottom      Placement = "bottom"
	PlacementBottomLeft  Placement = "bottom-left"
	PlacementBottomRight Placement = "bottom-right"
	PlacementTop         Placement = "top"
	PlacementLeft        Placement = "left"
	PlacementRight       Placement = "right"
)

// Positioning constants: the gap between anchor and tooltip, and the
// minimum distance the tooltip keeps from every viewport edge.
const (
	positionGap    = 10
	viewportMargin = 10
)

// Rect is an axis-aligned rectangle in viewport coordinates.
type Rect struct {
	X, Y, W, H int
}

// Point is a top-left corner position.
type Point struct {
	X, Y int
}

// Position computes the tooltip's top-left corner next to anchor in
// the preferred placement, then clamps it so the tooltip stays fully
// inside viewport with a fixed margin on all sides. The clamp wins
// over the preference: the tooltip is never partially off-screen.
// Callers must scroll the anchor into view first if it is off-screen.
func Position(anchor, tooltip, viewport Rect, p Placement) Point {
	var pos Point

	switch p {
	case PlacementBottom:
		pos = Point{
			X: anchor.X + anchor.W/2 - tooltip.W/2,
			Y: anchor.Y + anchor.H + positionGap,
		}
	case PlacementBottomLeft:
		pos = Point{
			X: anchor.X,
			Y: anchor.Y + anchor.H + positionGap,
		}
	case PlacementBottomRight:
		pos = Point{
			X: anchor.X + anchor.W - tooltip.W,
			Y: anchor.Y + anchor.H + positionGap,
		}
	case PlacementTop:
		pos = Point{
			X: anchor.X + anchor.W/2 - tooltip.W/2,
			Y: anchor.Y - tooltip.H - positionGap,
		}
	case PlacementLeft:
		pos = Point{
			X: anchor.X - tooltip.W - positionGap,
			Y: anchor.Y + anchor.H/2 - tooltip.H/2,
		}
	case PlacementRight:
		pos = Point{
			X: anchor.X + anchor.W + positionGap,
			Y: anchor.Y + anchor.H/2 - tooltip.H/2,
		}
	default:
		pos = Point{
			X: anchor.X + anchor.W/2 - tooltip.W/2,
			Y: anchor.Y + anchor.H + positionGap,
		}
	}

	return clamp(pos, tooltip, viewport)
}

// DefaultPosition is where a tooltip lands when its anchor cannot be
// resolved: centered horizontally, near the top of the viewport.
func DefaultPosition(tooltip, viewport Rect) Point {
	pos := Point{
		X: viewport.X + viewport.W/2 - tooltip.W/2,
		Y: viewport.Y + viewportMargin,
	}
	return clamp(pos, tooltip, viewport)
}

// clamp keeps the tooltip's bounding box within viewport minus the
// margin.
func clamp(pos Point, tooltip, viewport Rect) Point {
	minX := viewport.X + viewportMargin
	maxX := viewport.X + viewport.W - viewportMargin - tooltip.W
	minY := viewport.Y + viewportMargin
	maxY := viewport.Y + viewport.H - viewportMargin - tooltip.H

	if pos.X > maxX {
		pos.X = maxX
	}
	if pos.X < minX {
		pos.X = minX
	}
	if pos.Y > maxY {
		pos.Y = maxY
	}
	if pos.Y < minY {
		pos.Y = minY
	}

	return pos
}
