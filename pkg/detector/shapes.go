package detector

// ShapeKind classifies a sampled line.
type ShapeKind string

const (
	// ShapeThreadHeader is "<timestamp> [LVL] [ThreadId] message".
	ShapeThreadHeader ShapeKind = "thread_header"

	// ShapePlainHeader is "<timestamp> [LVL] message".
	ShapePlainHeader ShapeKind = "plain_header"

	// ShapeTimestampOnly carries a timestamp but no recognized level tag.
	// Such lines are folded into the previous entry.
	ShapeTimestampOnly ShapeKind = "timestamp_only"

	// ShapeContinuation has no timestamp at all.
	ShapeContinuation ShapeKind = "continuation"
)

// Shape describes one line shape the detector recognizes.
type Shape struct {
	Kind        ShapeKind
	Name        string
	Description string
	Example     string
}

// DefaultShapes returns the line shapes the detector reports on, headers
// first.
func DefaultShapes() []*Shape {
	return []*Shape{
		{
			Kind:        ShapeThreadHeader,
			Name:        "Header with thread id",
			Description: "starts a new entry; thread id taken from the second bracket",
			Example:     `2024-01-15 10:30:00.123 +00:00 [INF] [T1] Service started`,
		},
		{
			Kind:        ShapePlainHeader,
			Name:        "Header without thread id",
			Description: "starts a new entry; thread id recorded as N/A",
			Example:     `2024-01-15 10:30:00.123 +00:00 [WRN] Disk almost full`,
		},
		{
			Kind:        ShapeTimestampOnly,
			Name:        "Timestamp without level",
			Description: "appended to the previous entry's exception text",
			Example:     `2024-01-15 10:30:00.123 +00:00 free text`,
		},
		{
			Kind:        ShapeContinuation,
			Name:        "Continuation",
			Description: "appended to the previous entry's exception text",
			Example:     `   at Orders.Create() in Orders.cs:line 42`,
		},
	}
}

func shapeByKind(shapes []*Shape, kind ShapeKind) *Shape {
	for _, s := range shapes {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}
