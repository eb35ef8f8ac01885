package analyzer

import (
	"github.com/ccollicutt/logsift/pkg/parser"
)

// Tracker derives statistics from entries while they are assembled.
// Each tracker (API calls, exceptions) implements this interface and is
// created fresh for every parse.
type Tracker interface {
	parser.Observer

	// Name returns the tracker name for logging.
	Name() string
}

var (
	_ Tracker = (*APICallTracker)(nil)
	_ Tracker = (*ExceptionAggregator)(nil)
)
