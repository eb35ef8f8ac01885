package filter

import "github.com/ccollicutt/logsift/pkg/parser"

// DefaultPageSize is the number of entries per page when none is given.
const DefaultPageSize = 100

// Page is one window of a filtered entry list.
type Page struct {
	Entries []*parser.LogEntry `json:"entries"`

	// Number is the 1-based page number, clamped to [1, Pages].
	Number int `json:"page"`
	Size   int `json:"page_size"`
	Pages  int `json:"pages"`
	Total  int `json:"total"`
}

// Paginate returns page number (1-based) of entries split into pages of
// size entries. Out of range page numbers are clamped.
func Paginate(entries []*parser.LogEntry, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := (len(entries) + size - 1) / size

	number = min(number, pages)
	number = max(number, 1)

	start := min((number-1)*size, len(entries))
	end := min(start+size, len(entries))

	return Page{
		Entries: entries[start:end],
		Number:  number,
		Size:    size,
		Pages:   pages,
		Total:   len(entries),
	}
}

// Window returns up to limit entries starting at offset. A limit of 0 or
// less means no limit.
func Window(entries []*parser.LogEntry, offset, limit int) []*parser.LogEntry {
	offset = max(offset, 0)
	if offset >= len(entries) {
		return []*parser.LogEntry{}
	}
	end := len(entries)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return entries[offset:end]
}
