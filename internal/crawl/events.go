package crawl

// EventKind labels a progress event.
type EventKind string

const (
	// EventFetching is emitted when a target's unit of work begins.
	EventFetching EventKind = "fetching"
	// EventCached is emitted when a fresh cache entry serves the target.
	EventCached EventKind = "cached"
	// EventAnalyzed is emitted after a successful live analysis.
	EventAnalyzed EventKind = "analyzed"
	// EventFailed is emitted when a target's analysis errored.
	EventFailed EventKind = "failed"
)

// Event is an advisory progress notification. Consumers that fall behind
// lose events; the crawl never blocks on them.
type Event struct {
	Kind  EventKind
	URL   string
	Title string
	Index int
	Total int
}
