package constants

// JobStatus is the canonical lifecycle state of a conversion job.
type JobStatus string

// Stable values (these exact strings are returned to status pollers).
const (
	JobStatusQueued    JobStatus = "queued"            // created, runner not started yet
	JobStatusRendering JobStatus = "rendering_pages"   // rendering PDF pages to images
	JobStatusOCR       JobStatus = "running_ocr"       // per-page text extraction in flight
	JobStatusBuilding  JobStatus = "building_document" // assembling the .docx
	JobStatusComplete  JobStatus = "complete"          // terminal success
	JobStatusError     JobStatus = "error"             // terminal failure
)

// Terminal reports whether no further transition occurs from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// rank orders statuses along the state machine so transitions can be
// checked for monotonicity. error is reachable from any non-terminal state.
var rank = map[JobStatus]int{
	JobStatusQueued:    0,
	JobStatusRendering: 1,
	JobStatusOCR:       2,
	JobStatusBuilding:  3,
	JobStatusComplete:  4,
	JobStatusError:     4,
}

// CanAdvanceTo reports whether moving from s to next respects the state
// machine: forward-only, and nothing leaves a terminal state.
func (s JobStatus) CanAdvanceTo(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	return rank[next] > rank[s]
}
