package ingest

// EventType names one of the stable progress event shapes.
type EventType string

const (
	EventIngestStart     EventType = "ingest.start"
	EventScanProgress    EventType = "ingest.scan.progress"
	EventCopyProgress    EventType = "ingest.copy.progress"
	EventDedupeHit       EventType = "ingest.dedupe.hit"
	EventVerifyProgress  EventType = "ingest.verify.progress"
	EventXMPProgress     EventType = "ingest.xmp.progress"
	EventBackupStart     EventType = "ingest.backup.start"
	EventBackupCopy      EventType = "ingest.backup.copy.progress"
	EventBackupVerify    EventType = "ingest.backup.verify.progress"
	EventTriageProgress  EventType = "ingest.triage.progress"
	EventTriageDone      EventType = "ingest.triage.done"
	EventReportGenerated EventType = "ingest.report.generated"
	EventDone            EventType = "ingest.done"
)

// Event is one typed, totally-ordered (within a run) progress
// message. Data holds the shape-specific payload for the EventType;
// callers type-assert on EventType before reading Data.
type Event struct {
	Type EventType
	Data any
}

// ProgressFunc is the callback a caller supplies to RunIngest. It is
// invoked synchronously from the orchestrator's goroutine; observable
// ordering within one run is the orchestrator's responsibility, not
// the callback's. A nil ProgressFunc is valid and silently discards
// events.
type ProgressFunc func(Event)

// emitter wraps a possibly-nil ProgressFunc so call sites never need a
// nil check.
type emitter struct {
	fn ProgressFunc
}

func newEmitter(fn ProgressFunc) *emitter {
	return &emitter{fn: fn}
}

func (e *emitter) emit(typ EventType, data any) {
	if e == nil || e.fn == nil {
		return
	}
	e.fn(Event{Type: typ, Data: data})
}

// Event payload shapes, one struct per EventType.

type EvIngestStart struct {
	SourcePath  string
	ProjectRoot string
}

type EvScanProgress struct {
	DiscoveredCount int
}

type EvCopyProgress struct {
	Index            int
	Total            int
	RelPath          string
	BytesCopied      int64
	TotalBytesCopied int64
}

type EvDedupeHit struct {
	RelPath             string
	DuplicateOf         string
	BytesSavedTotal     int64
	DuplicateCountTotal int
}

type EvVerifyProgress struct {
	Mode          VerifyMode
	VerifiedCount int
	VerifiedTotal int
}

type EvXMPProgress struct {
	WrittenCount int
	FailedCount  int
	Total        int
}

type EvBackupStart struct {
	BackupRoot string
}

type EvTriageProgress struct {
	Checked int
	Total   int
}

type EvTriageDone struct {
	Summary TriageSummary
}

type EvReportGenerated struct {
	ManifestPath string
	ReportPath   string
}

type EvDone struct {
	SuccessCount int
	FailCount    int
	ElapsedMS    int64
	SafeToFormat bool
}
