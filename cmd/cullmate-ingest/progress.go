package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/tyreamer/cullmate-core/ingest"
)

// progressSubscriber adapts the typed ingest.Event stream onto a
// terminal progress bar, one bar per phase.
type progressSubscriber struct {
	current *progressbar.ProgressBar
	phase   string
}

func newProgressSubscriber() *progressSubscriber {
	return &progressSubscriber{}
}

func (s *progressSubscriber) onProgress(ev ingest.Event) {
	switch ev.Type {
	case ingest.EventIngestStart:
		data := ev.Data.(ingest.EvIngestStart)
		color.New(color.FgCyan, color.Bold).Printf("ingesting %s -> %s\n", data.SourcePath, data.ProjectRoot)

	case ingest.EventScanProgress:
		data := ev.Data.(ingest.EvScanProgress)
		fmt.Printf("\rscanning... %d files found", data.DiscoveredCount)

	case ingest.EventCopyProgress:
		data := ev.Data.(ingest.EvCopyProgress)
		s.ensureBar("copying", data.Total)
		s.current.Set(data.Index + 1)

	case ingest.EventDedupeHit:
		data := ev.Data.(ingest.EvDedupeHit)
		color.New(color.FgYellow).Printf("\nduplicate: %s (matches %s)\n", data.RelPath, data.DuplicateOf)

	case ingest.EventVerifyProgress:
		data := ev.Data.(ingest.EvVerifyProgress)
		s.ensureBar("verifying", data.VerifiedTotal)
		s.current.Set(data.VerifiedCount)

	case ingest.EventBackupStart:
		fmt.Println()
		color.New(color.FgCyan).Println("mirroring to backup destination...")

	case ingest.EventBackupCopy:
		data := ev.Data.(ingest.EvCopyProgress)
		s.ensureBar("backup copy", data.Total)
		s.current.Set(data.Index + 1)

	case ingest.EventBackupVerify:
		data := ev.Data.(ingest.EvVerifyProgress)
		s.ensureBar("backup verify", data.VerifiedTotal)
		s.current.Set(data.VerifiedCount)

	case ingest.EventTriageProgress:
		data := ev.Data.(ingest.EvTriageProgress)
		s.ensureBar("triage", data.Total)
		s.current.Set(data.Checked)

	case ingest.EventTriageDone:
		data := ev.Data.(ingest.EvTriageDone)
		if data.Summary.UnreadableCount > 0 {
			fmt.Println()
			color.New(color.FgRed, color.Bold).Printf("%d file(s) failed decode\n", data.Summary.UnreadableCount)
		}

	case ingest.EventReportGenerated:
		// final summary is printed by the caller after RunIngest returns
	}
}

func (s *progressSubscriber) ensureBar(phase string, total int) {
	if s.phase == phase && s.current != nil {
		return
	}
	if s.current != nil {
		s.current.Finish()
		fmt.Println()
	}
	s.phase = phase
	s.current = progressbar.NewOptions(total,
		progressbar.OptionSetDescription(phase),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	)
}

func (s *progressSubscriber) finish() {
	if s.current != nil {
		s.current.Finish()
		fmt.Println()
	}
}
