package ingest

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const reportCSS = `    <style>
        :root {
            --bg: #ffffff;
            --fg: #1a1a1a;
            --muted: #6b7280;
            --border: #e5e7eb;
            --safe: #16a34a;
            --unsafe: #dc2626;
            --row-error: #fef2f2;
            --row-dup: #fffbeb;
        }
        * { box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif;
            color: var(--fg);
            background: var(--bg);
            margin: 0;
            padding: 24px;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        .banner {
            padding: 1rem 1.5rem;
            border-radius: 0.5rem;
            color: #fff;
            font-size: 1.25rem;
            font-weight: 700;
            margin-bottom: 1.5rem;
        }
        .banner.safe { background: var(--safe); }
        .banner.unsafe { background: var(--unsafe); }
        .summary-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 0.75rem;
            margin-bottom: 1.5rem;
        }
        .badge {
            border: 1px solid var(--border);
            border-radius: 0.5rem;
            padding: 0.75rem;
        }
        .badge .label { font-size: 0.75rem; color: var(--muted); text-transform: uppercase; }
        .badge .value { font-size: 1.25rem; font-weight: 600; }
        .verify-note {
            border: 1px solid var(--border);
            border-radius: 0.5rem;
            padding: 0.75rem 1rem;
            margin-bottom: 1.5rem;
            color: var(--muted);
        }
        h2 { font-size: 1.1rem; margin-top: 2rem; }
        .controls { display: flex; gap: 0.75rem; margin-bottom: 0.75rem; flex-wrap: wrap; }
        .search-input {
            flex: 1; min-width: 200px; padding: 0.4rem 0.6rem;
            border: 1px solid var(--border); border-radius: 0.375rem;
        }
        table { width: 100%; border-collapse: collapse; font-size: 0.85rem; margin-bottom: 1rem; }
        th, td { border-bottom: 1px solid var(--border); padding: 0.4rem 0.6rem; text-align: left; }
        th { cursor: pointer; user-select: none; color: var(--muted); font-weight: 600; }
        tr[data-status="error"] { background: var(--row-error); }
        tr[data-status="skipped_duplicate"] { background: var(--row-dup); }
    </style>
`

const reportJS = `    <script>
        document.querySelectorAll('table[data-sortable]').forEach(function (table) {
            var input = table.parentElement.querySelector('.search-input');
            var body = table.querySelector('tbody');
            if (input) {
                input.addEventListener('input', function () {
                    var q = input.value.toLowerCase();
                    Array.from(body.rows).forEach(function (row) {
                        row.style.display = row.innerText.toLowerCase().includes(q) ? '' : 'none';
                    });
                });
            }
            table.querySelectorAll('th[data-col]').forEach(function (th, idx) {
                th.addEventListener('click', function () {
                    var rows = Array.from(body.rows);
                    var asc = th.dataset.dir !== 'asc';
                    rows.sort(function (a, b) {
                        var av = a.cells[idx].innerText, bv = b.cells[idx].innerText;
                        return asc ? av.localeCompare(bv) : bv.localeCompare(av);
                    });
                    th.dataset.dir = asc ? 'asc' : 'desc';
                    rows.forEach(function (r) { body.appendChild(r); });
                });
            });
        });
    </script>
`

// writeReport renders the HTML proof document for one run at path.
// Report-write failures are best-effort; the caller decides whether
// to surface err.
func writeReport(m *IngestManifest, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writeReportHeader(f, m)
	writeVerificationNote(f, m)

	if m.Triage.UnreadableCount > 0 || m.Triage.BlackFrameCount > 0 {
		writeTriageTable(f, m)
	}
	writeFailureTable(f, m, "Primary failures", func(e FileEntry) bool { return e.Status == StatusError })
	writeFailureTable(f, m, "Backup failures", func(e FileEntry) bool { return e.BackupStatus == BackupError })
	writeMismatchTable(f, m, "Primary verification mismatches", func(e FileEntry) bool { return e.Verified != nil && !*e.Verified })
	writeMismatchTable(f, m, "Backup verification mismatches", func(e FileEntry) bool { return e.BackupVerified != nil && !*e.BackupVerified })
	writeDuplicatesTable(f, m)
	writeFullFileTable(f, m)

	f.WriteString(reportJS)
	f.WriteString("  </div>\n</body>\n</html>\n")
	return nil
}

func writeReportHeader(f *os.File, m *IngestManifest) {
	bannerClass, bannerLabel := "unsafe", "NOT SAFE TO FORMAT"
	if m.SafeToFormat {
		bannerClass, bannerLabel = "safe", "SAFE TO FORMAT"
	}

	fmt.Fprintf(f, `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>cullmate ingest proof — %s</title>
%s</head>
<body>
  <div class="container">
    <div class="banner %s">%s</div>
    <div class="summary-grid">
`, html.EscapeString(m.ProjectName), reportCSS, bannerClass, bannerLabel)

	elapsed := m.FinishedAt.Sub(m.StartedAt)
	badges := []struct{ label, value string }{
		{"Files", fmt.Sprintf("%d", m.Totals.FileCount)},
		{"Copied", fmt.Sprintf("%d", m.Totals.SuccessCount)},
		{"Failed", fmt.Sprintf("%d", m.Totals.FailCount)},
		{"Duplicates", fmt.Sprintf("%d", m.Totals.DuplicateCount)},
		{"Total size", humanize.Bytes(uint64(m.Totals.TotalBytes))},
		{"Saved by dedupe", humanize.Bytes(uint64(m.Totals.BytesSaved))},
		{"Elapsed", elapsed.Round(time.Second).String()},
	}
	for _, b := range badges {
		fmt.Fprintf(f, `      <div class="badge"><div class="label">%s</div><div class="value">%s</div></div>
`, html.EscapeString(b.label), html.EscapeString(b.value))
	}
	f.WriteString("    </div>\n")
}

func writeVerificationNote(f *os.File, m *IngestManifest) {
	fmt.Fprintf(f, `    <div class="verify-note">
      Verify mode <strong>%s</strong>: %d file(s) checked, %d ok, %d mismatched.
`, html.EscapeString(m.VerifyMode), m.Totals.VerifiedCount, m.Totals.VerifiedOK, m.Totals.VerifiedMismatch)
	if m.BackupProjectRoot != "" {
		fmt.Fprintf(f, `      Backup leg: %d copied, %d failed, %d verified ok, %d mismatched.
`, m.Totals.BackupSuccessCount, m.Totals.BackupFailCount, m.Totals.BackupVerifiedOK, m.Totals.BackupVerifiedMismatch)
	} else {
		f.WriteString("      No backup destination was configured for this run.\n")
	}
	f.WriteString("    </div>\n")
}

// triageKindLabel renders a human-facing label for a triage flag kind.
// "Unreadable File" is the exact phrase the report's proof readers
// (and this repo's triage tests) look for.
func triageKindLabel(kind TriageKind) string {
	switch kind {
	case TriageUnreadable:
		return "Unreadable File"
	case TriageBlackFrame:
		return "Black Frame"
	default:
		return string(kind)
	}
}

func writeTriageTable(f *os.File, m *IngestManifest) {
	f.WriteString("    <h2>Triage flags</h2>\n    <table><thead><tr><th>File</th><th>Kind</th><th>Reason</th><th>Confidence</th></tr></thead><tbody>\n")
	for _, e := range m.Files {
		for _, flag := range e.TriageFlags {
			fmt.Fprintf(f, "      <tr><td>%s</td><td>%s</td><td>%s</td><td>%.2f</td></tr>\n",
				html.EscapeString(e.DstRel), html.EscapeString(triageKindLabel(flag.Kind)), html.EscapeString(flag.Reason), flag.Confidence)
		}
	}
	f.WriteString("    </tbody></table>\n")
}

func writeFailureTable(f *os.File, m *IngestManifest, title string, match func(FileEntry) bool) {
	var rows []FileEntry
	for _, e := range m.Files {
		if match(e) {
			rows = append(rows, e)
		}
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(f, "    <h2>%s</h2>\n    <table><thead><tr><th>File</th><th>Error</th></tr></thead><tbody>\n", html.EscapeString(title))
	for _, e := range rows {
		msg := e.Error
		if strings.Contains(title, "Backup") {
			msg = e.BackupError
		}
		fmt.Fprintf(f, "      <tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(e.SrcRel), html.EscapeString(msg))
	}
	f.WriteString("    </tbody></table>\n")
}

func writeMismatchTable(f *os.File, m *IngestManifest, title string, match func(FileEntry) bool) {
	var rows []FileEntry
	for _, e := range m.Files {
		if match(e) {
			rows = append(rows, e)
		}
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(f, "    <h2>%s</h2>\n    <table><thead><tr><th>File</th><th>Expected</th><th>Got</th></tr></thead><tbody>\n", html.EscapeString(title))
	for _, e := range rows {
		expected, got := e.Hash, e.HashDest
		if strings.Contains(title, "Backup") {
			expected, got = e.BackupHash, e.BackupHashDest
		}
		fmt.Fprintf(f, "      <tr><td>%s</td><td>%s</td><td>%s</td></tr>\n", html.EscapeString(e.DstRel), html.EscapeString(expected), html.EscapeString(got))
	}
	f.WriteString("    </tbody></table>\n")
}

func writeDuplicatesTable(f *os.File, m *IngestManifest) {
	var rows []FileEntry
	for _, e := range m.Files {
		if e.Status == StatusSkippedDup {
			rows = append(rows, e)
		}
	}
	if len(rows) == 0 {
		return
	}
	f.WriteString("    <h2>Duplicates skipped</h2>\n    <table><thead><tr><th>File</th><th>Duplicate of</th></tr></thead><tbody>\n")
	for _, e := range rows {
		fmt.Fprintf(f, "      <tr><td>%s</td><td>%s</td></tr>\n", html.EscapeString(e.SrcRel), html.EscapeString(e.DuplicateOf))
	}
	f.WriteString("    </tbody></table>\n")
}

func writeFullFileTable(f *os.File, m *IngestManifest) {
	f.WriteString(`    <h2>All files</h2>
    <div class="controls"><input type="text" class="search-input" placeholder="Search files..."></div>
    <table data-sortable>
      <thead><tr>
        <th data-col>Source</th><th data-col>Destination</th><th data-col>Status</th>
        <th data-col>Media</th><th data-col>Routed by</th><th data-col>Size</th>
      </tr></thead>
      <tbody>
`)
	for _, e := range m.Files {
		fmt.Fprintf(f, `        <tr data-status="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>
`,
			html.EscapeString(string(e.Status)),
			html.EscapeString(e.SrcRel), html.EscapeString(e.DstRel), html.EscapeString(string(e.Status)),
			html.EscapeString(string(e.MediaType)), html.EscapeString(e.RoutedBy), humanize.Bytes(uint64(e.Bytes)))
	}
	f.WriteString("      </tbody>\n    </table>\n")
}
