// cullmate-ingest: copies photos and videos from a source directory into
// a structured project, verifying what was copied and proving it with
// a manifest and an HTML report.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tyreamer/cullmate-core/ingest"
)

func main() {
	var (
		sourcePath      string
		destPath        string
		projectName     string
		backupDest      string
		verifyMode      string
		hashAlgo        string
		overwrite       bool
		dedupe          bool
		interactive     bool
		templatePath    string
		dedupeIndexPath string
		xmpCreator      string
		xmpRights       string
		xmpWebStatement string
		xmpCredit       string
	)

	rootCmd := &cobra.Command{
		Use:   "cullmate-ingest",
		Short: "Ingest photos and videos into a verified project folder",
		Long: `cullmate-ingest copies media from a source directory (a camera card)
into a structured project folder, hashing every file as it streams and
optionally mirroring to a second backup destination.

When it finishes, it writes a JSON manifest and an HTML report whose
headline is a single boolean: safe_to_format. That flag is only true
when a backup destination was configured, no file failed or mismatched
on either leg, both legs account for the same files, and triage found
no unreadable file. Without --backup it is always false.
`,
		Example: `  # Basic ingest
  cullmate-ingest --src ~/DCIM --dest ~/Projects --name wedding-2026-03-05

  # With a mirrored backup destination and full verification
  cullmate-ingest --src ~/DCIM --dest ~/Projects --name shoot \
      --backup /Volumes/Backup --verify full
`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(os.Args) == 1 {
				interactive = true
			}
			if interactive {
				sourcePath, destPath, projectName, backupDest = runInteractivePrompt()
			}
			if sourcePath == "" || destPath == "" || projectName == "" {
				color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "source, dest, and name are required")
				os.Exit(1)
			}

			params := ingest.Params{
				SourcePath:      sourcePath,
				DestProjectPath: destPath,
				ProjectName:     projectName,
				BackupDest:      backupDest,
				VerifyMode:      ingest.VerifyMode(verifyMode),
				HashAlgo:        ingest.HashAlgo(hashAlgo),
				Overwrite:       overwrite,
				Dedupe:          dedupe,
				DedupeIndexPath: dedupeIndexPath,
			}

			if xmpCreator != "" || xmpRights != "" || xmpWebStatement != "" || xmpCredit != "" {
				params.XMPPatch = &ingest.XMPPatch{
					Creator:      xmpCreator,
					Rights:       xmpRights,
					WebStatement: xmpWebStatement,
					Credit:       xmpCredit,
				}
			}

			if templatePath != "" {
				tmpl, err := ingest.LoadFolderTemplate(templatePath)
				if err != nil {
					color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "[FATAL] %v\n", err)
					os.Exit(1)
				}
				params.FolderTemplate = tmpl
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			sub := newProgressSubscriber()
			manifest, err := ingest.RunIngest(ctx, params, sub.onProgress)
			sub.finish()
			if ctx.Err() != nil {
				color.New(color.FgYellow, color.Bold).Fprintln(os.Stderr, "run cancelled; manifest records partial state")
			}
			if err != nil {
				color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "[FATAL] %v\n", err)
				os.Exit(1)
			}

			printSummary(manifest)
		},
	}

	rootCmd.Flags().StringVarP(&sourcePath, "src", "s", "", "Source directory (camera card)")
	rootCmd.Flags().StringVarP(&destPath, "dest", "d", "", "Parent directory for the project")
	rootCmd.Flags().StringVarP(&projectName, "name", "n", "", "Project folder name")
	rootCmd.Flags().StringVar(&backupDest, "backup", "", "Optional mirror backup parent directory")
	rootCmd.Flags().StringVar(&verifyMode, "verify", "sentinel", "Verify mode: none, sentinel, full")
	rootCmd.Flags().StringVar(&hashAlgo, "hash", "blake3", "Hash algorithm: sha256, sha512, blake3")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing destination files")
	rootCmd.Flags().BoolVar(&dedupe, "dedupe", false, "Skip copies whose content already landed this run")
	rootCmd.Flags().BoolVar(&interactive, "interactive", false, "Run in interactive mode (prompts for input)")
	rootCmd.Flags().StringVar(&templatePath, "template", "", "Path to a folder template YAML file (routing rules)")
	rootCmd.Flags().StringVar(&dedupeIndexPath, "dedupe-index", "", "Optional path to a persistent cross-run content index (sqlite)")
	rootCmd.Flags().StringVar(&xmpCreator, "xmp-creator", "", "Optional XMP sidecar creator field")
	rootCmd.Flags().StringVar(&xmpRights, "xmp-rights", "", "Optional XMP sidecar rights field")
	rootCmd.Flags().StringVar(&xmpWebStatement, "xmp-web-statement", "", "Optional XMP sidecar web statement field")
	rootCmd.Flags().StringVar(&xmpCredit, "xmp-credit", "", "Optional XMP sidecar credit field")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func printSummary(m *ingest.IngestManifest) {
	banner := color.New(color.FgWhite, color.BgRed, color.Bold)
	if m.SafeToFormat {
		banner = color.New(color.FgWhite, color.BgGreen, color.Bold)
	}
	label := "NOT SAFE TO FORMAT"
	if m.SafeToFormat {
		label = "SAFE TO FORMAT"
	}
	fmt.Println()
	banner.Printf(" %s ", label)
	fmt.Println()
	fmt.Printf("copied=%d failed=%d duplicates=%d elapsed=%s\n",
		m.Totals.SuccessCount, m.Totals.FailCount, m.Totals.DuplicateCount,
		m.FinishedAt.Sub(m.StartedAt).Round(time.Second))
	fmt.Printf("manifest: %s\n", m.ManifestPath)
	fmt.Printf("report:   %s\n", m.ReportPath)
}
