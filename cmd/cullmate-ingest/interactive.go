package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

// runInteractivePrompt walks the operator through the three required
// inputs and the optional backup destination when no flags were given. There is no OS-native folder picker
// here: the operator types or pastes a path, same as any other prompt.
func runInteractivePrompt() (sourcePath, destPath, projectName, backupDest string) {
	color.New(color.FgCyan, color.Bold).Println("cullmate-ingest")
	fmt.Println("Answer a few questions to start an ingest run.")

	sourcePath = promptPath("Source directory (camera card)", true)
	destPath = promptPath("Destination parent directory", false)
	projectName = promptText("Project folder name", requireNonEmpty)

	wantsBackup, err := (&promptui.Prompt{
		Label:     "Mirror to a backup destination",
		IsConfirm: true,
	}).Run()
	if err == nil && (wantsBackup == "y" || wantsBackup == "Y") {
		backupDest = promptPath("Backup destination parent directory", true)
	}

	return sourcePath, destPath, projectName, backupDest
}

func requireNonEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func promptText(label string, validate promptui.ValidateFunc) string {
	p := &promptui.Prompt{Label: label, Validate: validate}
	val, err := p.Run()
	if err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "aborted")
		os.Exit(1)
	}
	return val
}

// promptPath prompts for a filesystem path, optionally requiring that
// it already exist (source and existing backup destinations do;
// a brand new destination parent does not have to).
func promptPath(label string, mustExist bool) string {
	validate := func(s string) error {
		if s == "" {
			return fmt.Errorf("required")
		}
		if mustExist {
			if _, err := os.Stat(s); err != nil {
				return fmt.Errorf("not found: %w", err)
			}
		}
		return nil
	}
	return promptText(label, validate)
}
