// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - "turncapp history" subcommands over the SQLite run store.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/laveshps/turncapp/internal/storage"
)

// HandleHistory dispatches the history subcommands: list (default), show,
// transcript, delete, and clear.
func HandleHistory(args Args) error {
	store, err := storage.OpenDefault()
	if err != nil {
		return fmt.Errorf("cannot open history database: %w", err)
	}
	defer store.Close()

	sub := "list"
	if args.Subcommand != "" {
		sub = args.Subcommand
	}
	var rest []string
	if len(args.Raw) > 1 {
		rest = args.Raw[1:]
	}

	switch sub {
	case "list", "ls", "":
		return historyList(store, rest)
	case "show":
		return historyShow(store, rest)
	case "transcript", "chat":
		return historyTranscript(store, rest)
	case "delete", "rm":
		return historyDelete(store, rest)
	case "clear":
		return historyClear(store, rest)
	case "search":
		return historySearch(store, rest)
	default:
		return fmt.Errorf("unknown history subcommand %q (try: list, show, transcript, delete, clear)", sub)
	}
}

func historyList(store *storage.HistoryStore, _ []string) error {
	recs, err := store.ListRuns(20)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No saved analyses yet. Run: turncapp plan <summary.json> --save")
		return nil
	}
	fmt.Print(storage.FormatHistoryList(recs))
	return nil
}

func historySearch(store *storage.HistoryStore, rest []string) error {
	if len(rest) == 0 {
		return errors.New("usage: turncapp history search <text>")
	}
	recs, err := store.Search(strings.Join(rest, " "))
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No matching analyses.")
		return nil
	}
	fmt.Print(storage.FormatHistoryList(recs))
	return nil
}

func historyShow(store *storage.HistoryStore, rest []string) error {
	rec, err := lookupRun(store, rest)
	if err != nil {
		return err
	}

	fmt.Printf("Run:      %s\n", rec.RunID)
	fmt.Printf("File:     %s\n", rec.SourceFile)
	fmt.Printf("Date:     %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Score:    %d/100\n", rec.Score)
	if rec.Suitable {
		fmt.Printf("Suitable: %s\n", okStyle.Render("yes"))
	} else {
		fmt.Printf("Suitable: %s\n", errorStyle.Render("no"))
	}
	fmt.Printf("Material: %s\n", rec.Material)
	fmt.Printf("Machine:  %s\n", rec.Machine)
	if rec.TotalMinutes > 0 {
		fmt.Printf("Time:     %.1f minutes\n", rec.TotalMinutes)
	}
	if rec.Document != "" {
		fmt.Println()
		fmt.Println(rec.Document)
	}
	return nil
}

func historyTranscript(store *storage.HistoryStore, rest []string) error {
	rec, err := lookupRun(store, rest)
	if err != nil {
		return err
	}
	turns, err := store.Transcript(rec.RunID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Println("No chat transcript for this run.")
		return nil
	}
	for _, turn := range turns {
		label := commandStyle.Render("You")
		if turn.Role == "assistant" {
			label = promptStyle.Render("Advisor")
		}
		fmt.Printf("%s  %s\n%s\n\n", label,
			infoStyle.Render(turn.CreatedAt.Format("15:04")), turn.Content)
	}
	return nil
}

func historyDelete(store *storage.HistoryStore, rest []string) error {
	rec, err := lookupRun(store, rest)
	if err != nil {
		return err
	}
	if err := store.DeleteRun(rec.RunID); err != nil {
		return err
	}
	fmt.Printf("Deleted run %s (%s)\n", rec.RunID.String()[:8], rec.SourceFile)
	return nil
}

func historyClear(store *storage.HistoryStore, rest []string) error {
	confirmed := false
	for _, arg := range rest {
		if arg == "--confirm" || arg == "-y" {
			confirmed = true
		}
	}
	if !confirmed {
		fmt.Fprintln(os.Stderr, warningStyle.Render(
			"This deletes ALL saved analyses and transcripts."))
		fmt.Fprintln(os.Stderr, "Re-run with --confirm to proceed.")
		return nil
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("History cleared.")
	return nil
}

// lookupRun resolves a run ID prefix argument to a stored record. With no
// argument it returns the most recent run.
func lookupRun(store *storage.HistoryStore, rest []string) (*storage.AnalysisRecord, error) {
	if len(rest) == 0 {
		recs, err := store.ListRuns(1)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, errors.New("no saved analyses yet")
		}
		return &recs[0], nil
	}

	ref := rest[0]
	if id, err := uuid.Parse(ref); err == nil {
		return store.GetRun(id)
	}

	// Prefix match against stored IDs.
	recs, err := store.ListRuns(0)
	if err != nil {
		return nil, err
	}
	var match *storage.AnalysisRecord
	for i := range recs {
		if strings.HasPrefix(recs[i].RunID.String(), strings.ToLower(ref)) {
			if match != nil {
				return nil, fmt.Errorf("run ID prefix %q is ambiguous", ref)
			}
			match = &recs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no run matching %q", ref)
	}
	return match, nil
}
