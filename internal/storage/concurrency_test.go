// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// The store serializes on one SQLite connection; concurrent writers must not
// see SQLITE_BUSY or lose rows.
func TestConcurrentWriters(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	const writers = 8
	const runsPerWriter = 5

	var wg sync.WaitGroup
	errs := make(chan error, writers*runsPerWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < runsPerWriter; i++ {
				_, err := store.SaveRun(&AnalysisRecord{
					SourceFile: fmt.Sprintf("part_%d_%d.step", w, i),
					Score:      80,
					Suitable:   true,
				})
				if err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	recs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, recs, writers*runsPerWriter)
}

func TestConcurrentTranscriptAppends(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	runID, err := store.SaveRun(&AnalysisRecord{SourceFile: "shaft.step", Score: 90, Suitable: true})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, runID)

	const turns = 40
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			require.NoError(t, store.SaveTurn(runID, role, fmt.Sprintf("turn %d", i)))
		}(i)
	}
	wg.Wait()

	got, err := store.Transcript(runID)
	require.NoError(t, err)
	require.Len(t, got, turns)
}
