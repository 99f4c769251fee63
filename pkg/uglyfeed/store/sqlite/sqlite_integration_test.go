package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/internalerr"
	"github.com/uglyfeed/uglyfeed/pkg/uglyfeed/store"
)

// TestSQLiteLedgerRoundTrip records a run with groups and reads it back
func TestSQLiteLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	started := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	run := store.Run{
		ID:         "01HXRUN",
		StartedAt:  started,
		ArticlesIn: 12,
		Method:     "agglomerative",
		Threshold:  0.66,
		Status:     store.StatusOK,
	}
	if err := st.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	// update with final counts
	run.FinishedAt = started.Add(3 * time.Second)
	run.GroupsFound = 2
	run.FilesWritten = 2
	if err := st.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun update: %v", err)
	}

	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.FilesWritten != 2 || got.Threshold != 0.66 || !got.FinishedAt.Equal(run.FinishedAt) {
		t.Errorf("GetRun = %+v", got)
	}

	for i, id := range []string{"g-1", "g-2"} {
		g := store.GroupRecord{
			RunID:      run.ID,
			GroupID:    id,
			Path:       "/out/" + id + ".json",
			Label:      "storm city",
			Size:       2 + i,
			Similarity: 0.8,
			Links:      []string{"http://a/" + id, "http://b/" + id},
			CreatedAt:  started,
		}
		if err := st.RecordGroup(ctx, g); err != nil {
			t.Fatalf("RecordGroup(%s): %v", id, err)
		}
	}

	groups, err := st.GroupsForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GroupsForRun: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].GroupID != "g-1" || groups[1].Size != 3 {
		t.Errorf("unexpected groups: %+v", groups)
	}
	if len(groups[1].Links) != 2 || groups[1].Links[0] != "http://a/g-2" {
		t.Errorf("links not preserved: %v", groups[1].Links)
	}
}

func TestSQLiteListRunsAndMissing(t *testing.T) {
	ctx := context.Background()
	st, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer st.Close()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		if err := st.RecordRun(ctx, store.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r3" || runs[1].ID != "r2" {
		t.Errorf("ListRuns = %+v", runs)
	}

	if _, err := st.GetRun(ctx, "nope"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	st, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := st.RecordRun(ctx, store.Run{ID: "persisted", StartedAt: time.Now()}); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	st.Close()

	st, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if _, err := st.GetRun(ctx, "persisted"); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}
