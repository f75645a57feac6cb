package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avelter/qrscan/internal/history"
	"github.com/avelter/qrscan/internal/interfaces"
	"github.com/avelter/qrscan/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func newHistory(t *testing.T) *history.History {
	t.Helper()
	h, err := history.New(openTestDB(t), interfaces.NewTestLogger(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func sampleReport(filename string, completedAt time.Time) *model.ScanReport {
	return &model.ScanReport{
		Stats: model.ScanStats{TotalPages: 4, UniqueURLs: 2},
		QualityScores: model.QualityScores{
			QRDetection: 50.0,
			Overall:     62.5,
		},
		Metadata: model.ScanMetadata{
			FileInfo:    model.FileInfo{Filename: filename},
			CompletedAt: completedAt,
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	h := newHistory(t)
	ctx := context.Background()

	report := sampleReport("brochure.pdf", time.Now())
	if err := h.Record(ctx, "scan-1", report); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := h.Get(ctx, "scan-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Stats.TotalPages != 4 || got.QualityScores.Overall != 62.5 {
		t.Errorf("report round-trip mismatch: %+v", got.Stats)
	}
	if got.Metadata.FileInfo.Filename != "brochure.pdf" {
		t.Errorf("filename = %q", got.Metadata.FileInfo.Filename)
	}

	if _, err := h.Get(ctx, "missing"); !errors.Is(err, history.ErrScanNotFound) {
		t.Errorf("Get(missing) = %v, want ErrScanNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	h := newHistory(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		report := sampleReport(id+".pdf", base.Add(time.Duration(i)*time.Minute))
		if err := h.Record(ctx, id, report); err != nil {
			t.Fatalf("Record(%s): %v", id, err)
		}
	}

	entries, err := h.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ScanID != "c" || entries[1].ScanID != "b" {
		t.Errorf("order = %s, %s", entries[0].ScanID, entries[1].ScanID)
	}
}

func TestDelete(t *testing.T) {
	h := newHistory(t)
	ctx := context.Background()

	if err := h.Record(ctx, "scan-1", sampleReport("x.pdf", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := h.Delete(ctx, "scan-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := h.Delete(ctx, "scan-1"); !errors.Is(err, history.ErrScanNotFound) {
		t.Errorf("second Delete = %v, want ErrScanNotFound", err)
	}
}

func TestPruneOlderThan(t *testing.T) {
	h := newHistory(t)
	ctx := context.Background()

	old := sampleReport("old.pdf", time.Now().Add(-48*time.Hour))
	fresh := sampleReport("fresh.pdf", time.Now())
	if err := h.Record(ctx, "old", old); err != nil {
		t.Fatal(err)
	}
	if err := h.Record(ctx, "fresh", fresh); err != nil {
		t.Fatal(err)
	}

	n, err := h.PruneOlderThan(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}
	if _, err := h.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh scan was pruned: %v", err)
	}
}
