package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testSummary(id string, rubber float64) Summary {
	return Summary{
		TrackID:    id,
		AvgRubber:  rubber,
		AvgMarbles: 0.01,
		AvgTemp:    34.5,
		Timestamp:  time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if err := st.Save(testSummary("spa", 0.25)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	sum, err := st.Load("spa")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sum.AvgRubber != 0.25 {
		t.Errorf("expected rubber 0.25, got %f", sum.AvgRubber)
	}
	if sum.AvgTemp != 34.5 {
		t.Errorf("expected temp 34.5, got %f", sum.AvgTemp)
	}
	if !sum.Timestamp.Equal(testSummary("spa", 0).Timestamp) {
		t.Errorf("timestamp mismatch: %v", sum.Timestamp)
	}
}

func TestStoreSaveOverwritesLatest(t *testing.T) {
	st := New(t.TempDir())

	for _, r := range []float64{0.1, 0.2, 0.3} {
		if err := st.Save(testSummary("monza", r)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	sum, err := st.Load("monza")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sum.AvgRubber != 0.3 {
		t.Errorf("expected latest rubber 0.3, got %f", sum.AvgRubber)
	}

	hist, err := st.History("monza")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(hist))
	}
	if hist[0].AvgRubber != 0.1 || hist[2].AvgRubber != 0.3 {
		t.Errorf("history out of order: %+v", hist)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 tracks, got %d", len(runs))
	}

	for _, id := range []string{"spa", "suzuka"} {
		if err := st.Save(testSummary(id, 0.1)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 tracks, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	if err := st.Save(testSummary("imola", 0.1)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"summary.json", "history.csv"} {
		if _, err := os.Stat(filepath.Join(dir, "imola", name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "imola", "summary.json.tmp")); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestStoreRejectsBadTrackID(t *testing.T) {
	st := New(t.TempDir())

	for _, id := range []string{"", "..", "a/b", `c\d`} {
		if err := st.Save(testSummary(id, 0)); !errors.Is(err, ErrInvalidTrackID) {
			t.Errorf("id %q: expected ErrInvalidTrackID, got %v", id, err)
		}
		if _, err := st.Load(id); !errors.Is(err, ErrInvalidTrackID) {
			t.Errorf("load %q: expected ErrInvalidTrackID, got %v", id, err)
		}
	}
}
