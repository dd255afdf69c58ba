// Package storage persists averaged surface snapshots per track.
//
// Only the summary is written; the full per-cell buffer never leaves memory.
// Layout under the base directory:
//
//	<track_id>/summary.json   latest snapshot
//	<track_id>/history.csv    every snapshot saved, oldest first
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTrackID indicates an empty identifier or one that would escape
// the base directory.
var ErrInvalidTrackID = errors.New("storage: invalid track id")

// Summary is the averaged state of a track surface at one moment.
type Summary struct {
	TrackID    string    `json:"track_id"`
	AvgRubber  float64   `json:"avg_rubber"`
	AvgMarbles float64   `json:"avg_marbles"`
	AvgTemp    float64   `json:"avg_temp"`
	Timestamp  time.Time `json:"timestamp"`
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func validTrackID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidTrackID, id)
	}
	return nil
}

// Save writes sum as the latest snapshot for its track and appends it to the
// track history.
func (s *Store) Save(sum Summary) error {
	if err := validTrackID(sum.TrackID); err != nil {
		return err
	}
	dir := filepath.Join(s.baseDir, sum.TrackID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return err
	}
	tmp := filepath.Join(dir, "summary.json.tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(dir, "summary.json")); err != nil {
		return err
	}

	return s.appendHistory(dir, sum)
}

func (s *Store) appendHistory(dir string, sum Summary) error {
	path := filepath.Join(dir, "history.csv")
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write([]string{"timestamp", "avg_rubber", "avg_marbles", "avg_temp"}); err != nil {
			return err
		}
	}
	row := []string{
		sum.Timestamp.UTC().Format(time.RFC3339Nano),
		strconv.FormatFloat(sum.AvgRubber, 'f', 6, 64),
		strconv.FormatFloat(sum.AvgMarbles, 'f', 6, 64),
		strconv.FormatFloat(sum.AvgTemp, 'f', 6, 64),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Load returns the latest snapshot for trackID.
func (s *Store) Load(trackID string) (*Summary, error) {
	if err := validTrackID(trackID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, trackID, "summary.json"))
	if err != nil {
		return nil, err
	}

	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// List returns the latest snapshot of every stored track.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, err
	}

	out := make([]Summary, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sum, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, *sum)
	}
	return out, nil
}

// History returns every saved snapshot for trackID, oldest first. Malformed
// rows are skipped.
func (s *Store) History(trackID string) ([]Summary, error) {
	if err := validTrackID(trackID); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, trackID, "history.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 4 {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, rec[0])
		if err != nil {
			continue
		}
		vals := make([]float64, 3)
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		out = append(out, Summary{
			TrackID:    trackID,
			AvgRubber:  vals[0],
			AvgMarbles: vals[1],
			AvgTemp:    vals[2],
			Timestamp:  ts,
		})
	}
	return out, nil
}
