// Package records loads day records from YAML or JSON files and serves
// trailing windows from them.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// File is the on-disk layout: either a list under "days" or a single
// record at the top level.
type File struct {
	Days []*day.Record `json:"days" yaml:"days"`
}

// Store is an in-memory index of records by date. It implements
// day.WindowProvider.
type Store struct {
	byDate map[string]*day.Record
}

// NewStore indexes recs. A later record for the same date replaces an
// earlier one.
func NewStore(recs ...*day.Record) (*Store, error) {
	s := &Store{byDate: make(map[string]*day.Record, len(recs))}
	for _, r := range recs {
		if err := s.add(r, "memory"); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadFile reads one records file.
func LoadFile(path string) (*Store, error) {
	s := &Store{byDate: make(map[string]*day.Record)}
	if err := s.loadFile(path); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadDir reads every .yaml, .yml and .json file directly under dir.
func LoadDir(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read records directory %s: %w", dir, err)
	}
	s := &Store{byDate: make(map[string]*day.Record)}
	for _, e := range entries {
		if e.IsDir() || !isRecordFile(e.Name()) {
			continue
		}
		if err := s.loadFile(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("dir", dir).Int("records", len(s.byDate)).Msg("records loaded")
	return s, nil
}

func isRecordFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (s *Store) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read records file %s: %w", path, err)
	}
	recs, err := Decode(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, r := range recs {
		if err := s.add(r, path); err != nil {
			return err
		}
	}
	return nil
}

// Decode parses a records document in either layout.
func Decode(data []byte, isJSON bool) ([]*day.Record, error) {
	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	var f File
	if err := unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	if len(f.Days) > 0 {
		return f.Days, nil
	}

	var single day.Record
	if err := unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	if single.Date == "" && len(bytes.TrimSpace(data)) > 0 {
		return nil, fmt.Errorf("record has no date")
	}
	if single.Date == "" {
		return nil, nil
	}
	return []*day.Record{&single}, nil
}

func (s *Store) add(r *day.Record, source string) error {
	if r == nil {
		return nil
	}
	date, err := r.ParseDate()
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	key := day.DateKey(date)
	if _, dup := s.byDate[key]; dup {
		log.Warn().Str("date", key).Str("source", source).Msg("duplicate record, keeping the later one")
	}
	s.byDate[key] = r
	return nil
}

// Record returns the record for date.
func (s *Store) Record(date time.Time) (*day.Record, bool) {
	r, ok := s.byDate[day.DateKey(date)]
	return r, ok
}

// Latest returns the newest record.
func (s *Store) Latest() (*day.Record, bool) {
	dates := s.Dates()
	if len(dates) == 0 {
		return nil, false
	}
	return s.byDate[dates[len(dates)-1]], true
}

// Dates lists the stored dates in ascending order.
func (s *Store) Dates() []string {
	out := make([]string, 0, len(s.byDate))
	for k := range s.byDate {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len is the number of stored records.
func (s *Store) Len() int { return len(s.byDate) }

// Window implements day.WindowProvider. Missing dates become nil slots.
func (s *Store) Window(_ context.Context, date time.Time, days int) (day.Window, error) {
	if days < 0 {
		return day.Window{}, fmt.Errorf("negative window size %d", days)
	}
	w := day.Window{Days: make([]*day.Record, days)}
	for i := range w.Days {
		w.Days[i] = s.byDate[day.DateKey(date.AddDate(0, 0, -(i+1)))]
	}
	return w, nil
}
