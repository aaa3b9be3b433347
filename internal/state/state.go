// Package state persists the scan cursor and the processed/failed
// video sets as single-record JSON files.
//
// Every mutating call rewrites the whole file through a temp-file
// rename, so a crash between two mutations loses at most the latest
// one and never corrupts earlier state. Load tolerates both the
// current object shape and the legacy bare-array shape; unreadable
// files fall back to an empty set with a warning instead of aborting
// the run.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/observability"
)

const (
	processedFileName = "processed_videos.json"
	failedFileName    = "failed_videos.json"
	cursorFileName    = "scan_cursor.json"

	fileMode = 0o644
)

// Cursor is the persisted scan position. Offset only ever moves
// forward; TotalProcessed is advisory.
type Cursor struct {
	Offset         int       `json:"offset"`
	LastUpdated    time.Time `json:"lastUpdated"`
	TotalProcessed int       `json:"totalProcessed"`
}

// FailedRecord is the structured entry appended for a terminal
// publish failure.
type FailedRecord struct {
	VideoID   string `json:"videoId"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
}

// setFile is the current on-disk shape for both sets. Legacy files
// are a bare JSON array of entries instead.
type setFile struct {
	LastUpdated    time.Time `json:"lastUpdated"`
	TotalProcessed int       `json:"totalProcessed,omitempty"`
	TotalFailed    int       `json:"totalFailed,omitempty"`
	Videos         []string  `json:"videos"`
}

// Store owns the three state files for the duration of a run. It is
// not safe for concurrent runs; external scheduling must serialize
// them.
type Store struct {
	dir    string
	logger *zerolog.Logger

	processed     map[string]struct{}
	processedList []string

	// failedEntries keeps the raw on-disk entries (legacy bare ids and
	// structured records alike) so rewrites never drop history.
	failed        map[string]struct{}
	failedEntries []string

	cursor Cursor
}

// Open loads existing state from dir, creating the directory if
// needed. Only a directory that cannot be created is fatal; unreadable
// state files degrade to empty sets.
func Open(dir string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &Store{
		dir:       dir,
		logger:    logger,
		processed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
	}

	s.processedList = s.loadSet(processedFileName)
	for _, fp := range s.processedList {
		s.processed[fp] = struct{}{}
	}

	s.failedEntries = s.loadSet(failedFileName)
	for _, entry := range s.failedEntries {
		s.failed[normalizeFailedEntry(entry)] = struct{}{}
	}

	s.cursor = s.loadCursor()

	logger.Info().
		Int("processed", len(s.processed)).
		Int("failed", len(s.failed)).
		Int("offset", s.cursor.Offset).
		Msg("State loaded")

	return s, nil
}

func (s *Store) IsProcessed(fp string) bool {
	_, ok := s.processed[fp]
	return ok
}

func (s *Store) IsFailed(fp string) bool {
	_, ok := s.failed[fp]
	return ok
}

// MarkProcessed records a successful publish. Marking an already
// processed fingerprint is a no-op.
func (s *Store) MarkProcessed(fp string) error {
	if s.IsProcessed(fp) {
		return nil
	}

	s.processed[fp] = struct{}{}
	s.processedList = append(s.processedList, fp)

	return s.writeFile(processedFileName, setFile{
		LastUpdated:    time.Now().UTC(),
		TotalProcessed: len(s.processedList),
		Videos:         s.processedList,
	})
}

// MarkFailed appends a structured failure record. Repeated failures
// for the same fingerprint append again; the set is append-only and
// duplicates are tolerated, not deduplicated.
func (s *Store) MarkFailed(fp, reason, rawErr string) error {
	record := FailedRecord{
		VideoID:   fp,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     rawErr,
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return err
	}

	s.failed[fp] = struct{}{}
	s.failedEntries = append(s.failedEntries, string(encoded))

	return s.writeFile(failedFileName, setFile{
		LastUpdated: time.Now().UTC(),
		TotalFailed: len(s.failedEntries),
		Videos:      s.failedEntries,
	})
}

func (s *Store) LoadCursor() Cursor {
	return s.cursor
}

// SaveCursor persists a new scan offset. Attempts to move the cursor
// backwards are ignored.
func (s *Store) SaveCursor(offset int) error {
	if offset < s.cursor.Offset {
		s.logger.Debug().Int("offset", offset).Int("current", s.cursor.Offset).Msg("ignoring backwards cursor move")
		return nil
	}

	s.cursor = Cursor{
		Offset:         offset,
		LastUpdated:    time.Now().UTC(),
		TotalProcessed: len(s.processedList),
	}

	return s.writeFile(cursorFileName, s.cursor)
}

// loadSet reads one set file, accepting both the structured object
// shape and the legacy bare array.
func (s *Store) loadSet(name string) []string {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.warnLoad(name, err)
		}

		return nil
	}

	var structured setFile
	if err := json.Unmarshal(data, &structured); err == nil {
		return structured.Videos
	}

	var legacy []string

	legacyErr := json.Unmarshal(data, &legacy)
	if legacyErr == nil {
		return legacy
	}

	s.warnLoad(name, legacyErr)

	return nil
}

func (s *Store) loadCursor() Cursor {
	data, err := os.ReadFile(filepath.Join(s.dir, cursorFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			s.warnLoad(cursorFileName, err)
		}

		return Cursor{}
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		s.warnLoad(cursorFileName, err)

		return Cursor{}
	}

	if c.Offset < 0 {
		c.Offset = 0
	}

	return c
}

func (s *Store) warnLoad(name string, err error) {
	s.logger.Warn().Err(err).Str("file", name).Msg("failed to load state file, falling back to empty")
	observability.StateLoadWarnings.WithLabelValues(name).Inc()
}

// writeFile serializes v fully before replacing the previous file, so
// readers never observe a partial write.
func (s *Store) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// normalizeFailedEntry maps one failed-file entry to its fingerprint.
// Entries are either a bare fingerprint (legacy) or a JSON-encoded
// FailedRecord string.
func normalizeFailedEntry(entry string) string {
	trimmed := strings.TrimSpace(entry)
	if !strings.HasPrefix(trimmed, "{") {
		return entry
	}

	var record FailedRecord
	if err := json.Unmarshal([]byte(trimmed), &record); err != nil || record.VideoID == "" {
		return entry
	}

	return record.VideoID
}
