package output

import (
	"bytes"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"smart-scraper/models"
)

const DefaultFilename = "data.json"

type Options struct {
	// SortBy orders records ascending by this key when set.
	SortBy string
	// NoDuplicate collapses structurally equal records.
	NoDuplicate bool
}

type SortKeyError struct {
	Key   string
	Index int
	Msg   string
}

func (e *SortKeyError) Error() string {
	return fmt.Sprintf("cannot sort by %q: record %d %s", e.Key, e.Index, e.Msg)
}

// DuplicateDetector remembers records by the md5 of their canonical JSON.
type DuplicateDetector struct {
	seenHashes map[string]bool
}

func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{seenHashes: make(map[string]bool)}
}

// IsDuplicate reports whether an equal record was seen before and records it otherwise.
func (dd *DuplicateDetector) IsDuplicate(record models.Record) (bool, error) {
	// encoding/json writes map keys sorted, so equal records encode equally
	encoded, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode record: %w", err)
	}
	hash := fmt.Sprintf("%x", md5.Sum(encoded))
	if dd.seenHashes[hash] {
		return true, nil
	}
	dd.seenHashes[hash] = true
	return false, nil
}

// Dedup keeps the first of every group of structurally equal records.
func Dedup(records []models.Record) ([]models.Record, error) {
	detector := NewDuplicateDetector()
	unique := make([]models.Record, 0, len(records))
	for _, record := range records {
		dup, err := detector.IsDuplicate(record)
		if err != nil {
			return nil, err
		}
		if !dup {
			unique = append(unique, record)
		}
	}
	return unique, nil
}

// SortBy returns records ordered ascending by key. Every record must carry the
// key, and the values must be all numbers, all strings or all booleans, with
// false before true.
func SortBy(records []models.Record, key string) ([]models.Record, error) {
	sorted := make([]models.Record, len(records))
	copy(sorted, records)

	kind := ""
	for i, record := range sorted {
		v, ok := record[key]
		if !ok {
			return nil, &SortKeyError{Key: key, Index: i, Msg: "has no such key"}
		}
		k := valueKind(v)
		if k == "" {
			return nil, &SortKeyError{Key: key, Index: i, Msg: fmt.Sprintf("has unsortable value %v (%T)", v, v)}
		}
		if kind != "" && k != kind {
			return nil, &SortKeyError{Key: key, Index: i, Msg: fmt.Sprintf("mixes %s with %s values", k, kind)}
		}
		kind = k
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i][key], sorted[j][key])
	})
	return sorted, nil
}

// Prepare runs the dedup stage before the sort stage.
func Prepare(records []models.Record, opts Options) ([]models.Record, error) {
	var err error
	if opts.NoDuplicate {
		records, err = Dedup(records)
		if err != nil {
			return nil, err
		}
	}
	if opts.SortBy != "" {
		records, err = SortBy(records, opts.SortBy)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// SaveAsJSON writes records to filename as a JSON array, replacing the file.
func SaveAsJSON(records []models.Record, filename string, opts Options) error {
	if filename == "" {
		filename = DefaultFilename
	}

	prepared, err := Prepare(records, opts)
	if err != nil {
		return err
	}
	if prepared == nil {
		prepared = []models.Record{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(prepared); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// LoadJSON reads a file written by SaveAsJSON. Numbers come back as json.Number.
func LoadJSON(filename string) ([]models.Record, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var records []models.Record
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return records, nil
}

func valueKind(v any) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	return ""
}

func less(a, b any) bool {
	switch va := a.(type) {
	case string:
		return strings.Compare(va, b.(string)) < 0
	case bool:
		return !va && b.(bool)
	}
	return toFloat(a) < toFloat(b)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}
