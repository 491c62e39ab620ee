package patient

import (
	"fmt"
	"sort"
	"strings"
)

// OrderPolicy decides what ingestion does with a history that is not
// newest-first.
type OrderPolicy string

const (
	// OrderStrict rejects the whole batch.
	OrderStrict OrderPolicy = "strict"
	// OrderSort reorders the offending history newest-first.
	OrderSort OrderPolicy = "sort"
)

func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch p := OrderPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case OrderStrict, OrderSort:
		return p, nil
	case "":
		return OrderStrict, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderPolicy, s)
	}
}

// OrderError locates a record whose diagnosis history failed validation.
type OrderError struct {
	Record int
	Name   string
	Entry  int
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("record %d (%s): entry %d: %v", e.Record, e.Name, e.Entry, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// CheckHistoryOrder reports the first entry that breaks newest-first order.
// It returns -1 when the history is ordered.
func CheckHistoryOrder(history []DiagnosisEntry) (int, error) {
	var prev int
	for i, entry := range history {
		year, month, err := entry.Period()
		if err != nil {
			return i, err
		}
		key := year*12 + int(month)
		if i > 0 && key > prev {
			return i, ErrHistoryOrder
		}
		prev = key
	}
	return -1, nil
}

// SortHistory stable-sorts the history newest-first. Every month must parse.
func SortHistory(history []DiagnosisEntry) error {
	keys := make([]int, len(history))
	for i, entry := range history {
		year, month, err := entry.Period()
		if err != nil {
			return err
		}
		keys[i] = year*12 + int(month)
	}
	sort.Stable(byPeriodDesc{history, keys})
	return nil
}

type byPeriodDesc struct {
	entries []DiagnosisEntry
	keys    []int
}

func (b byPeriodDesc) Len() int           { return len(b.entries) }
func (b byPeriodDesc) Less(i, j int) bool { return b.keys[i] > b.keys[j] }
func (b byPeriodDesc) Swap(i, j int) {
	b.entries[i], b.entries[j] = b.entries[j], b.entries[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

// Ingest validates the newest-first invariant across a fetched batch.
// Under OrderSort, histories are reordered in place and the indices of the
// records that needed it are returned.
func Ingest(records []Record, policy OrderPolicy) ([]int, error) {
	var reordered []int
	for i := range records {
		rec := &records[i]
		at, err := CheckHistoryOrder(rec.DiagnosisHistory)
		if err == nil {
			continue
		}
		if policy == OrderSort && err == ErrHistoryOrder {
			if err := SortHistory(rec.DiagnosisHistory); err != nil {
				return nil, &OrderError{Record: i, Name: rec.Name, Entry: at, Err: err}
			}
			reordered = append(reordered, i)
			continue
		}
		return nil, &OrderError{Record: i, Name: rec.Name, Entry: at, Err: err}
	}
	return reordered, nil
}
