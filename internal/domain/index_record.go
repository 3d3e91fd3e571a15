package domain

import (
	"encoding/json"
	"fmt"
)

// indexRecord is the persisted layout of the active index: {"index": n}.
type indexRecord struct {
	Index *int `json:"index"`
}

// EncodeIndex renders the persisted record for index.
func EncodeIndex(index int) ([]byte, error) {
	if index < FirstIndex {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return json.Marshal(indexRecord{Index: &index})
}

// DecodeIndex parses a persisted record. Anything but a positive integer
// index is reported as ErrIndexCorrupt.
func DecodeIndex(data []byte) (int, error) {
	var record indexRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if record.Index == nil {
		return 0, fmt.Errorf("%w: missing index field", ErrIndexCorrupt)
	}
	if *record.Index < FirstIndex {
		return 0, fmt.Errorf("%w: index %d", ErrIndexCorrupt, *record.Index)
	}
	return *record.Index, nil
}
