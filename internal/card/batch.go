package card

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadBatch loads card records from a JSON file holding either an
// array of records or a single record object.
func ReadBatch(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cards file %s: %w", path, err)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var single Record
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("failed to parse cards file %s: %w", path, err)
	}
	return []Record{single}, nil
}
