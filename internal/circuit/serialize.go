package circuit

import (
	"encoding/json"
	"fmt"
)

// Serialize encodes one or more circuits as the JSON array string carried
// in the job submission payload.
func Serialize(circuits ...*Circuit) (string, error) {
	if len(circuits) == 0 {
		return "", fmt.Errorf("no circuits to serialize")
	}
	for i, c := range circuits {
		if err := c.Validate(); err != nil {
			return "", fmt.Errorf("circuit %d: %w", i, err)
		}
	}

	data, err := json.Marshal(circuits)
	if err != nil {
		return "", fmt.Errorf("failed to marshal circuits: %w", err)
	}
	return string(data), nil
}

// Deserialize decodes a JSON array string back into circuits.
func Deserialize(serialized string) ([]*Circuit, error) {
	var circuits []*Circuit
	if err := json.Unmarshal([]byte(serialized), &circuits); err != nil {
		return nil, fmt.Errorf("failed to unmarshal circuits: %w", err)
	}
	for i, c := range circuits {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
	}
	return circuits, nil
}
