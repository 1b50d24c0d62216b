package selection

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"voicetask/internal/domain"
)

//go:embed roster.json
var rosterJSON []byte

// DefaultRoster returns the built-in assignee directory.
func DefaultRoster() []domain.Assignee {
	roster, err := parseRoster(rosterJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded roster is invalid: %v", err))
	}
	return roster
}

func parseRoster(data []byte) ([]domain.Assignee, error) {
	var roster []domain.Assignee
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
