// Package ledger implements the persistent expense ledger: a single
// JSON document in the key-value store, loaded whole and rewritten
// whole on every append.
package ledger

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flixpense/expense-ledger-go/internal/domain"
)

// SchemaVersion is the envelope version written by Encode.
const SchemaVersion = 1

// envelope is the on-disk shape of the ledger payload.
type envelope struct {
	Schema  int                    `json:"schema"`
	Records []domain.ExpenseRecord `json:"records"`
}

// legacyRecord is the pre-envelope record shape: a bare JSON array
// whose entries carry UI-oriented field names.
type legacyRecord struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	User     string  `json:"user"`
	Photo    string  `json:"userPhoto"`
}

// Encode serializes records into the versioned envelope. An empty or
// nil slice encodes to an envelope with an empty records array.
func Encode(records []domain.ExpenseRecord) (string, error) {
	if records == nil {
		records = []domain.ExpenseRecord{}
	}
	data, err := json.Marshal(envelope{Schema: SchemaVersion, Records: records})
	if err != nil {
		return "", fmt.Errorf("encode ledger: %w", err)
	}
	return string(data), nil
}

// Decode parses a stored ledger payload. It accepts the current
// envelope and the legacy bare-array form, migrating the latter in
// place. migrated reports whether a legacy payload was seen, so the
// caller can rewrite it in the current shape.
func Decode(payload string) (records []domain.ExpenseRecord, migrated bool, err error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return []domain.ExpenseRecord{}, false, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		legacy, err := decodeLegacy(trimmed)
		if err != nil {
			return nil, false, err
		}
		return legacy, true, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, false, fmt.Errorf("decode ledger: %w", err)
	}
	if env.Schema != SchemaVersion {
		return nil, false, fmt.Errorf("decode ledger: unsupported schema %d", env.Schema)
	}
	if env.Records == nil {
		env.Records = []domain.ExpenseRecord{}
	}
	return env.Records, false, nil
}

func decodeLegacy(payload string) ([]domain.ExpenseRecord, error) {
	var rows []legacyRecord
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		return nil, fmt.Errorf("decode legacy ledger: %w", err)
	}

	records := make([]domain.ExpenseRecord, 0, len(rows))
	for _, r := range rows {
		// Old payloads wrote the category label to both title and
		// type; trust type when present since title was sometimes
		// user-edited.
		category := r.Type
		if category == "" {
			category = r.Title
		}
		records = append(records, domain.ExpenseRecord{
			ID:         r.ID,
			Category:   category,
			Note:       r.Subtitle,
			Amount:     r.Amount,
			Date:       r.Date,
			Owner:      r.User,
			OwnerPhoto: r.Photo,
		})
	}
	return records, nil
}
