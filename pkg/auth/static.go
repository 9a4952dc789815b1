package auth

import (
	"context"
	"strings"

	"github.com/rhuss/einlass/pkg/keystore"
)

// StaticTable is a read-only RecordSource built once from configuration.
// It shares the lookup contract with the keystore backends but supports
// no mutation.
type StaticTable struct {
	records map[string]*keystore.Record
}

// Ensure StaticTable implements RecordSource at compile time.
var _ RecordSource = (*StaticTable)(nil)

// NewStaticTable builds a table from explicit records. Scope sets are
// normalized; a later record with the same key id replaces an earlier one.
func NewStaticTable(records []keystore.Record) *StaticTable {
	t := &StaticTable{records: make(map[string]*keystore.Record, len(records))}
	for _, rec := range records {
		r := rec
		r.Scopes = keystore.NormalizeScopes(rec.Scopes)
		t.records[r.KeyID] = &r
	}
	return t
}

// BuildStaticTable applies the configured precedence: a non-empty record
// list wins outright, and only when it is empty is the legacy
// comma-joined "key_id:secret" string parsed. The two sources are never
// merged. Legacy records receive the given default scopes.
func BuildStaticTable(records []keystore.Record, legacy string, legacyScopes ...string) *StaticTable {
	if len(records) > 0 {
		return NewStaticTable(records)
	}
	return NewStaticTable(parseLegacyKeys(legacy, legacyScopes))
}

// Get retrieves a record by key id. The returned record is a copy and
// never aliases table state.
func (t *StaticTable) Get(_ context.Context, keyID string) (*keystore.Record, error) {
	rec, ok := t.records[keyID]
	if !ok {
		return nil, keystore.ErrNotFound
	}
	out := *rec
	out.Scopes = append([]string(nil), rec.Scopes...)
	return &out, nil
}

// Len returns the number of provisioned records.
func (t *StaticTable) Len() int {
	return len(t.records)
}

// parseLegacyKeys parses the bootstrap "id:secret,id2:secret2" format.
// Items without a delimiter are skipped; ids and secrets are trimmed and
// each secret is hashed on the spot.
func parseLegacyKeys(raw string, scopes []string) []keystore.Record {
	var records []keystore.Record
	for _, item := range strings.Split(raw, ",") {
		token := strings.TrimSpace(item)
		if token == "" || !strings.Contains(token, ":") {
			continue
		}
		parts := strings.SplitN(token, ":", 2)
		records = append(records, keystore.Record{
			KeyID:      strings.TrimSpace(parts[0]),
			SecretHash: keystore.HashSecret(strings.TrimSpace(parts[1])),
			Scopes:     scopes,
		})
	}
	return records
}
