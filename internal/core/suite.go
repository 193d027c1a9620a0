package core

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// SuiteEntry is one row of an uploaded suite file: a rule to execute for a
// given transaction id, and the result the rule engine is expected to return.
type SuiteEntry struct {
	RuleName       string          `json:"rule_name"`
	XID            string          `json:"xid"`
	ExpectedResult bool            `json:"expected_result"`
	JSONContext    json.RawMessage `json:"json_context,omitempty"`
}

// Suite is an ordered batch of rule executions with expected results.
// Suites carry no rule association of their own; each entry names its rule.
type Suite struct {
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name"`
	Environment string       `json:"environment"`
	SourceFile  string       `json:"source_file,omitempty"`
	Entries     []SuiteEntry `json:"entries"`
	Status      Status       `json:"status"`
	CreatedBy   string       `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
}

func (s *Suite) Kind() ItemKind   { return KindSuite }
func (s *Suite) ItemID() string   { return s.ID }
func (s *Suite) ItemName() string { return s.Name }
func (s *Suite) Env() string      { return s.Environment }

// Validate checks the fields required before persisting.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return errors.New("suite name cannot be empty")
	}
	if len(s.Entries) == 0 {
		return errors.New("suite has no entries")
	}
	return nil
}

// Clone returns a deep copy including all entries.
func (s *Suite) Clone() *Suite {
	clone := *s
	clone.Entries = make([]SuiteEntry, len(s.Entries))
	for i, e := range s.Entries {
		clone.Entries[i] = e
		if e.JSONContext != nil {
			clone.Entries[i].JSONContext = make(json.RawMessage, len(e.JSONContext))
			copy(clone.Entries[i].JSONContext, e.JSONContext)
		}
	}
	return &clone
}

// ParseSuiteEntries reads suite entries from a delimited file of the form
//
//	rule_name,xid,expected_result[,json_context]
//
// A header row is skipped when its first column is literally "rule_name".
// Rows with too few columns or an unparseable expected_result are rejected
// with the offending line number.
func ParseSuiteEntries(r io.Reader) ([]SuiteEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var entries []SuiteEntry
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read suite file: %w", err)
		}
		line++

		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "rule_name") {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("suite file line %d: expected at least 3 columns, got %d", line, len(record))
		}

		expected, err := strconv.ParseBool(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("suite file line %d: bad expected_result %q", line, record[2])
		}

		entry := SuiteEntry{
			RuleName:       strings.TrimSpace(record[0]),
			XID:            strings.TrimSpace(record[1]),
			ExpectedResult: expected,
		}
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			ctx := strings.TrimSpace(record[3])
			if !json.Valid([]byte(ctx)) {
				return nil, fmt.Errorf("suite file line %d: json_context is not valid JSON", line)
			}
			entry.JSONContext = json.RawMessage(ctx)
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, errors.New("suite file contains no entries")
	}
	return entries, nil
}
