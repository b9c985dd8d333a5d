package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// DigestResult is the validated analysis output attached to a record once
// analysis succeeds. It is never persisted partially: either every required
// field passed validation or the record carries no digest at all.
type DigestResult struct {
	SummaryOneline    string      `json:"summary_oneline"`
	Summary           string      `json:"summary"`
	TranslatedTitle   string      `json:"translated_title"`
	TranslatedContent string      `json:"translated_content"`
	CategoryTags      StringArray `json:"category_tags"`
	RecommendScore    int         `json:"recommend_score"`
	ScoreReason       string      `json:"score_reason"`
	Model             string      `json:"model,omitempty"`
}

// Value implements the driver.Valuer interface for database serialization.
func (d DigestResult) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (d *DigestResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan DigestResult")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, d)
}

// StringArray is a custom type for storing string slices as JSON in the
// database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}
