package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DailyHistoryCap bounds the rolling daily rank history per record.
const DailyHistoryCap = 365

// RankEntry is one observed daily rank. Date is a calendar date in
// YYYY-MM-DD form and is unique within a history list.
type RankEntry struct {
	Rank int    `json:"rank"`
	Date string `json:"date"`
}

// RankingRecord accumulates rank observations for one content item. Weekly
// and monthly ranks are latest-value overwrites; the daily history is a
// bounded insertion-ordered list with one entry per calendar date. Languages
// maps a language code to a nested record of the same shape, one level deep.
type RankingRecord struct {
	Weekly       *int                      `json:"weekly,omitempty"`
	Monthly      *int                      `json:"monthly,omitempty"`
	DailyHistory []RankEntry               `json:"daily_history,omitempty"`
	Languages    map[string]*RankingRecord `json:"languages,omitempty"`
}

// Value implements the driver.Valuer interface for database serialization.
func (r RankingRecord) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (r *RankingRecord) Scan(value interface{}) error {
	if value == nil {
		*r = RankingRecord{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan RankingRecord")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, r)
}

// RankingObservation is an incoming partial ranking update. Daily carries a
// bare rank for the observation date; Weekly and Monthly overwrite the stored
// values; Languages holds per-language sub-observations one level deep.
type RankingObservation struct {
	Daily     *int
	Weekly    *int
	Monthly   *int
	Languages map[string]RankingObservation
}

// UnmarshalJSON decodes the wire form of an observation, where language codes
// appear as arbitrary object-valued keys next to the fixed scalar fields,
// e.g. {"daily": 4, "python": {"weekly": 3}}. The derived daily_history field
// is rejected as a direct key.
func (o *RankingObservation) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = RankingObservation{}
	for key, val := range raw {
		switch key {
		case "daily", "weekly", "monthly":
			var rank int
			if err := json.Unmarshal(val, &rank); err != nil {
				return fmt.Errorf("ranking field %q: %w", key, err)
			}
			switch key {
			case "daily":
				o.Daily = &rank
			case "weekly":
				o.Weekly = &rank
			case "monthly":
				o.Monthly = &rank
			}
		case "daily_history":
			return errors.New("daily_history is derived and cannot be set directly")
		default:
			if len(val) == 0 || val[0] != '{' {
				return fmt.Errorf("ranking field %q: expected language object", key)
			}
			var sub RankingObservation
			if err := json.Unmarshal(val, &sub); err != nil {
				return fmt.Errorf("language %q: %w", key, err)
			}
			if len(sub.Languages) > 0 {
				return fmt.Errorf("language %q: nested language observations are not allowed", key)
			}
			if o.Languages == nil {
				o.Languages = make(map[string]RankingObservation)
			}
			o.Languages[key] = sub
		}
	}
	return nil
}

// ContentRanking is the persisted ranking state for one content item.
type ContentRanking struct {
	ContentID string        `gorm:"type:text;primaryKey" json:"content_id"`
	Ranking   RankingRecord `gorm:"type:text" json:"ranking"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName returns the database table name for ContentRanking.
func (ContentRanking) TableName() string {
	return "content_rankings"
}
