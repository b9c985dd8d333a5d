package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MetricMap stores one engagement metrics observation as JSON. Values are
// numeric (views, stars, likes, comments and so on).
type MetricMap map[string]float64

// Value implements the driver.Valuer interface for database serialization.
func (m MetricMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *MetricMap) Scan(value interface{}) error {
	if value == nil {
		*m = MetricMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan MetricMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// MetricsSnapshot is one immutable engagement observation for a content item.
// Snapshots form an append-only log; they are never updated after insert.
type MetricsSnapshot struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	ContentID  string    `gorm:"type:text;not null;index:idx_snapshots_content" json:"content_id"`
	Metrics    MetricMap `gorm:"type:text" json:"metrics"`
	RecordedAt time.Time `gorm:"index:idx_snapshots_recorded" json:"recorded_at"`
}

// TableName returns the database table name for MetricsSnapshot.
func (MetricsSnapshot) TableName() string {
	return "metrics_snapshots"
}
