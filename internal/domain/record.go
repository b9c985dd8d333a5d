package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RecordStatus represents the processing status of an ingestion record.
// Values include RecordStatusPending, RecordStatusProcessing,
// RecordStatusFailed, RecordStatusReady, and RecordStatusPublished.
type RecordStatus string

const (
	RecordStatusPending    RecordStatus = "pending_analysis"
	RecordStatusProcessing RecordStatus = "processing"
	// RecordStatusFailed is a quarantine set by an operator, never by the
	// pipeline; automatic failures return to pending. Quarantined records
	// are re-run individually by ID.
	RecordStatusFailed    RecordStatus = "analysis_failed"
	RecordStatusReady     RecordStatus = "ready_to_publish"
	RecordStatusPublished RecordStatus = "published"
)

// RawData is the untyped structured payload emitted by a platform crawler.
// It is stored as JSON and only interpreted by the extraction chain.
type RawData map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (d RawData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (d *RawData) Scan(value interface{}) error {
	if value == nil {
		*d = RawData{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan RawData")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, d)
}

// String returns the string value of a raw data field, or "" when the field
// is absent or not a string.
func (d RawData) String(key string) string {
	if d == nil {
		return ""
	}
	s, _ := d[key].(string)
	return s
}

// IngestionRecord is a single crawled post awaiting or undergoing analysis.
// The (platform, platform_id) pair is the natural key; re-crawling the same
// post never creates a duplicate row.
type IngestionRecord struct {
	ID                 string        `gorm:"type:text;primaryKey" json:"id"`
	Platform           Platform      `gorm:"type:text;not null;index:idx_records_source,unique;index:idx_records_platform" json:"platform"`
	PlatformID         string        `gorm:"type:text;not null;index:idx_records_source,unique" json:"platform_id"`
	RawData            RawData       `gorm:"type:text" json:"raw_data"`
	ScreenshotKey      string        `gorm:"type:text" json:"screenshot_key,omitempty"`
	TranscriptSourceID string        `gorm:"type:text" json:"transcript_source_id,omitempty"`
	Status             RecordStatus  `gorm:"type:text;index:idx_records_status;default:pending_analysis" json:"status"`
	Digest             *DigestResult `gorm:"type:text" json:"digest_result,omitempty"`
	Title              string        `gorm:"type:text" json:"title,omitempty"`
	Content            string        `gorm:"type:text" json:"content,omitempty"`
	TranslatedTitle    string        `gorm:"type:text" json:"translated_title,omitempty"`
	TranslatedContent  string        `gorm:"type:text" json:"translated_content,omitempty"`
	ErrorNote          string        `gorm:"type:text" json:"error_note,omitempty"`
	CrawledAt          time.Time     `json:"crawled_at"`
	PublishedAt        *time.Time    `json:"published_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// TableName returns the database table name for IngestionRecord.
func (IngestionRecord) TableName() string {
	return "ingestion_records"
}
