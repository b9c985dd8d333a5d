package domain

import "time"

// ContentItem is a published editorial entity derived from an ingestion
// record. It keeps the original platform identity for traceability but the
// pair is not enforced unique at this layer.
type ContentItem struct {
	ID                string      `gorm:"type:text;primaryKey" json:"id"`
	Slug              string      `gorm:"type:text;not null;uniqueIndex:idx_contents_slug" json:"slug"`
	Type              ContentType `gorm:"type:text;index:idx_contents_type" json:"type"`
	Platform          Platform    `gorm:"type:text;index:idx_contents_source" json:"platform"`
	PlatformID        string      `gorm:"type:text;index:idx_contents_source" json:"platform_id"`
	Title             string      `gorm:"type:text;not null" json:"title"`
	Body              string      `gorm:"type:text" json:"body"`
	SecondaryTitle    string      `gorm:"type:text" json:"secondary_title,omitempty"`
	SecondaryBody     string      `gorm:"type:text" json:"secondary_body,omitempty"`
	Author            string      `gorm:"type:text" json:"author,omitempty"`
	SummaryOneline    string      `gorm:"type:text" json:"summary_oneline,omitempty"`
	CategoryTags      StringArray `gorm:"type:text" json:"category_tags"`
	RecommendScore    int         `json:"recommend_score"`
	ScreenshotURL     string      `gorm:"type:text" json:"screenshot_url,omitempty"`
	ViewCount         int64       `gorm:"default:0" json:"view_count"`
	SourcePublishedAt *time.Time  `json:"source_published_at,omitempty"`
	PublishedAt       time.Time   `json:"published_at"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// TableName returns the database table name for ContentItem.
func (ContentItem) TableName() string {
	return "content_items"
}
