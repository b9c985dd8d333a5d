package domain

// Platform identifies the external source a record was crawled from.
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformGitHub     Platform = "github"
	PlatformTrendshift Platform = "trendshift"
	PlatformX          Platform = "x"
	PlatformThreads    Platform = "threads"
	PlatformReddit     Platform = "reddit"
	PlatformLinkedIn   Platform = "linkedin"
)

// IsVideo reports whether the platform carries video content with transcripts.
func (p Platform) IsVideo() bool {
	return p == PlatformYouTube
}

// ContentType is the editorial type of a published content item.
type ContentType string

const (
	ContentTypeVideo      ContentType = "video"
	ContentTypeOpenSource ContentType = "open-source"
	ContentTypeXThread    ContentType = "x-thread"
	ContentTypeThreads    ContentType = "threads"
	ContentTypeReddit     ContentType = "reddit"
	ContentTypeLinkedIn   ContentType = "linkedin"
	ContentTypeArticle    ContentType = "article"
)

// platformContentTypes maps a source platform to the published content type.
// Platforms without an entry publish as the generic article type.
var platformContentTypes = map[Platform]ContentType{
	PlatformYouTube:    ContentTypeVideo,
	PlatformGitHub:     ContentTypeOpenSource,
	PlatformTrendshift: ContentTypeOpenSource,
	PlatformX:          ContentTypeXThread,
	PlatformThreads:    ContentTypeThreads,
	PlatformReddit:     ContentTypeReddit,
	PlatformLinkedIn:   ContentTypeLinkedIn,
}

// ContentTypeFor returns the published content type for a platform.
// Parameters:
//   - p: source platform.
//
// Returns:
//   - ContentType: mapped type, or ContentTypeArticle for unmapped platforms.
func ContentTypeFor(p Platform) ContentType {
	if t, ok := platformContentTypes[p]; ok {
		return t
	}
	return ContentTypeArticle
}
