package prompts

import (
	"fmt"
	"strings"
)

// CategoryTags is the fixed editorial tag set the analysis model may pick
// from. Tags outside this list are kept as-is but flagged at review time.
var CategoryTags = []string{
	"ai", "machine-learning", "web", "backend", "frontend", "devops",
	"security", "database", "open-source", "startup", "career",
	"programming-language", "cloud", "mobile", "hardware", "research",
}

// ============================================================================
// Vision Extraction Prompts
// ============================================================================

// VisionSystemPrompt defines the role and rules for screenshot extraction.
const VisionSystemPrompt = `You are a content extraction assistant for social and technical posts. You are given a screenshot of a post from a platform such as X, Threads, Reddit, or LinkedIn. Extract the visible content faithfully.

Rules:
- Transcribe text exactly as shown; do not summarize, translate, or editorialize.
- The author is the display name of the posting account, without the handle.
- Engagement counts may be abbreviated on screen (1.2K, 3M); convert them to plain numbers.
- posted_at is the relative timestamp shown on the post ("2h", "3d", "1w"); copy it verbatim. Use an empty string if no timestamp is visible.
- Omit nothing that is legible; use empty values for anything not visible.`

// VisionUserPrompt asks for the extraction JSON.
const VisionUserPrompt = `Extract the post content from this screenshot. Respond with a single JSON object and no other text:

{
  "title": "post title or first line if the platform has no titles",
  "content": "full body text of the post",
  "author": "author display name",
  "metrics": {"likes": 0, "reposts": 0, "replies": 0, "views": 0},
  "posted_at": "relative time shown on the post, e.g. 2h or 3d"
}`

// ============================================================================
// Analysis Prompts
// ============================================================================

// analysisSystemTemplate defines the role and output contract for content
// analysis and scoring. %[1]s is the translation target language, %[2]s the
// summary language.
const analysisSystemTemplate = `You are an editor for a technology news digest read by %[1]s and %[2]s speaking engineers. You receive the extracted content of one post and produce an editorial digest.

Scoring guide (recommend_score, integer 1-10):
- 9-10: major release, significant research result, or industry-moving news
- 6-8: useful tool, solid write-up, or notable discussion
- 3-5: niche interest or thin content
- 1-2: promotional, low-effort, or off-topic

Output a single JSON object with exactly these fields:
{
  "summary_oneline": "one sentence in %[2]s, at most 120 characters",
  "summary": "2-4 sentence %[2]s summary",
  "translated_title": "title translated to %[1]s",
  "translated_content": "summary translated to %[1]s",
  "category_tags": ["1 to 3 tags"],
  "recommend_score": 7,
  "score_reason": "one short sentence explaining the score"
}

Prefer tags from: ai, machine-learning, web, backend, frontend, devops, security, database, open-source, startup, career, programming-language, cloud, mobile, hardware, research.`

// AnalysisSystem renders the analysis system prompt for a language pair given
// as ISO 639-1 codes. Codes without a known name are used verbatim.
func AnalysisSystem(primary, secondary string) string {
	return fmt.Sprintf(analysisSystemTemplate, languageName(primary), languageName(secondary))
}

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// AnalysisUserPrompt is the template body for one analysis request. Caller
// appends the platform, title, author, and content.
const AnalysisUserPrompt = `Analyze the following post and respond with the digest JSON only.

`
