package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/minho/pressroom/internal/domain"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "fence without language",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose around object",
			input: "Here is the digest you asked for:\n{\"a\": 1}\nLet me know if you need anything else.",
			want:  `{"a": 1}`,
		},
		{
			name:  "braces inside string values",
			input: `{"summary": "uses {braces} and \"quotes\" inside"}`,
			want:  `{"summary": "uses {braces} and \"quotes\" inside"}`,
		},
		{
			name:  "nested objects",
			input: `result: {"a": {"b": {"c": 1}}} trailing`,
			want:  `{"a": {"b": {"c": 1}}}`,
		},
		{
			name:    "no object",
			input:   "I could not analyze this content.",
			wantErr: true,
		},
		{
			name:    "unterminated object",
			input:   `{"a": 1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			// The extracted slice must itself be valid JSON
			var v interface{}
			if err := json.Unmarshal([]byte(got), &v); err != nil {
				t.Errorf("extracted JSON does not parse: %v", err)
			}
		})
	}
}

func validTestDigest() *domain.DigestResult {
	return &domain.DigestResult{
		SummaryOneline:    "A fast data pipeline library for Go",
		Summary:           "Longer summary.",
		TranslatedTitle:   "번역된 제목",
		TranslatedContent: "번역된 내용",
		CategoryTags:      domain.StringArray{"open-source"},
		RecommendScore:    7,
		ScoreReason:       "Solid tool with real adoption",
	}
}

func TestValidateDigest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.DigestResult)
		wantErr bool
	}{
		{name: "valid", mutate: func(d *domain.DigestResult) {}},
		{name: "missing oneline", mutate: func(d *domain.DigestResult) { d.SummaryOneline = " " }, wantErr: true},
		{name: "missing translated title", mutate: func(d *domain.DigestResult) { d.TranslatedTitle = "" }, wantErr: true},
		{name: "missing translated content", mutate: func(d *domain.DigestResult) { d.TranslatedContent = "" }, wantErr: true},
		{name: "missing score reason", mutate: func(d *domain.DigestResult) { d.ScoreReason = "" }, wantErr: true},
		{name: "score too low", mutate: func(d *domain.DigestResult) { d.RecommendScore = 0 }, wantErr: true},
		{name: "score too high", mutate: func(d *domain.DigestResult) { d.RecommendScore = 11 }, wantErr: true},
		{name: "score boundary low", mutate: func(d *domain.DigestResult) { d.RecommendScore = 1 }},
		{name: "score boundary high", mutate: func(d *domain.DigestResult) { d.RecommendScore = 10 }},
		{name: "missing tags", mutate: func(d *domain.DigestResult) { d.CategoryTags = nil }, wantErr: true},
		{name: "empty tag slice", mutate: func(d *domain.DigestResult) { d.CategoryTags = domain.StringArray{} }, wantErr: true},
		{name: "empty summary allowed", mutate: func(d *domain.DigestResult) { d.Summary = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validTestDigest()
			tt.mutate(d)
			err := validateDigest(d)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestClassifyAIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{name: "http 429", err: &APIStatusError{Status: 429, Message: "slow down"}, want: ErrorClassRateLimited},
		{name: "http 500", err: &APIStatusError{Status: 500, Message: "oops"}, want: ErrorClassGeneric},
		{name: "rate limit wording", err: errString("provider rate limit reached"), want: ErrorClassRateLimited},
		{name: "quota wording", err: errString("insufficient quota"), want: ErrorClassRateLimited},
		{name: "plain failure", err: errString("connection refused"), want: ErrorClassGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyAIError(tt.err); got != tt.want {
				t.Errorf("expected class %v, got %v", tt.want, got)
			}
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestDigestParsesFromExtractedJSON(t *testing.T) {
	raw := "```json\n" + `{
		"summary_oneline": "One line",
		"summary": "Longer",
		"translated_title": "제목",
		"translated_content": "내용",
		"category_tags": ["ai", "research"],
		"recommend_score": 8,
		"score_reason": "why"
	}` + "\n```"

	jsonStr, err := extractJSONObject(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var d domain.DigestResult
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if err := validateDigest(&d); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if d.RecommendScore != 8 || len(d.CategoryTags) != 2 {
		t.Errorf("unexpected digest: %+v", d)
	}
	if !strings.Contains(d.TranslatedTitle, "제목") {
		t.Errorf("unexpected translated title: %q", d.TranslatedTitle)
	}
}
