package domain

import (
	"encoding/json"
	"testing"
)

func TestRankingObservation_UnmarshalScalars(t *testing.T) {
	var obs RankingObservation
	if err := json.Unmarshal([]byte(`{"daily": 4, "weekly": 2, "monthly": 9}`), &obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Daily == nil || *obs.Daily != 4 {
		t.Errorf("unexpected daily: %v", obs.Daily)
	}
	if obs.Weekly == nil || *obs.Weekly != 2 {
		t.Errorf("unexpected weekly: %v", obs.Weekly)
	}
	if obs.Monthly == nil || *obs.Monthly != 9 {
		t.Errorf("unexpected monthly: %v", obs.Monthly)
	}
}

func TestRankingObservation_UnmarshalLanguages(t *testing.T) {
	var obs RankingObservation
	input := `{"daily": 1, "python": {"daily": 3, "weekly": 5}, "go": {"monthly": 2}}`
	if err := json.Unmarshal([]byte(input), &obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	py, ok := obs.Languages["python"]
	if !ok {
		t.Fatal("expected python language observation")
	}
	if py.Daily == nil || *py.Daily != 3 || py.Weekly == nil || *py.Weekly != 5 {
		t.Errorf("unexpected python observation: %+v", py)
	}
	if obs.Languages["go"].Monthly == nil || *obs.Languages["go"].Monthly != 2 {
		t.Errorf("unexpected go observation: %+v", obs.Languages["go"])
	}
}

func TestRankingObservation_UnmarshalRejections(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "daily_history direct", input: `{"daily_history": [{"rank": 1, "date": "2026-08-31"}]}`},
		{name: "nested languages", input: `{"python": {"daily": 1, "ruby": {"daily": 2}}}`},
		{name: "scalar language value", input: `{"python": 5}`},
		{name: "non-numeric daily", input: `{"daily": "first"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var obs RankingObservation
			if err := json.Unmarshal([]byte(tt.input), &obs); err == nil {
				t.Errorf("expected error for %s", tt.input)
			}
		})
	}
}

func TestRankingObservation_EmptyObject(t *testing.T) {
	var obs RankingObservation
	if err := json.Unmarshal([]byte(`{}`), &obs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Daily != nil || obs.Weekly != nil || obs.Monthly != nil || obs.Languages != nil {
		t.Errorf("expected empty observation, got %+v", obs)
	}
}

func TestRankingRecord_JSONRoundTrip(t *testing.T) {
	weekly := 3
	rec := RankingRecord{
		Weekly:       &weekly,
		DailyHistory: []RankEntry{{Rank: 1, Date: "2026-08-31"}},
		Languages: map[string]*RankingRecord{
			"python": {DailyHistory: []RankEntry{{Rank: 2, Date: "2026-08-31"}}},
		},
	}

	val, err := rec.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded RankingRecord
	if err := decoded.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if decoded.Weekly == nil || *decoded.Weekly != 3 {
		t.Errorf("unexpected weekly: %v", decoded.Weekly)
	}
	if len(decoded.DailyHistory) != 1 || decoded.DailyHistory[0].Rank != 1 {
		t.Errorf("unexpected history: %+v", decoded.DailyHistory)
	}
	if decoded.Languages["python"] == nil || len(decoded.Languages["python"].DailyHistory) != 1 {
		t.Errorf("unexpected languages: %+v", decoded.Languages)
	}
}
