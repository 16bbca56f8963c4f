package keywords

import "testing"

func TestParseResult(t *testing.T) {
	result, err := parseResult(`{"matched":["security"],"details":{"security":"discusses a CVE fix"}}`)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matched) != 1 || result.Matched[0] != "security" {
		t.Errorf("unexpected matched set: %+v", result.Matched)
	}
	if result.Details["security"] != "discusses a CVE fix" {
		t.Errorf("unexpected details: %+v", result.Details)
	}
}

func TestParseResultWithSurroundingText(t *testing.T) {
	result, err := parseResult("Here is the result:\n{\"matched\":[\"perf\"]}\nDone.")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matched) != 1 || result.Matched[0] != "perf" {
		t.Errorf("unexpected matched set: %+v", result.Matched)
	}
}

func TestParseResultRejectsGarbage(t *testing.T) {
	if _, err := parseResult("not json at all"); err == nil {
		t.Error("expected parse error for non-JSON response")
	}
}

func TestRestrictToRequestedKeywords(t *testing.T) {
	result := Result{
		Matched: []string{"security", "made-up"},
		Details: map[string]string{"security": "ok", "made-up": "hallucinated"},
	}

	got := restrictTo(result, []string{"security", "perf"})
	if len(got.Matched) != 1 || got.Matched[0] != "security" {
		t.Errorf("expected only requested keywords, got %+v", got.Matched)
	}
	if _, ok := got.Details["made-up"]; ok {
		t.Error("details for unrequested keywords should be dropped")
	}
}
