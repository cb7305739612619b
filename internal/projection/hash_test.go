package projection

import (
	"testing"
	"time"
)

const testUserID = "11111111-1111-1111-1111-111111111111"

func TestFingerprint_Golden(t *testing.T) {
	got, err := Fingerprint(Input{UserID: testUserID})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if got != "9f140167" {
		t.Fatalf("Fingerprint = %s, want 9f140167", got)
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	got, err = Fingerprint(Input{UserID: testUserID, TimeRange: &TimeRange{From: &from, To: &to}})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if got != "6cdfe15a" {
		t.Fatalf("Fingerprint with range = %s, want 6cdfe15a", got)
	}
}

func TestFingerprint_IgnoresExtraAndTracksFields(t *testing.T) {
	base, _ := Fingerprint(Input{UserID: testUserID})
	withExtra, _ := Fingerprint(Input{UserID: testUserID, Extra: map[string]any{"domain": "IDENTITY_MODEL"}})
	if base != withExtra {
		t.Fatalf("Extra must not change the fingerprint: %s vs %s", base, withExtra)
	}

	sid := "22222222-2222-2222-2222-222222222222"
	withSession, _ := Fingerprint(Input{UserID: testUserID, SessionID: &sid})
	if withSession == base {
		t.Fatalf("sessionId must change the fingerprint")
	}

	// Same instant in another zone serializes identically.
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)
	zone := time.FixedZone("X", 3*3600)
	a, _ := Fingerprint(Input{UserID: testUserID, TimeRange: &TimeRange{From: &from, To: &to}})
	fromZ, toZ := from.In(zone), to.In(zone)
	b, _ := Fingerprint(Input{UserID: testUserID, TimeRange: &TimeRange{From: &fromZ, To: &toZ}})
	if a != b {
		t.Fatalf("zone must not change the fingerprint: %s vs %s", a, b)
	}
}

func TestStableStringify_SortsNestedKeys(t *testing.T) {
	got, err := stableStringify(map[string]any{
		"b": 1,
		"a": map[string]any{"z": "<x>", "y": []any{true, nil}},
	})
	if err != nil {
		t.Fatalf("stableStringify: %v", err)
	}
	want := `{"a":{"y":[true,null],"z":"<x>"},"b":1}`
	if got != want {
		t.Fatalf("stableStringify = %s, want %s", got, want)
	}
}
