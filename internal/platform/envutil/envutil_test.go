package envutil

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("AAOS_TEST_STR", " hello ")
	t.Setenv("AAOS_TEST_INT", "42")
	t.Setenv("AAOS_TEST_BAD_INT", "nope")
	t.Setenv("AAOS_TEST_BOOL", "on")
	t.Setenv("AAOS_TEST_DUR", "90")
	t.Setenv("AAOS_TEST_LIST", "a, ,b")

	if got := String("AAOS_TEST_STR", "x"); got != "hello" {
		t.Fatalf("String: got %q", got)
	}
	if got := String("AAOS_TEST_MISSING", "x"); got != "x" {
		t.Fatalf("String default: got %q", got)
	}
	if got := Int("AAOS_TEST_INT", 1); got != 42 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("AAOS_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if !Bool("AAOS_TEST_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Duration("AAOS_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration: got %s", got)
	}
	got := List("AAOS_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got %v", got)
	}
}
