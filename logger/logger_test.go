package logger

import "testing"

func TestSanitizeKVsRedactsApplicantKeys(t *testing.T) {
	t.Parallel()

	got := sanitizeKVs([]interface{}{
		"applicant_name", "Ada Obi",
		"passportNumber", "A1234567",
		"model", "gemini-2.5-pro",
		"status", 200,
	})

	want := []interface{}{
		"applicant_name", "[REDACTED]",
		"passportNumber", "[REDACTED]",
		"model", "gemini-2.5-pro",
		"status", 200,
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected length: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kv[%d]: got=%v want=%v", i, got[i], want[i])
		}
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	t.Parallel()

	got := sanitizeKVs([]interface{}{"request_id", "abc", "orphan"})
	if len(got) != 3 || got[2] != "orphan" {
		t.Fatalf("unexpected output: %v", got)
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	t.Parallel()

	log := Nop().With("service", "test")
	log.Info("hello", "name", "Ada")
	log.Warn("warn")
	log.Error("error", "err", "boom")
}
