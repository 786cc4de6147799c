package utils

import (
	"context"
	"testing"
	"time"
)

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" 45.50 ")
	if err != nil {
		t.Fatalf("ParseDecimal error: %v", err)
	}
	if d.String() != "45.5" {
		t.Fatalf("expected 45.5, got %s", d.String())
	}

	if _, err := ParseDecimal(""); err == nil {
		t.Fatal("expected an error for empty input")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Fatal("expected an error for non-numeric input")
	}
}

func TestGetThisMonthRange(t *testing.T) {
	start, end := GetThisMonthRange()
	now := time.Now()

	if start.Day() != 1 || start.Month() != now.Month() || start.Year() != now.Year() {
		t.Fatalf("unexpected start: %s", start)
	}
	if end.Before(now.Add(-32 * 24 * time.Hour)) {
		t.Fatalf("unexpected end: %s", end)
	}
	if end.Month() != now.Month() {
		t.Fatalf("end should stay in the current month, got %s", end)
	}
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Fatalf("expected end-of-day end, got %s", end)
	}
}

func TestObtainUserLock_NoRedisIsNoop(t *testing.T) {
	// Without REDIS_ADDRESS the locker is nil; the lock degrades to a no-op
	// release instead of failing.
	release, err := ObtainUserLock(context.Background(), "import-category", "user-1")
	if err != nil {
		t.Fatalf("ObtainUserLock error: %v", err)
	}
	release()
}
