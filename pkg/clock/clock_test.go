package clock

import (
	"testing"
	"time"
)

func TestMock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewMock(start)

	if !m.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, m.Now())
	}

	m.Advance(90 * time.Minute)
	if want := start.Add(90 * time.Minute); !m.Now().Equal(want) {
		t.Errorf("expected %v after advance, got %v", want, m.Now())
	}

	later := start.Add(24 * time.Hour)
	m.Set(later)
	if !m.Now().Equal(later) {
		t.Errorf("expected %v after set, got %v", later, m.Now())
	}
}

func TestReal_IsUTC(t *testing.T) {
	now := Real().Now()
	if now.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", now.Location())
	}
	if now.Nanosecond()%1000 != 0 {
		t.Errorf("expected microsecond precision, got %d ns", now.Nanosecond())
	}
}
