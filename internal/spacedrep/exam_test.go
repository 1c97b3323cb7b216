package spacedrep

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeExams struct {
	date *time.Time
	err  error
}

func (f fakeExams) LatestExamDate(context.Context, string) (*time.Time, error) {
	return f.date, f.err
}

func almostEqual(a, b float64) bool {
	const epsilon = 1e-9
	d := a - b
	return d < epsilon && d > -epsilon
}

func TestDaysUntil(t *testing.T) {
	now := date(2024, 5, 1, 0, 0)
	if _, ok := DaysUntil(nil, now); ok {
		t.Error("nil date should not be ok")
	}
	past := now.Add(-time.Hour)
	if _, ok := DaysUntil(&past, now); ok {
		t.Error("past date should not be ok")
	}
	future := now.Add(36 * time.Hour)
	days, ok := DaysUntil(&future, now)
	if !ok || !almostEqual(days, 1.5) {
		t.Errorf("DaysUntil = %v, %v; want 1.5, true", days, ok)
	}
}

func TestExamDateService(t *testing.T) {
	now := date(2024, 5, 1, 0, 0)
	exam := date(2024, 5, 11, 0, 0)
	svc := NewExamDateService(fakeExams{date: &exam}, func() time.Time { return now })

	days, ok, err := svc.DaysUntilExam(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DaysUntilExam: %v", err)
	}
	if !ok || !almostEqual(days, 10) {
		t.Errorf("DaysUntilExam = %v, %v; want 10, true", days, ok)
	}
}

func TestExamDateService_StoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewExamDateService(fakeExams{err: boom}, nil)
	if _, _, err := svc.DaysUntilExam(context.Background(), "u1"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestCompress(t *testing.T) {
	u := DefaultUrgency()
	tests := []struct {
		name     string
		interval float64
		days     float64
		hasExam  bool
		want     float64
	}{
		{"no exam", 14, 0, false, 14},
		{"beyond horizon", 14, 90, true, 14},
		{"half horizon", 14, 30, true, 7},
		{"min factor", 30, 3, true, 3},
		{"capped at exam", 30, 1, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := u.Compress(tt.interval, tt.days, tt.hasExam)
			if !almostEqual(got, tt.want) {
				t.Errorf("Compress(%v, %v) = %v, want %v", tt.interval, tt.days, got, tt.want)
			}
		})
	}
}

func TestCompress_NeverLengthens(t *testing.T) {
	u := DefaultUrgency()
	for days := 0.5; days < 120; days += 3.5 {
		for _, interval := range []float64{0.5, 1, 7, 30} {
			if got := u.Compress(interval, days, true); got > interval || got > days {
				t.Errorf("Compress(%v, %v) = %v", interval, days, got)
			}
		}
	}
}
