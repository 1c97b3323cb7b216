package spacedrep

import (
	"sort"
	"time"

	"github.com/abhisek/prepcoach/internal/mastery"
)

// Scheduler turns a mastery tree into review entries.
type Scheduler struct {
	policy  IntervalPolicy
	urgency Urgency
}

// NewScheduler creates a Scheduler. A nil policy uses DefaultLadder.
func NewScheduler(policy IntervalPolicy, urgency Urgency) *Scheduler {
	if policy == nil {
		policy = DefaultLadder()
	}
	return &Scheduler{policy: policy, urgency: urgency}
}

// IntervalFor returns the exam-adjusted interval for a mastery score.
func (s *Scheduler) IntervalFor(masteryScore, daysUntilExam float64, hasExam bool) float64 {
	days, _ := SanitizeInterval(s.policy.IntervalDays(masteryScore))
	return s.urgency.Compress(days, daysUntilExam, hasExam)
}

// Plan schedules one entry per practiced subtopic in root. The last practice
// time is the review anchor. Entries are ordered by next review, then id.
func (s *Scheduler) Plan(root *mastery.Node, daysUntilExam float64, hasExam bool, now time.Time) []Entry {
	var entries []Entry
	for _, st := range root.Subtopics() {
		if st.Unpracticed || st.LastPracticed == nil {
			continue
		}
		interval := s.IntervalFor(st.Mastery, daysUntilExam, hasExam)
		last := *st.LastPracticed

		e := Entry{
			SubtopicID:     st.ID,
			LastReviewedAt: last,
			IntervalDays:   interval,
			NextReviewAt:   ScheduleNext(last, interval, now),
			Mastery:        st.Mastery,
		}
		if raw := rawNext(last, interval); raw.Before(now) {
			e.OverdueDays = now.Sub(raw).Hours() / 24
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].NextReviewAt.Equal(entries[j].NextReviewAt) {
			return entries[i].NextReviewAt.Before(entries[j].NextReviewAt)
		}
		return entries[i].SubtopicID < entries[j].SubtopicID
	})
	return entries
}

// Due returns the entries due at now, most overdue first.
func Due(entries []Entry, now time.Time) []Entry {
	var due []Entry
	for _, e := range entries {
		if e.IsDue(now) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].OverdueDays != due[j].OverdueDays {
			return due[i].OverdueDays > due[j].OverdueDays
		}
		return due[i].SubtopicID < due[j].SubtopicID
	})
	return due
}
