package suggestion

import (
	"fmt"
	"math"

	"github.com/abhisek/prepcoach/internal/mastery"
)

// masteryDrop fires when a subject lost at least `drop` mastery points
// since the previous snapshot.
type masteryDrop struct{ ruleBase }

func (r masteryDrop) Evaluate(s *Snapshot) ([]Candidate, error) {
	if s.Mastery == nil || s.Previous == nil {
		return nil, ErrDataUnavailable
	}
	threshold := r.spec.param("drop", 10)

	var worst *mastery.Node
	var worstDrop, was float64
	for _, cur := range s.Mastery.AtLevel(mastery.LevelSubject) {
		prev := s.Previous.Find(cur.ID)
		if prev == nil || prev.Unpracticed {
			continue
		}
		if d := prev.Mastery - cur.Mastery; d >= threshold && d > worstDrop {
			worst, worstDrop, was = cur, d, prev.Mastery
		}
	}
	if worst == nil {
		return nil, nil
	}
	msg := fmt.Sprintf("Your %s mastery slipped from %.0f%% to %.0f%% this week.", worst.Name, was, worst.Mastery)
	return []Candidate{r.candidate(int(worstDrop), msg, "Practice "+worst.Name, "/practice/subject/"+worst.ID)}, nil
}

// reviewsOverdue fires when at least `min_due` subtopics are due.
type reviewsOverdue struct{ ruleBase }

func (r reviewsOverdue) Evaluate(s *Snapshot) ([]Candidate, error) {
	minDue := int(r.spec.param("min_due", 3))
	if len(s.Due) < minDue || len(s.Due) == 0 {
		return nil, nil
	}
	first := s.Due[0]
	msg := fmt.Sprintf("%d topics are due for review, starting with %s.", len(s.Due), s.name(first.SubtopicID))
	boost := int(math.Min(float64(len(s.Due)), 10))
	return []Candidate{r.candidate(boost, msg, "Start review", "/review")}, nil
}

// examWeakAreas fires inside `within_days` of an exam when at least
// `min_weak` subtopics sit below `threshold`.
type examWeakAreas struct{ ruleBase }

func (r examWeakAreas) Evaluate(s *Snapshot) ([]Candidate, error) {
	if s.Mastery == nil {
		return nil, ErrDataUnavailable
	}
	within := r.spec.param("within_days", 30)
	if !s.HasExam || s.DaysUntilExam > within {
		return nil, nil
	}
	weak := s.Mastery.WeakSubtopics(r.spec.param("threshold", 50))
	if len(weak) < int(r.spec.param("min_weak", 2)) || len(weak) == 0 {
		return nil, nil
	}
	days := int(math.Ceil(s.DaysUntilExam))
	msg := fmt.Sprintf("Your exam is %d days away and %d areas need work, led by %s.", days, len(weak), weak[0].Name)
	boost := 0
	if within > 0 {
		boost = int((within - s.DaysUntilExam) / within * 20)
	}
	return []Candidate{r.candidate(boost, msg, "Plan exam prep", "/practice/subtopic/"+weak[0].ID)}, nil
}

// weakArea points at the weakest practiced subtopic below `threshold`.
type weakArea struct{ ruleBase }

func (r weakArea) Evaluate(s *Snapshot) ([]Candidate, error) {
	if s.Mastery == nil {
		return nil, ErrDataUnavailable
	}
	weak := s.Mastery.WeakSubtopics(r.spec.param("threshold", 50))
	if len(weak) == 0 {
		return nil, nil
	}
	w := weak[0]
	msg := fmt.Sprintf("%s is your weakest area at %.0f%% mastery.", w.Name, w.Mastery)
	return []Candidate{r.candidate(0, msg, "Practice "+w.Name, "/practice/subtopic/"+w.ID)}, nil
}

// momentum celebrates the subject with the largest improvement of at least
// `min_improvement`.
type momentum struct{ ruleBase }

func (r momentum) Evaluate(s *Snapshot) ([]Candidate, error) {
	if s.Mastery == nil {
		return nil, ErrDataUnavailable
	}
	minImp := r.spec.param("min_improvement", 0.15)

	var best *mastery.Node
	for _, n := range s.Mastery.AtLevel(mastery.LevelSubject) {
		if n.Unpracticed || n.Improvement < minImp {
			continue
		}
		if best == nil || n.Improvement > best.Improvement {
			best = n
		}
	}
	if best == nil {
		return nil, nil
	}
	msg := fmt.Sprintf("Your recent accuracy in %s is up %.0f points. Keep it going!", best.Name, best.Improvement*100)
	return []Candidate{r.candidate(0, msg, "Keep practicing", "/practice/subject/"+best.ID)}, nil
}

// inactivity fires after `days` without practice.
type inactivity struct{ ruleBase }

func (r inactivity) Evaluate(s *Snapshot) ([]Candidate, error) {
	if s.LastActivity == nil {
		return nil, nil
	}
	idle := s.Now.Sub(*s.LastActivity).Hours() / 24
	if idle < r.spec.param("days", 3) {
		return nil, nil
	}
	msg := fmt.Sprintf("It has been %d days since your last practice session.", int(idle))
	boost := int(math.Min(idle, 14))
	return []Candidate{r.candidate(boost, msg, "Resume practice", "/practice")}, nil
}

// gettingStarted welcomes learners with no attempts yet.
type gettingStarted struct{ ruleBase }

func (r gettingStarted) Evaluate(s *Snapshot) ([]Candidate, error) {
	if s.TotalAttempts > 0 {
		return nil, nil
	}
	target, url := "your first topic", "/practice"
	if s.Mastery != nil {
		if subs := s.Mastery.Subtopics(); len(subs) > 0 {
			target, url = subs[0].Name, "/practice/subtopic/"+subs[0].ID
		}
	}
	msg := fmt.Sprintf("Welcome! Start with %s to build your mastery profile.", target)
	return []Candidate{r.candidate(0, msg, "Start practicing", url)}, nil
}
