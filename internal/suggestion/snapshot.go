package suggestion

import (
	"time"

	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
)

// Snapshot is everything rules may inspect for one learner.
type Snapshot struct {
	UserID   string
	Now      time.Time
	Mastery  *mastery.Node
	Previous *mastery.Node // older snapshot for week-over-week comparison; nil if none
	Schedule []spacedrep.Entry
	Due      []spacedrep.Entry

	DaysUntilExam float64
	HasExam       bool

	LastActivity  *time.Time
	TotalAttempts int
}

// name returns the display name of a node id, falling back to the id.
func (s *Snapshot) name(id string) string {
	if s.Mastery != nil {
		if n := s.Mastery.Find(id); n != nil && n.Name != "" {
			return n.Name
		}
	}
	return id
}
