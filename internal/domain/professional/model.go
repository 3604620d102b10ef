package professional

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level is the ordered qualification tier of a professional.
type Level string

const (
	LevelJunior        Level = "JUNIOR"
	LevelSenior        Level = "SENIOR"
	LevelExpert        Level = "EXPERT"
	LevelDistinguished Level = "DISTINGUISHED"
)

var levelRanks = map[Level]int{
	LevelJunior:        1,
	LevelSenior:        2,
	LevelExpert:        3,
	LevelDistinguished: 4,
}

// Rank returns the ordinal position of the level, JUNIOR=1 .. DISTINGUISHED=4.
// Unknown levels rank 0.
func (l Level) Rank() int { return levelRanks[l] }

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool { return levelRanks[l] != 0 }

// CanServe reports whether a professional at this level may handle a case
// requiring the given level. A professional serves all levels at or below
// their own; DISTINGUISHED serves all four, JUNIOR serves only JUNIOR.
func (l Level) CanServe(required Level) bool {
	return l.Valid() && required.Valid() && l.Rank() >= required.Rank()
}

// ServableLevels returns every level this level may serve, lowest first.
func (l Level) ServableLevels() []Level {
	var out []Level
	for _, lv := range []Level{LevelJunior, LevelSenior, LevelExpert, LevelDistinguished} {
		if l.CanServe(lv) {
			out = append(out, lv)
		}
	}
	return out
}

// ParseLevel converts a wire string into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown professional level: %q", s)
	}
	return l, nil
}

// Profile is the vetted identity of a professional as supplied by the
// identity provider. Read-only input to matching; mutated externally.
type Profile struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Level          Level     `db:"level" json:"level"`
	Subspecialties []string  `db:"subspecialties" json:"subspecialties"`
	CurrentLoad    int       `db:"current_load" json:"current_load"`
	MaxLoad        int       `db:"max_load" json:"max_load"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
