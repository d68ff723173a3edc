package bracket

import (
	"fmt"
	"math/rand/v2"
)

type Round struct {
	Name    string  `json:"name"`
	Matches []Match `json:"matches"`
}

// KnockoutBracket is ordered from the first round to the final.
// The winner of match i in round r feeds match i/2 of round r+1, home side when i is even.
type KnockoutBracket struct {
	Rounds []Round `json:"rounds"`
}

func (b KnockoutBracket) IsEmpty() bool {
	return len(b.Rounds) == 0
}

func (b KnockoutBracket) Clone() KnockoutBracket {
	out := KnockoutBracket{Rounds: make([]Round, len(b.Rounds))}
	for i, r := range b.Rounds {
		matches := make([]Match, len(r.Matches))
		for j, m := range r.Matches {
			matches[j] = m.clone()
		}
		out.Rounds[i] = Round{Name: r.Name, Matches: matches}
	}
	return out
}

// Locate finds a match by id and returns its round and position
func (b KnockoutBracket) Locate(matchID string) (round, pos int, ok bool) {
	for r, rd := range b.Rounds {
		for i, m := range rd.Matches {
			if m.ID == matchID {
				return r, i, true
			}
		}
	}
	return 0, 0, false
}

func (b KnockoutBracket) Matches() []Match {
	var all []Match
	for _, r := range b.Rounds {
		all = append(all, r.Matches...)
	}
	return all
}

func RoundName(matchCount int) string {
	switch matchCount {
	case 1:
		return "Final"
	case 2:
		return "Semi-Finals"
	case 4:
		return "Quarter-Finals"
	}
	return fmt.Sprintf("Round of %d", matchCount*2)
}

func KnockoutMatchID(round, pos int) string {
	return fmt.Sprintf("R%dM%d", round+1, pos+1)
}

func bracketSize(entrants int) int {
	size := 2
	for size < entrants {
		size *= 2
	}
	return size
}

// NewEmptyBracket lays out every round of a bracket for size entrants with all slots pending
func NewEmptyBracket(size int) KnockoutBracket {
	var b KnockoutBracket
	r := 0
	for count := size / 2; count >= 1; count /= 2 {
		round := Round{Name: RoundName(count), Matches: make([]Match, count)}
		for i := range round.Matches {
			round.Matches[i] = Match{
				ID:    KnockoutMatchID(r, i),
				Home:  Pending(),
				Away:  Pending(),
				Round: round.Name,
			}
		}
		b.Rounds = append(b.Rounds, round)
		r++
	}
	return b
}

// GenerateKnockoutBracket seeds the qualifiers at random into the smallest
// bracket that holds them. Empty places become byes, at most one per
// first-round match, and the players facing them are moved on right away.
func GenerateKnockoutBracket(qualifiers []Player, rng *rand.Rand) (KnockoutBracket, error) {
	if len(qualifiers) < 2 {
		return KnockoutBracket{}, fmt.Errorf("%w: a knockout needs at least 2 qualifiers, have %d",
			ErrPreconditionFailed, len(qualifiers))
	}
	if err := checkUniquePlayers(qualifiers); err != nil {
		return KnockoutBracket{}, err
	}

	entrants := shuffled(qualifiers, rng)
	size := bracketSize(len(entrants))
	byes := size - len(entrants)

	b := NewEmptyBracket(size)
	first := b.Rounds[0].Matches
	next := 0
	for i := range first {
		first[i].Home = Resolved(entrants[next])
		next++
		if i < byes {
			first[i].Away = Bye()
			continue
		}
		first[i].Away = Resolved(entrants[next])
		next++
	}

	for i := 0; i < byes; i++ {
		b.promote(0, i, *first[i].Home.Player)
	}
	return b, nil
}

func (b KnockoutBracket) destination(round, pos int) (*Slot, bool) {
	if round+1 >= len(b.Rounds) {
		return nil, false
	}
	dest := &b.Rounds[round+1].Matches[pos/2]
	if pos%2 == 0 {
		return &dest.Home, true
	}
	return &dest.Away, true
}

// promote fills the next-round slot only while it is still pending
func (b KnockoutBracket) promote(round, pos int, winner Player) {
	slot, ok := b.destination(round, pos)
	if !ok || !slot.IsPending() {
		return
	}
	*slot = Resolved(winner)
}

// AdvanceBracket records a knockout result and moves the winner on. It never
// mutates b: on success a new bracket is returned, on failure b itself.
func AdvanceBracket(b KnockoutBracket, matchID string, homeScore, awayScore int) (KnockoutBracket, error) {
	r, pos, ok := b.Locate(matchID)
	if !ok {
		return b, fmt.Errorf("%w: knockout match %q", ErrNotFound, matchID)
	}
	if homeScore < 0 || awayScore < 0 {
		return b, fmt.Errorf("%w: scores can't be negative, got %d-%d", ErrInvalidResult, homeScore, awayScore)
	}
	if homeScore == awayScore {
		return b, fmt.Errorf("%w: knockout match %s can't end level at %d-%d", ErrInvalidResult, matchID, homeScore, awayScore)
	}

	current := b.Rounds[r].Matches[pos]
	if !current.Home.IsResolved() || !current.Away.IsResolved() {
		return b, fmt.Errorf("%w: match %s is still waiting for its players", ErrPreconditionFailed, matchID)
	}

	winner := *current.Home.Player
	if awayScore > homeScore {
		winner = *current.Away.Player
	}

	if previous, decided := current.Winner(); decided && previous.ID != winner.ID {
		if slot, ok := b.destination(r, pos); ok && slot.IsResolved() {
			return b, fmt.Errorf("%w: %s already went through from match %s", ErrInvalidResult, previous.Name, matchID)
		}
	}

	next := b.Clone()
	next.Rounds[r].Matches[pos].record(homeScore, awayScore)
	next.promote(r, pos, winner)
	return next, nil
}

// Champion is the winner of the final once it has been played
func Champion(b KnockoutBracket) (Player, bool) {
	if b.IsEmpty() {
		return Player{}, false
	}
	final := b.Rounds[len(b.Rounds)-1]
	if len(final.Matches) != 1 || !final.Matches[0].Played {
		return Player{}, false
	}
	return final.Matches[0].Winner()
}
