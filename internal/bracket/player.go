package bracket

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TeamName string `json:"teamName"`
}

type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Players []Player `json:"players"`
}

func (g Group) Has(playerID string) bool {
	for _, p := range g.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

type SlotState string

const (
	SlotPending  SlotState = "pending"
	SlotResolved SlotState = "resolved"
	SlotBye      SlotState = "bye"
)

// Slot is one side of a match. Only resolved slots carry a player.
type Slot struct {
	State  SlotState `json:"state"`
	Player *Player   `json:"player,omitempty"`
}

func Resolved(p Player) Slot {
	return Slot{State: SlotResolved, Player: &p}
}

func Pending() Slot {
	return Slot{State: SlotPending}
}

func Bye() Slot {
	return Slot{State: SlotBye}
}

func (s Slot) IsResolved() bool {
	return s.State == SlotResolved && s.Player != nil
}

func (s Slot) IsPending() bool {
	return s.State == SlotPending
}

func (s Slot) IsBye() bool {
	return s.State == SlotBye
}

// PlayerID returns an empty string for anything but a resolved slot
func (s Slot) PlayerID() string {
	if !s.IsResolved() {
		return ""
	}
	return s.Player.ID
}

func (s Slot) clone() Slot {
	if s.Player != nil {
		p := *s.Player
		s.Player = &p
	}
	return s
}
