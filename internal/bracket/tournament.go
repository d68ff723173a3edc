package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStage string

const (
	StageRegistration TournamentStage = "registration"
	StageGroup        TournamentStage = "group_stage"
	StageKnockout     TournamentStage = "knockout_stage"
	StageFinished     TournamentStage = "finished"
)

type RegistrationType string

const (
	// Players join through the public link
	RegistrationLobby RegistrationType = "lobby"
	// The host enters players and groups by hand
	RegistrationManual RegistrationType = "manual"
)

func (r RegistrationType) Valid() bool {
	return r == RegistrationLobby || r == RegistrationManual
}

type Tournament struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	OwnerID          uuid.UUID        `db:"owner_id" json:"ownerId"`
	Name             string           `db:"name" json:"name"`
	Game             string           `db:"game" json:"game"`
	Stage            TournamentStage  `db:"stage" json:"stage"`
	RegistrationType RegistrationType `db:"registration_type" json:"registrationType"`
	Version          int              `db:"version" json:"version"`
	CreatedAt        time.Time        `db:"created_at" json:"createdAt"`
}

// Rules are the knobs of the group stage
type Rules struct {
	MinPlayers int `yaml:"min_players"`
	GroupSize  int `yaml:"group_size"`
}

func DefaultRules() Rules {
	return Rules{MinPlayers: 4, GroupSize: 4}
}
