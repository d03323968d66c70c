package brackets

import "context"

type GenerateBracketParams struct {
	TournamentID  string
	CompetitorIDs []string
	Seed          string

	// PoolSize is the target pool size of pool play.
	PoolSize int
	// Legs is 1 for a single round robin, 2 for home and away.
	Legs int
}

// BracketGenerator lays out every match of a fixed-structure format at once.
type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// BracketMatch is a generated match. Participant ids are nil when the match
// waits for the winners of SourceMatch1UID / SourceMatch2UID.
type BracketMatch struct {
	UID          string `json:"uid"`
	Round        int    `json:"round"`
	OrderInRound int    `json:"order_in_round"`
	Pool         *int   `json:"pool,omitempty"`

	Participant1ID *string `json:"participant1_id,omitempty"`
	Participant2ID *string `json:"participant2_id,omitempty"`

	SourceMatch1UID *string `json:"source_match1_uid,omitempty"`
	SourceMatch2UID *string `json:"source_match2_uid,omitempty"`

	IsPlaceholder bool `json:"is_placeholder"`

	IsBye            bool    `json:"is_bye"`
	ByeParticipantID *string `json:"bye_participant_id,omitempty"`
}

// NewGenerator returns the generator registered under name.
func NewGenerator(name string) (BracketGenerator, bool) {
	switch name {
	case SingleEliminationName:
		return NewSingleEliminationGenerator(), true
	case PoolPlayName:
		return NewPoolPlayGenerator(), true
	default:
		return nil, false
	}
}
