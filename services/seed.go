package services

import (
	"fmt"
	"time"

	"github.com/rs/xid"
)

// NewSeed builds a draw seed unique per call: the draw time followed by a
// random globally unique id.
func NewSeed(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), xid.New().String())
}

// constitutionSeed seeds the grouping of players before a round.
func constitutionSeed(tournamentID string, round int, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", tournamentID, round, now.UnixMilli())
}
