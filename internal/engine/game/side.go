package game

import "fmt"

// Side é o lado apostável de uma rodada. Os valores coincidem com Outcome,
// mas o tipo separa "onde o jogador apostou" de "quem venceu".
type Side string

const (
	SidePlayer Side = "PLAYER"
	SideBanker Side = "BANKER"
	SideTie    Side = "TIE"
)

// ParseSide valida um lado vindo do transporte.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SidePlayer, SideBanker, SideTie:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid side %q", s)
}

// Wins informa se o lado vence dado o outcome.
func (s Side) Wins(o Outcome) bool { return string(s) == string(o) }

// Pushes informa se a aposta empata (devolução): PLAYER/BANKER em rodada TIE.
func (s Side) Pushes(o Outcome) bool {
	return o == OutcomeTie && (s == SidePlayer || s == SideBanker)
}
