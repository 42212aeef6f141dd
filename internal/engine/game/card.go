package game

import "fmt"

// Card é o valor de baccarat de uma carta, já reduzido: A=1, 2..9 valem a
// face, 10/J/Q/K valem 0.
type Card int

// Valid informa se a carta está no intervalo de pontos de baccarat.
func (c Card) Valid() bool { return c >= 0 && c <= 9 }

// Hand é a sequência ordenada de 2 ou 3 cartas de um dos lados.
type Hand []Card

// Total calcula os pontos da mão com redução módulo 10.
func (h Hand) Total() int {
	sum := 0
	for _, c := range h {
		sum += int(c)
	}
	return sum % 10
}

// Outcome identifica o lado vencedor de uma rodada.
type Outcome string

const (
	OutcomePlayer Outcome = "PLAYER"
	OutcomeBanker Outcome = "BANKER"
	OutcomeTie    Outcome = "TIE"
)

// ParseOutcome valida um outcome vindo de fora (banco, eventos).
func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(s) {
	case OutcomePlayer, OutcomeBanker, OutcomeTie:
		return Outcome(s), nil
	}
	return "", fmt.Errorf("invalid outcome %q", s)
}
