package dto

import (
	"testing"
	"time"
)

func TestSecondsLeftFrom(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ends := base.Add(60 * time.Second)

	cases := []struct {
		name string
		st   TableState
		now  time.Time
		want int
	}{
		{"inicio da fase", TableState{Phase: "OPEN", PhaseEndsAt: &ends}, base, 60},
		{"meio da fase", TableState{Phase: "OPEN", PhaseEndsAt: &ends}, base.Add(42 * time.Second), 18},
		{"fracao arredonda pra cima", TableState{Phase: "OPEN", PhaseEndsAt: &ends}, base.Add(59*time.Second + 300*time.Millisecond), 1},
		{"deadline vencido satura em zero", TableState{Phase: "OPEN", PhaseEndsAt: &ends}, base.Add(2 * time.Minute), 0},
		{"fase sem deadline", TableState{Phase: "SETTLING", SecondsLeft: 30}, base, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.st.SecondsLeftFrom(c.now); got != c.want {
				t.Fatalf("secondsLeft=%d want=%d", got, c.want)
			}
		})
	}
}
