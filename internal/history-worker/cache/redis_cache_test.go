package cache

import (
	"testing"
	"time"

	"github.com/radieske/baccarat-platform-poc/pkg/contracts/events"
)

func TestPhaseDeadline(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ev := events.RoundUpdate{RoundID: 1, Phase: "OPEN", SecondsLeft: 60, TransitionAt: at}
	got := phaseDeadline(ev)
	if got == nil || !got.Equal(at.Add(60*time.Second)) {
		t.Fatalf("deadline=%v want=%v", got, at.Add(60*time.Second))
	}

	// fases sem contagem não produzem deadline
	ev = events.RoundUpdate{RoundID: 1, Phase: "SETTLING", SecondsLeft: 0, TransitionAt: at}
	if got := phaseDeadline(ev); got != nil {
		t.Fatalf("deadline=%v want nil", got)
	}
}
