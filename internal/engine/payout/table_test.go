package payout

import (
	"testing"

	"github.com/radieske/baccarat-platform-poc/internal/engine/game"
)

func TestDefaultProfit(t *testing.T) {
	tab := Default()
	cases := []struct {
		side  game.Side
		stake int64
		want  int64
	}{
		{game.SidePlayer, 10000, 10000},
		{game.SideBanker, 10000, 9500},
		{game.SideTie, 10000, 80000},
		{game.SideBanker, 101, 95}, // 95.95 trunca pra 95
		{game.SideBanker, 1, 0},    // 0.95 trunca pra 0
	}
	for _, c := range cases {
		if got := tab.Profit(c.side, c.stake); got != c.want {
			t.Fatalf("profit(%s,%d)=%d want=%d", c.side, c.stake, got, c.want)
		}
	}
}

func TestDeltaConvention(t *testing.T) {
	tab := Default()
	cases := []struct {
		name    string
		side    game.Side
		outcome game.Outcome
		stake   int64
		want    int64
	}{
		{"player win", game.SidePlayer, game.OutcomePlayer, 10000, 10000},
		{"player lose", game.SidePlayer, game.OutcomeBanker, 10000, -10000},
		{"player push on tie", game.SidePlayer, game.OutcomeTie, 10000, 0},
		{"banker win", game.SideBanker, game.OutcomeBanker, 10000, 9500},
		{"banker push on tie", game.SideBanker, game.OutcomeTie, 10000, 0},
		{"tie win", game.SideTie, game.OutcomeTie, 10000, 80000},
		{"tie lose", game.SideTie, game.OutcomePlayer, 10000, -10000},
	}
	for _, c := range cases {
		if got := tab.Delta(c.side, c.outcome, c.stake); got != c.want {
			t.Fatalf("%s: delta=%d want=%d", c.name, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	tab, err := Parse("1.0", "0.95", "8.0")
	if err != nil {
		t.Fatal(err)
	}
	if got := tab.Profit(game.SideBanker, 200); got != 190 {
		t.Fatalf("profit=%d want=190", got)
	}
	if _, err := Parse("x", "0.95", "8"); err == nil {
		t.Fatal("invalid odd must error")
	}
	if _, err := Parse("1", "-0.95", "8"); err == nil {
		t.Fatal("negative odd must error")
	}
}
