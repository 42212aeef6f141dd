package game

import (
	"context"
	"errors"
	"testing"
)

// scriptedShoe devolve cartas pré-definidas, na ordem.
type scriptedShoe struct {
	cards []Card
	i     int
}

func (s *scriptedShoe) Draw(_ context.Context) (Card, error) {
	if s.i >= len(s.cards) {
		return 0, errors.New("shoe exhausted")
	}
	c := s.cards[s.i]
	s.i++
	return c, nil
}

func TestHandTotalMod10(t *testing.T) {
	cases := []struct {
		hand Hand
		want int
	}{
		{Hand{9, 0}, 9},
		{Hand{7, 8}, 5},
		{Hand{0, 0}, 0},
		{Hand{9, 9, 9}, 7},
		{Hand{1, 2, 3}, 6},
	}
	for _, c := range cases {
		if got := c.hand.Total(); got != c.want {
			t.Fatalf("total(%v)=%d want=%d", c.hand, got, c.want)
		}
	}
}

// Tabela canônica completa: banker 0..7 x terceira carta do player 0..9.
func TestBankerTableauExhaustive(t *testing.T) {
	draws := func(bt int, third Card) bool {
		switch bt {
		case 0, 1, 2:
			return true
		case 3:
			return third != 8
		case 4:
			return third >= 2 && third <= 7
		case 5:
			return third >= 4 && third <= 7
		case 6:
			return third == 6 || third == 7
		default: // 7
			return false
		}
	}
	for bt := 0; bt <= 7; bt++ {
		for third := Card(0); third <= 9; third++ {
			got, ok := bankerDrawsAfterPlayerThird(bt, third)
			if !ok {
				t.Fatalf("lookup banker=%d third=%d unexpectedly undefined", bt, third)
			}
			if want := draws(bt, third); got != want {
				t.Fatalf("banker=%d third=%d draw=%v want=%v", bt, third, got, want)
			}
		}
	}
}

func TestBankerStandingPlayerRule(t *testing.T) {
	for bt := 0; bt <= 7; bt++ {
		got, ok := bankerDrawsStandingPlayer(bt)
		if !ok {
			t.Fatalf("lookup banker=%d undefined", bt)
		}
		if want := bt <= 5; got != want {
			t.Fatalf("banker=%d standing player: draw=%v want=%v", bt, got, want)
		}
	}
}

func TestNaturalStopsBothSides(t *testing.T) {
	// player 9 natural vs banker 6: ninguém compra
	shoe := &scriptedShoe{}
	res, err := Resolve(context.Background(), shoe, Hand{4, 5}, Hand{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.PlayerDraw3 || res.BankerDraw3 {
		t.Fatalf("natural must not draw: p3=%v b3=%v", res.PlayerDraw3, res.BankerDraw3)
	}
	if !res.Natural || res.Outcome != OutcomePlayer || res.PlayerTotal != 9 || res.BankerTotal != 6 {
		t.Fatalf("unexpected result: %+v", res)
	}

	// banker natural 8 vs player 5: player NÃO compra mesmo com <=5
	shoe = &scriptedShoe{}
	res, err = Resolve(context.Background(), shoe, Hand{2, 3}, Hand{8, 0})
	if err != nil {
		t.Fatal(err)
	}
	if res.PlayerDraw3 || res.BankerDraw3 {
		t.Fatalf("banker natural must stop player draw")
	}
	if res.Outcome != OutcomeBanker {
		t.Fatalf("outcome=%s want=BANKER", res.Outcome)
	}
}

func TestPlayerDrawsBankerFourDrawsOnTwo(t *testing.T) {
	// player 4 compra; terceira carta 2; banker 4 compra pela tabela (2..7)
	shoe := &scriptedShoe{cards: []Card{2, 9}}
	res, err := Resolve(context.Background(), shoe, Hand{1, 3}, Hand{0, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !res.PlayerDraw3 {
		t.Fatal("player total 4 must draw")
	}
	if !res.BankerDraw3 {
		t.Fatal("banker 4 must draw when player third is 2")
	}
	if res.PlayerTotal != 6 || res.BankerTotal != 3 {
		t.Fatalf("totals p=%d b=%d want p=6 b=3", res.PlayerTotal, res.BankerTotal)
	}
	if res.Outcome != OutcomePlayer {
		t.Fatalf("outcome=%s want=PLAYER", res.Outcome)
	}
}

func TestBankerThreeStandsOnEight(t *testing.T) {
	shoe := &scriptedShoe{cards: []Card{8}}
	res, err := Resolve(context.Background(), shoe, Hand{0, 5}, Hand{0, 3})
	if err != nil {
		t.Fatal(err)
	}
	if !res.PlayerDraw3 || res.BankerDraw3 {
		t.Fatalf("banker 3 must stand on player third 8: p3=%v b3=%v", res.PlayerDraw3, res.BankerDraw3)
	}
	// player 5+8=13 -> 3; banker 3 -> tie
	if res.Outcome != OutcomeTie {
		t.Fatalf("outcome=%s want=TIE", res.Outcome)
	}
}

func TestPlayerStandsBankerFiveDraws(t *testing.T) {
	// player 6 para; banker 5 compra (regra de player parado: <=5)
	shoe := &scriptedShoe{cards: []Card{9}}
	res, err := Resolve(context.Background(), shoe, Hand{2, 4}, Hand{1, 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.PlayerDraw3 {
		t.Fatal("player 6 must stand")
	}
	if !res.BankerDraw3 {
		t.Fatal("banker 5 must draw against standing player")
	}
	if res.BankerTotal != 4 || res.Outcome != OutcomePlayer {
		t.Fatalf("unexpected: %+v", res)
	}
}

func TestResolveRejectsInvalidCards(t *testing.T) {
	_, err := Resolve(context.Background(), &scriptedShoe{}, Hand{10, 0}, Hand{1, 2})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("err=%v want ErrInvariant", err)
	}
	_, err = Resolve(context.Background(), &scriptedShoe{}, Hand{1}, Hand{1, 2})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("err=%v want ErrInvariant", err)
	}
}

func TestDealUsesShoeOrder(t *testing.T) {
	// P1 B1 P2 B2: player {9,0}=9 natural, banker {1,5}=6
	shoe := &scriptedShoe{cards: []Card{9, 1, 0, 5}}
	res, err := Deal(context.Background(), shoe)
	if err != nil {
		t.Fatal(err)
	}
	if res.PlayerTotal != 9 || res.BankerTotal != 6 || res.Outcome != OutcomePlayer {
		t.Fatalf("unexpected: %+v", res)
	}
}

func TestCryptoShoeRange(t *testing.T) {
	shoe := NewCryptoShoe()
	seen := map[Card]bool{}
	for i := 0; i < 2000; i++ {
		c, err := shoe.Draw(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if !c.Valid() {
			t.Fatalf("card %d out of range", c)
		}
		seen[c] = true
	}
	// com 2000 sorteios todos os 10 valores devem aparecer
	for v := Card(0); v <= 9; v++ {
		if !seen[v] {
			t.Fatalf("card value %d never drawn", v)
		}
	}
}
