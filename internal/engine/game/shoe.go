package game

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// Shoe é o collaborator externo que fornece cartas embaralhadas.
// A política de reembaralhamento fica fora do core.
type Shoe interface {
	Draw(ctx context.Context) (Card, error)
}

// CryptoShoe sorteia cartas com crypto/rand: uniforme sobre as 13 faces e
// imprevisível antes da revelação.
type CryptoShoe struct{}

func NewCryptoShoe() *CryptoShoe { return &CryptoShoe{} }

var thirteen = big.NewInt(13)

func (s *CryptoShoe) Draw(_ context.Context) (Card, error) {
	n, err := rand.Int(rand.Reader, thirteen)
	if err != nil {
		return 0, fmt.Errorf("shoe draw: %w", err)
	}
	face := int(n.Int64()) + 1 // 1..13
	switch {
	case face == 1:
		return Card(1), nil // ás
	case face >= 10:
		return Card(0), nil // 10/J/Q/K
	default:
		return Card(face), nil
	}
}
