package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Postgres implementa operações de carteira em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
)

// GetOrCreateWallet retorna o walletId e saldo de um jogador, criando a carteira se não existir
// Usa transação para garantir atomicidade
func (p *Postgres) GetOrCreateWallet(ctx context.Context, playerID string) (walletID string, balance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	var bal int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE player_id=$1`, playerID).Scan(&id, &bal)
	if err == sql.ErrNoRows {
		id = uuid.New().String()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO wallets(id, player_id, balance_cents, version) VALUES($1,$2,0,1)`,
			id, playerID); err != nil {
			return "", 0, err
		}
		bal = 0
	} else if err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}

	return id, bal, nil
}

// Deposit incrementa o saldo da carteira e registra a operação no ledger
// Garante lock pessimista na linha da carteira
func (p *Postgres) Deposit(ctx context.Context, playerID string, amount int64, externalRef string) (walletID string, newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	var id string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE player_id=$1 FOR UPDATE`, playerID).Scan(&id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, amount, id); err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, external_ref, description) VALUES($1,'DEPOSIT',$2,$3,$4)`,
		id, amount, "deposit:"+externalRef, "deposit"); err != nil {
		return "", 0, err
	}

	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE id=$1`, id).Scan(&newBalance); err != nil {
		return "", 0, err
	}

	if err = tx.Commit(); err != nil {
		return "", 0, err
	}
	return id, newBalance, nil
}

// Credit soma o valor ao saldo, idempotente por (wallet, external_ref):
// a liquidação do engine retenta com o mesmo ref e o movimento aplica
// uma única vez
func (p *Postgres) Credit(ctx context.Context, playerID string, amount int64, externalRef string) (newBalance int64, applied bool, err error) {
	return p.move(ctx, playerID, amount, externalRef, "CREDIT")
}

// Debit subtrai o valor do saldo, idempotente por (wallet, external_ref)
// Falha com ErrInsufficientFunds se o saldo não cobre o débito
func (p *Postgres) Debit(ctx context.Context, playerID string, amount int64, externalRef string) (newBalance int64, applied bool, err error) {
	return p.move(ctx, playerID, -amount, externalRef, "DEBIT")
}

func (p *Postgres) move(ctx context.Context, playerID string, delta int64, externalRef, op string) (int64, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer tx.Rollback()

	var walletID string
	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT id, balance_cents FROM wallets WHERE player_id=$1 FOR UPDATE`, playerID).Scan(&walletID, &balance)
	if err == sql.ErrNoRows {
		return 0, false, ErrNotFound
	} else if err != nil {
		return 0, false, err
	}

	// Idempotência: verifica se o external_ref já foi aplicado nesta carteira
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM wallet_ledger WHERE wallet_id=$1 AND external_ref=$2`, walletID, externalRef).Scan(&exists)
	if err == nil {
		return balance, false, tx.Commit() // já aplicado
	} else if err != sql.ErrNoRows {
		return 0, false, err
	}

	if balance+delta < 0 {
		return 0, false, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1 WHERE id=$2`, delta, walletID); err != nil {
		return 0, false, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, external_ref, description)
		VALUES($1,$2,$3,$4,$5)`,
		walletID, op, delta, externalRef, op+":"+externalRef); err != nil {
		return 0, false, err
	}

	if err = tx.Commit(); err != nil {
		return 0, false, err
	}
	return balance + delta, true, nil
}
