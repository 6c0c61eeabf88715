package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/portfolio-tracker/data/repository"
	"github.com/portfolio-tracker/internal/converter/dbConverter"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/model/dbModel"
	"github.com/portfolio-tracker/utils"
	"github.com/shopspring/decimal"
)

// InsertTransaction appends one record to the ledger. The ledger is
// append-only: this is the only statement that touches the table besides
// SELECTs.
func (r *Postgres) InsertTransaction(ctx context.Context, tx model.InvestmentTransaction) (transactionID uuid.UUID, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertTransaction"
	query := `
		INSERT INTO investment_transactions(account_id, code, action, quantity, money_cents, money_currency, datetime)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING transaction_id
	`

	slog.Debug("InsertTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(
		ctx,
		query,
		tx.AccountID(),
		tx.Code(),
		string(tx.Action()),
		tx.Quantity(),
		tx.Money().Cents(),
		tx.Money().Currency().String(),
		tx.Datetime(),
	).Scan(&transactionID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23503" { // foreign_key_violation
				return uuid.Nil, repository.ErrNotFound
			}
		}
		return uuid.Nil, err
	}

	return transactionID, nil
}

func (r *Postgres) getTransactions(ctx context.Context, query string, args ...any) (transactions []model.InvestmentTransaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("getTransactions start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("getTransactions failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("getTransactions completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbTx dbModel.InvestmentTransaction
		err = rows.StructScan(&dbTx)
		if err != nil {
			return nil, err
		}

		tx, err := dbConverter.ConvertTransaction(dbTx)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, nil
}

func (r *Postgres) GetTransactions(ctx context.Context, accountID uuid.UUID, code string) ([]model.InvestmentTransaction, error) {
	query := `
		SELECT transaction_id, account_id, code, action, quantity, money_cents, money_currency, datetime, created_at, updated_at
		FROM investment_transactions
		WHERE account_id = $1
		AND code = $2
		ORDER BY created_at
		`

	return r.getTransactions(ctx, query, accountID, code)
}

func (r *Postgres) GetTransactionsByAccount(ctx context.Context, accountID uuid.UUID) ([]model.InvestmentTransaction, error) {
	query := `
		SELECT transaction_id, account_id, code, action, quantity, money_cents, money_currency, datetime, created_at, updated_at
		FROM investment_transactions
		WHERE account_id = $1
		ORDER BY created_at
		`

	return r.getTransactions(ctx, query, accountID)
}

func (r *Postgres) GetMostRecentTransaction(ctx context.Context, accountID uuid.UUID, code string) (transaction model.InvestmentTransaction, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetMostRecentTransaction"
	query := `
		SELECT transaction_id, account_id, code, action, quantity, money_cents, money_currency, datetime, created_at, updated_at
		FROM investment_transactions
		WHERE account_id = $1
		AND code = $2
		ORDER BY created_at DESC
		LIMIT 1
		`

	slog.Debug("GetMostRecentTransaction start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetMostRecentTransaction failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetMostRecentTransaction completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var dbTx dbModel.InvestmentTransaction
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, accountID, code).StructScan(&dbTx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.InvestmentTransaction{}, repository.ErrNotFound
		}
		return model.InvestmentTransaction{}, err
	}

	return dbConverter.ConvertTransaction(dbTx)
}

// GetNetQuantity sums buys minus sells for one (account, code) pair.
func (r *Postgres) GetNetQuantity(ctx context.Context, accountID uuid.UUID, code string) (netQuantity decimal.Decimal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetNetQuantity"
	query := `
		SELECT COALESCE(SUM(CASE WHEN action = 'buy' THEN quantity ELSE -quantity END), 0) AS net_quantity
		FROM investment_transactions
		WHERE account_id = $1
		AND code = $2
		`

	slog.Debug("GetNetQuantity start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetNetQuantity failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetNetQuantity completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, accountID, code).Scan(&netQuantity)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return netQuantity, nil
}

// GetHoldings returns every code with a nonzero net quantity in the account.
func (r *Postgres) GetHoldings(ctx context.Context, accountID uuid.UUID) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHoldings"
	query := `
		SELECT code, SUM(CASE WHEN action = 'buy' THEN quantity ELSE -quantity END) AS net_quantity
		FROM investment_transactions
		WHERE account_id = $1
		GROUP BY code
		HAVING SUM(CASE WHEN action = 'buy' THEN quantity ELSE -quantity END) <> 0
		ORDER BY code
		`

	slog.Debug("GetHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHoldings completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbHolding dbModel.Holding
		err = rows.StructScan(&dbHolding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHolding(dbHolding))
	}

	return holdings, nil
}

// GetHeldCodes lists distinct codes held in any account, for cache warming.
func (r *Postgres) GetHeldCodes(ctx context.Context) (codes []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHeldCodes"
	query := `
		SELECT DISTINCT code FROM (
			SELECT account_id, code
			FROM investment_transactions
			GROUP BY account_id, code
			HAVING SUM(CASE WHEN action = 'buy' THEN quantity ELSE -quantity END) <> 0
		) held
		ORDER BY code
		`

	slog.Debug("GetHeldCodes start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetHeldCodes failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHeldCodes completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var code string
		err = rows.Scan(&code)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}

	return codes, nil
}
