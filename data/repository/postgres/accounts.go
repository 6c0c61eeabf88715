package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/portfolio-tracker/data/repository"
	"github.com/portfolio-tracker/internal/converter/dbConverter"
	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/model/dbModel"
	"github.com/portfolio-tracker/utils"
)

func (r *Postgres) InsertAccount(ctx context.Context, name string) (accountID uuid.UUID, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.InsertAccount"
	query := `INSERT INTO accounts(name) VALUES($1) RETURNING account_id`

	slog.Debug("InsertAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertAccount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertAccount completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, name).Scan(&accountID)
	if err != nil {
		return uuid.Nil, err
	}

	return accountID, nil
}

func (r *Postgres) GetAccount(ctx context.Context, accountID uuid.UUID) (account model.Account, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetAccount"
	query := `
		SELECT account_id, name, created_at
		FROM accounts
		WHERE account_id = $1
		`

	slog.Debug("GetAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetAccount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetAccount completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbAccount := dbModel.Account{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, accountID).StructScan(&dbAccount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, repository.ErrNotFound
		}
		return model.Account{}, err
	}

	return dbConverter.ConvertAccount(dbAccount), nil
}

// LockAccount takes a row lock on the account until the surrounding
// transaction ends. Serializes sell validation against concurrent appends
// for the same account.
func (r *Postgres) LockAccount(ctx context.Context, accountID uuid.UUID) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.LockAccount"
	query := `
		SELECT account_id FROM accounts
		WHERE account_id = $1
		FOR UPDATE
		`

	slog.Debug("LockAccount start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("LockAccount failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("LockAccount completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	var id uuid.UUID
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}

	return nil
}
