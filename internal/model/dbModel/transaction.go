package dbModel

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvestmentTransaction struct {
	TransactionID uuid.UUID       `db:"transaction_id"`
	AccountID     uuid.UUID       `db:"account_id"`
	Code          string          `db:"code"`
	Action        string          `db:"action"`
	Quantity      decimal.Decimal `db:"quantity"`
	MoneyCents    int64           `db:"money_cents"`
	MoneyCurrency string          `db:"money_currency"`
	Datetime      time.Time       `db:"datetime"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

type Account struct {
	AccountID uuid.UUID `db:"account_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type Holding struct {
	Code        string          `db:"code"`
	NetQuantity decimal.Decimal `db:"net_quantity"`
}
