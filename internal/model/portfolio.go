package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Holding is the derived net position of one instrument in one account.
// Never persisted: always recomputed from the ledger.
type Holding struct {
	Code        string
	NetQuantity decimal.Decimal
}

// Position is a holding enriched with a current price.
type Position struct {
	Code        string
	NetQuantity decimal.Decimal
	Price       Money
	Value       Money
}

// PortfolioReport groups positions per currency; totals are never summed
// across currencies.
type PortfolioReport struct {
	AccountName string
	Positions   map[Currency][]Position
	Totals      map[Currency]Money
	History     []InvestmentTransaction
}
