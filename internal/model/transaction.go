package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionBuy:
		return ActionBuy, nil
	case ActionSell:
		return ActionSell, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, s)
}

// InvestmentTransaction is a single immutable record of the ledger. Buys and
// sells share the payload and differ only in the action tag; the difference
// in effect lives entirely in the balance calculation.
//
// Fields are unexported on purpose: records never change after creation.
type InvestmentTransaction struct {
	id        uuid.UUID
	accountID uuid.UUID
	code      string
	quantity  decimal.Decimal
	money     Money
	datetime  time.Time
	action    Action
	createdAt time.Time
	updatedAt time.Time
}

type SerializedTransaction struct {
	AccountID string          `json:"accountId"`
	Code      string          `json:"code"`
	Amount    decimal.Decimal `json:"amount"`
	Money     SerializedMoney `json:"money"`
	Datetime  time.Time       `json:"datetime"`
	Action    string          `json:"action"`
}

// NewInvestmentTransaction validates and builds a not-yet-persisted record.
// The id and bookkeeping timestamps are assigned by the persistence layer.
func NewInvestmentTransaction(
	action Action,
	accountID uuid.UUID,
	code string,
	quantity decimal.Decimal,
	money Money,
	datetime time.Time,
) (InvestmentTransaction, error) {
	if action != ActionBuy && action != ActionSell {
		return InvestmentTransaction{}, fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, action)
	}

	if strings.TrimSpace(code) == "" {
		return InvestmentTransaction{}, fmt.Errorf("%w: code must not be empty", ErrInvalidArgument)
	}

	if quantity.IsNegative() {
		return InvestmentTransaction{}, fmt.Errorf("%w: quantity must be greater or equal than 0", ErrInvalidArgument)
	}

	return InvestmentTransaction{
		accountID: accountID,
		code:      code,
		quantity:  quantity,
		money:     money,
		datetime:  datetime,
		action:    action,
	}, nil
}

// RestoreInvestmentTransaction rehydrates a record read back from storage.
func RestoreInvestmentTransaction(
	id uuid.UUID,
	accountID uuid.UUID,
	code string,
	quantity decimal.Decimal,
	money Money,
	datetime time.Time,
	action Action,
	createdAt time.Time,
	updatedAt time.Time,
) InvestmentTransaction {
	return InvestmentTransaction{
		id:        id,
		accountID: accountID,
		code:      code,
		quantity:  quantity,
		money:     money,
		datetime:  datetime,
		action:    action,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (t InvestmentTransaction) ID() uuid.UUID             { return t.id }
func (t InvestmentTransaction) AccountID() uuid.UUID      { return t.accountID }
func (t InvestmentTransaction) Code() string              { return t.code }
func (t InvestmentTransaction) Quantity() decimal.Decimal { return t.quantity }
func (t InvestmentTransaction) Money() Money              { return t.money }
func (t InvestmentTransaction) Datetime() time.Time       { return t.datetime }
func (t InvestmentTransaction) Action() Action            { return t.action }
func (t InvestmentTransaction) CreatedAt() time.Time      { return t.createdAt }
func (t InvestmentTransaction) UpdatedAt() time.Time      { return t.updatedAt }

// Serialize keeps the original wire naming: quantity travels as "amount".
func (t InvestmentTransaction) Serialize() SerializedTransaction {
	return SerializedTransaction{
		AccountID: t.accountID.String(),
		Code:      t.code,
		Amount:    t.quantity,
		Money:     t.money.Serialize(),
		Datetime:  t.datetime,
		Action:    string(t.action),
	}
}
