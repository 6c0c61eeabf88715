package dbConverter

import (
	"fmt"

	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/internal/model/dbModel"
)

func ConvertTransaction(dbTx dbModel.InvestmentTransaction) (model.InvestmentTransaction, error) {
	currency, err := model.ParseCurrency(dbTx.MoneyCurrency)
	if err != nil {
		return model.InvestmentTransaction{}, fmt.Errorf("transaction %s: %w", dbTx.TransactionID, err)
	}

	money, err := model.NewMoneyFromCents(dbTx.MoneyCents, currency)
	if err != nil {
		return model.InvestmentTransaction{}, fmt.Errorf("transaction %s: %w", dbTx.TransactionID, err)
	}

	action, err := model.ParseAction(dbTx.Action)
	if err != nil {
		return model.InvestmentTransaction{}, fmt.Errorf("transaction %s: %w", dbTx.TransactionID, err)
	}

	return model.RestoreInvestmentTransaction(
		dbTx.TransactionID,
		dbTx.AccountID,
		dbTx.Code,
		dbTx.Quantity,
		money,
		dbTx.Datetime,
		action,
		dbTx.CreatedAt,
		dbTx.UpdatedAt,
	), nil
}

func ConvertAccount(dbAccount dbModel.Account) model.Account {
	return model.Account{
		ID:        dbAccount.AccountID,
		Name:      dbAccount.Name,
		CreatedAt: dbAccount.CreatedAt,
	}
}

func ConvertHolding(dbHolding dbModel.Holding) model.Holding {
	return model.Holding{
		Code:        dbHolding.Code,
		NetQuantity: dbHolding.NetQuantity,
	}
}
