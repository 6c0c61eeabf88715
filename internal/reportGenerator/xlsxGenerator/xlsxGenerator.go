package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/portfolio-tracker/internal/model"
	"github.com/portfolio-tracker/utils"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Portfolio"

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, report model.PortfolioReport) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	_, err = f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	rowNum, err := g.fillPositions(f, report)
	if err != nil {
		return nil, "", err
	}

	err = g.fillHistory(f, report, rowNum+2)
	if err != nil {
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

// fillPositions writes one block per currency: positions and the currency
// total. Currencies stay separate, totals are never mixed.
func (g *XLSXGenerator) fillPositions(f *excelize.File, report model.PortfolioReport) (rowNum int, err error) {
	currencies := make([]model.Currency, 0, len(report.Positions))
	for currency := range report.Positions {
		currencies = append(currencies, currency)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })

	rowNum = 1

	for _, currency := range currencies {
		err = f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("D%d", rowNum))
		if err != nil {
			return 0, err
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("Holdings (%s) - %s", currency, report.AccountName))

		styleID, err := g.headerStyle(f, "#cfe2f3")
		if err != nil {
			return 0, err
		}

		if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
			return 0, fmt.Errorf("apply style: %w", err)
		}

		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "code")
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), "quantity")
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), "price")
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), "value")

		for _, position := range report.Positions[currency] {
			rowNum++
			_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), position.Code)
			_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), position.NetQuantity.InexactFloat64())
			_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), position.Price.Decimal().InexactFloat64())
			_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), position.Value.Decimal().InexactFloat64())
		}

		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "total")
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), report.Totals[currency].Decimal().InexactFloat64())

		rowNum += 2
	}

	return rowNum, nil
}

func (g *XLSXGenerator) fillHistory(f *excelize.File, report model.PortfolioReport, rowNum int) error {
	err := f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("F%d", rowNum))
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), "Trade history")

	styleID, err := g.headerStyle(f, "#d9ead3")
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), styleID); err != nil {
		return fmt.Errorf("apply style: %w", err)
	}

	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "date")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), "action")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), "code")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), "quantity")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", rowNum), "money")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", rowNum), "currency")

	for _, transaction := range report.History {
		rowNum++
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), transaction.Datetime())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), string(transaction.Action()))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), transaction.Code())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), transaction.Quantity().InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), transaction.Money().Decimal().InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", rowNum), transaction.Money().Currency().String())
	}

	return nil
}
