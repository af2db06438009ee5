package imports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/cardledger/internal/giftcards"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/money"
)

type cardStore interface {
	Create(ctx context.Context, input giftcards.CreateGiftCardInput) (*giftcards.GiftCardDTO, error)
	List(ctx context.Context, filter giftcards.ListFilter) ([]giftcards.GiftCardDTO, error)
}

// RowFailure is a data row that was not imported. Line counts the header as 1.
type RowFailure struct {
	Line       int    `json:"line"`
	CardNumber string `json:"card_number,omitempty"`
	Reason     string `json:"reason"`
	err        error
}

// Report summarizes an import. Rows are committed one by one, so a failure
// never undoes earlier rows.
type Report struct {
	RetailerCode string       `json:"retailer_code"`
	Total        int          `json:"total"`
	Succeeded    int          `json:"succeeded"`
	Failed       []RowFailure `json:"failed"`
}

// Err combines every row failure, or nil when all rows went in.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, fmt.Errorf("line %d: %w", f.Line, f.err))
	}
	return err
}

// Service moves gift cards between the ledger and retailer CSV files.
type Service struct {
	cards cardStore
	logg  *logger.Logger
}

func NewService(cards cardStore, logg *logger.Logger) (*Service, error) {
	if cards == nil {
		return nil, fmt.Errorf("gift card service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{cards: cards, logg: logg}, nil
}

// Import creates one gift card per data row. The header must carry every
// column of the retailer's format. The returned error is only for problems
// with the file as a whole; row problems land in the report.
func (s *Service) Import(ctx context.Context, retailerCode string, r io.Reader) (*Report, error) {
	format := FormatFor(retailerCode)
	if format.RetailerCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer code is required").
			WithDetails(map[string]any{"field": "retailer_code"})
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv file is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading csv header")
	}
	index := headerIndex(header)
	if missing := missingColumns(format, index); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv file is missing required columns: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}

	ctx = s.logg.WithField(ctx, "retailer_code", format.RetailerCode)
	report := &Report{RetailerCode: format.RetailerCode, Failed: []RowFailure{}}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Total++
			report.fail(line, "", err)
			continue
		}
		if blank(record) {
			continue
		}
		report.Total++

		input, err := rowInput(format, index, record)
		if err != nil {
			report.fail(line, input.CardNumber, err)
			continue
		}
		if _, err := s.cards.Create(ctx, input); err != nil {
			report.fail(line, input.CardNumber, err)
			continue
		}
		report.Succeeded++
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total":     report.Total,
		"succeeded": report.Succeeded,
		"failed":    len(report.Failed),
	}), "gift card import finished")
	return report, nil
}

// Export writes the retailer's gift cards in its format, ordered by sku, and
// returns the number of rows written.
func (s *Service) Export(ctx context.Context, retailerCode string, w io.Writer) (int, error) {
	format := FormatFor(retailerCode)
	cards, err := s.cards.List(ctx, giftcards.ListFilter{RetailerCode: format.RetailerCode})
	if err != nil {
		return 0, err
	}
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].SKU < cards[j].SKU })

	writer := csv.NewWriter(w)
	if err := writer.Write(format.Columns); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv header")
	}
	for _, card := range cards {
		row := make([]string, 0, len(format.Columns))
		for _, col := range format.Columns {
			row = append(row, exportValue(col, card))
		}
		if err := writer.Write(row); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flushing csv")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"retailer_code": format.RetailerCode, "rows": len(cards)}), "gift card export finished")
	return len(cards), nil
}

func (r *Report) fail(line int, cardNumber string, err error) {
	reason := err.Error()
	if typed := pkgerrors.As(err); typed != nil {
		reason = typed.Message()
	}
	r.Failed = append(r.Failed, RowFailure{Line: line, CardNumber: cardNumber, Reason: reason, err: err})
}

func rowInput(format Format, index map[string]int, record []string) (giftcards.CreateGiftCardInput, error) {
	input := giftcards.CreateGiftCardInput{
		RetailerCode: format.RetailerCode,
		CardNumber:   field(index, record, ColumnCardNumber),
	}
	if input.CardNumber == "" {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "card_number is required")
	}
	if pin := field(index, record, ColumnPin); pin != "" {
		input.CardPin = &pin
	} else if format.RequiresPin {
		return input, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("pin is required for retailer %s", format.RetailerCode))
	}

	var err error
	if input.AcquisitionCost, err = amount(index, record, ColumnAcquisitionCost); err != nil {
		return input, err
	}
	if input.FaceValue, err = amount(index, record, ColumnFaceValue); err != nil {
		return input, err
	}
	if raw := field(index, record, ColumnRemainingBalance); raw != "" {
		remaining, err := money.Parse(raw)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, ColumnRemainingBalance+": "+err.Error())
		}
		input.RemainingBalance = &remaining
	}
	return input, nil
}

func amount(index map[string]int, record []string, column string) (decimal.Decimal, error) {
	raw := field(index, record, column)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := money.Parse(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, column+": "+err.Error())
	}
	return d, nil
}

func exportValue(column string, card giftcards.GiftCardDTO) string {
	switch column {
	case ColumnCardNumber:
		return card.CardNumber
	case ColumnPin:
		if card.CardPin == nil {
			return ""
		}
		return *card.CardPin
	case ColumnAcquisitionCost:
		return money.Format(card.AcquisitionCost)
	case ColumnFaceValue:
		return money.Format(card.FaceValue)
	case ColumnRemainingBalance:
		return money.Format(card.RemainingBalance)
	}
	return ""
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	return index
}

func missingColumns(format Format, index map[string]int) []string {
	var missing []string
	for _, col := range format.Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

func field(index map[string]int, record []string, column string) string {
	i, ok := index[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
