package imports

import "github.com/angelmondragon/cardledger/internal/retailers"

// Column names understood in gift card CSV files.
const (
	ColumnCardNumber       = "card_number"
	ColumnPin              = "pin"
	ColumnAcquisitionCost  = "acquisition_cost"
	ColumnFaceValue        = "face_value"
	ColumnRemainingBalance = "remaining_balance"
)

// Format lists the columns a retailer's file must carry.
type Format struct {
	RetailerCode string
	Columns      []string
	RequiresPin  bool
}

var (
	withPin    = []string{ColumnCardNumber, ColumnPin, ColumnAcquisitionCost, ColumnFaceValue, ColumnRemainingBalance}
	withoutPin = []string{ColumnCardNumber, ColumnAcquisitionCost, ColumnFaceValue, ColumnRemainingBalance}
)

var formats = map[string]Format{
	"BBY": {RetailerCode: "BBY", Columns: withPin, RequiresPin: true},
	"DDR": {RetailerCode: "DDR", Columns: withoutPin},
	"LWS": {RetailerCode: "LWS", Columns: withoutPin},
	"HDP": {RetailerCode: "HDP", Columns: withPin, RequiresPin: true},
	"AMZ": {RetailerCode: "AMZ", Columns: withoutPin},
}

// FormatFor returns the file layout for a retailer. Retailers without a known
// layout use the pin-less columns; a pin column is still read when present.
func FormatFor(code string) Format {
	code = retailers.NormalizeCode(code)
	if f, ok := formats[code]; ok {
		return f
	}
	return Format{RetailerCode: code, Columns: withoutPin}
}
