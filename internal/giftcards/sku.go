package giftcards

import (
	"fmt"
	"time"
)

// SKUPrefix is the per-retailer, per-day prefix of generated skus.
func SKUPrefix(code string, day time.Time) string {
	return fmt.Sprintf("%s-%s", code, day.UTC().Format("20060102"))
}

// FormatSKU renders <CODE>-<YYYYMMDD>-<NNNN>.
func FormatSKU(prefix string, sequence int) string {
	return fmt.Sprintf("%s-%04d", prefix, sequence)
}
