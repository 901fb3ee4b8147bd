package database

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// DecimalToNumeric converts a decimal amount to pgtype.Numeric for binding.
// Amounts are stored with two decimal places.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.StringFixed(2)); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

// NumericToDecimal converts a scanned pgtype.Numeric back to a decimal.
// NULL scans as zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// NumericToString renders a numeric as a fixed two-decimal string for JSON.
func NumericToString(n pgtype.Numeric) string {
	return NumericToDecimal(n).StringFixed(2)
}
