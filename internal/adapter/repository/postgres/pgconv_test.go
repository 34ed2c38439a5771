package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "100", "100.50", "-42.007", "0.01", "123456789012345678.99"} {
		t.Run(s, func(t *testing.T) {
			d := decimal.RequireFromString(s)
			n := decimalToNumeric(d)

			assert.True(t, n.Valid)
			assert.True(t, d.Equal(numericToDecimal(n)), "got %s", numericToDecimal(n))
		})
	}
}

func TestNumericToDecimal_Null(t *testing.T) {
	assert.True(t, numericToDecimal(pgtype.Numeric{}).IsZero())
}

func TestOptionalConversions(t *testing.T) {
	assert.False(t, optionalText("").Valid)
	assert.Equal(t, pgtype.Text{String: "acc-1", Valid: true}, optionalText("acc-1"))

	assert.False(t, optionalTimestamptz(nil).Valid)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, pgtype.Timestamptz{Time: at, Valid: true}, optionalTimestamptz(&at))
}

func TestMapRows(t *testing.T) {
	assert.Empty(t, mapRows([]int(nil), func(i int) int { return i }))
	assert.Equal(t, []string{"a1", "a2"}, mapRows([]int{1, 2}, func(i int) string { return "a" + string(rune('0'+i)) }))
}
