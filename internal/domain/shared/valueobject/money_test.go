package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(10000), KRW)
	require.NoError(t, err)
	assert.Equal(t, KRW, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(10000)))

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)
}

func TestMoney_Add(t *testing.T) {
	a := NewMoneyKRWFromInt(10000)
	b := NewMoneyKRWFromInt(2500)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equals(NewMoneyKRWFromInt(12500)))

	usd, err := NewMoney(decimal.NewFromInt(10), USD)
	require.NoError(t, err)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoney_MultiplyByInt(t *testing.T) {
	m := NewMoneyKRWFromInt(10000)
	assert.True(t, m.MultiplyByInt(3).Equals(NewMoneyKRWFromInt(30000)))
	assert.True(t, m.MultiplyByInt(0).IsZero())
}

func TestMoney_ApplyDiscountRate(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rate     string
		expected int64
	}{
		{"five percent", 10000, "0.05", 9500},
		{"ten percent", 10000, "0.10", 9000},
		{"zero rate", 10000, "0", 10000},
		{"rounds down to whole units", 9999, "0.05", 9499},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tt.rate)
			require.NoError(t, err)
			got := NewMoneyKRWFromInt(tt.amount).ApplyDiscountRate(rate)
			assert.True(t, got.Equals(NewMoneyKRWFromInt(tt.expected)),
				"got %s, want %d", got.String(), tt.expected)
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "10000 KRW", NewMoneyKRWFromInt(10000).String())
	assert.Equal(t, "0 KRW", ZeroKRW().String())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	original := NewMoneyKRWFromInt(9500)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"9500","currency":"KRW"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equals(decoded))
}

func TestMoney_Value(t *testing.T) {
	v, err := NewMoneyKRWFromInt(10000).Value()
	require.NoError(t, err)
	assert.Equal(t, "10000", v)
}

func TestMoney_Scan(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int64
	}{
		{"string", "10000", 10000},
		{"bytes", []byte("2500"), 2500},
		// sqlite returns numeric-affinity columns as int64 or float64
		{"int64", int64(9500), 9500},
		{"float64", float64(1200), 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			require.NoError(t, m.Scan(tt.input))
			assert.True(t, m.Equals(NewMoneyKRWFromInt(tt.expected)))
			assert.Equal(t, DefaultCurrency, m.Currency())
		})
	}
}

func TestMoney_Scan_Nil(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())
	assert.Equal(t, DefaultCurrency, m.Currency())
}

func TestMoney_Scan_Invalid(t *testing.T) {
	var m Money
	assert.Error(t, m.Scan("not-a-number"))
	assert.Error(t, m.Scan(true))
}
