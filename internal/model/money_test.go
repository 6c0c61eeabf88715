package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromString(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		currency  string
		wantCents int64
		wantErr   error
	}{
		{
			name:      "cents amount is exact",
			amount:    "0.01",
			currency:  "USD",
			wantCents: 1,
		},
		{
			name:      "whole amount is exact",
			amount:    "100",
			currency:  "ARS",
			wantCents: 10000,
		},
		{
			name:      "large amount is exact",
			amount:    "1000000.00",
			currency:  "EUR",
			wantCents: 100000000,
		},
		{
			name:      "extra decimals round half away from zero",
			amount:    "10.005",
			currency:  "USD",
			wantCents: 1001,
		},
		{
			name:      "mep currency accepted",
			amount:    "1.50",
			currency:  "USD_MEP",
			wantCents: 150,
		},
		{
			name:     "negative amount rejected",
			amount:   "-1",
			currency: "USD",
			wantErr:  ErrInvalidArgument,
		},
		{
			name:     "empty amount rejected",
			amount:   "",
			currency: "USD",
			wantErr:  ErrInvalidArgument,
		},
		{
			name:     "non-numeric amount rejected",
			amount:   "abc",
			currency: "USD",
			wantErr:  ErrInvalidArgument,
		},
		{
			name:     "empty currency rejected",
			amount:   "10",
			currency: "",
			wantErr:  ErrInvalidArgument,
		},
		{
			name:     "unknown currency rejected",
			amount:   "10",
			currency: "GBP",
			wantErr:  ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromString(tt.amount, tt.currency)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCents, m.Cents())
			assert.Equal(t, Currency(tt.currency), m.Currency())
		})
	}
}

func TestMoney_Add(t *testing.T) {
	a, err := NewMoneyFromString("0.10", "USD")
	require.NoError(t, err)
	b, err := NewMoneyFromString("0.20", "USD")
	require.NoError(t, err)
	c, err := NewMoneyFromString("0.30", "USD")
	require.NoError(t, err)

	t.Run("no float drift", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.Equal(t, int64(30), sum.Cents())
	})

	t.Run("commutative", func(t *testing.T) {
		ab, err := a.Add(b)
		require.NoError(t, err)
		ba, err := b.Add(a)
		require.NoError(t, err)
		assert.Equal(t, ab.Cents(), ba.Cents())
	})

	t.Run("associative", func(t *testing.T) {
		ab, err := a.Add(b)
		require.NoError(t, err)
		abc, err := ab.Add(c)
		require.NoError(t, err)

		bc, err := b.Add(c)
		require.NoError(t, err)
		aBC, err := a.Add(bc)
		require.NoError(t, err)

		assert.Equal(t, abc.Cents(), aBC.Cents())
	})

	t.Run("currency mismatch rejected", func(t *testing.T) {
		eur, err := NewMoneyFromString("1.00", "EUR")
		require.NoError(t, err)

		_, err = a.Add(eur)
		assert.ErrorIs(t, err, ErrCurrencyMismatch)
	})
}

func TestMoney_Divide(t *testing.T) {
	t.Run("exact division", func(t *testing.T) {
		m, err := NewMoneyFromString("5.00", "USD")
		require.NoError(t, err)

		half, err := m.Divide(decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.Equal(t, int64(250), half.Cents())
	})

	t.Run("rounds half away from zero", func(t *testing.T) {
		m, err := NewMoneyFromString("0.05", "USD")
		require.NoError(t, err)

		half, err := m.Divide(decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.Equal(t, int64(3), half.Cents())
	})

	t.Run("not reversible by mul", func(t *testing.T) {
		m, err := NewMoneyFromString("1.00", "USD")
		require.NoError(t, err)

		third, err := m.Divide(decimal.NewFromInt(3))
		require.NoError(t, err)
		assert.Equal(t, int64(33), third.Cents())

		back := third.Mul(decimal.NewFromInt(3))
		assert.Equal(t, int64(99), back.Cents())
	})

	t.Run("division by zero rejected", func(t *testing.T) {
		m, err := NewMoneyFromString("1.00", "USD")
		require.NoError(t, err)

		_, err = m.Divide(decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestMoney_Serialize(t *testing.T) {
	m, err := NewMoneyFromString("1234.56", "ARS")
	require.NoError(t, err)

	got := m.Serialize()
	assert.Equal(t, int64(123456), got.Cents)
	assert.Equal(t, "ARS", got.Currency)
	assert.InDelta(t, 1234.56, got.FloatValue, 0.000001)
}
