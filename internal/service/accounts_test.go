package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/models"
)

func TestConvertCurrency(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		from   int
		to     int
		want   string
	}{
		{"same currency", "100.00", models.CurrencyGTQ, models.CurrencyGTQ, "100"},
		{"usd to gtq", "100.00", models.CurrencyUSD, models.CurrencyGTQ, "770"},
		{"gtq to usd", "770.00", models.CurrencyGTQ, models.CurrencyUSD, "100"},
		{"eur to gtq", "10.00", models.CurrencyEUR, models.CurrencyGTQ, "85"},
		{"usd to eur rounds", "100.00", models.CurrencyUSD, models.CurrencyEUR, "90.59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertCurrency(decimal.RequireFromString(tt.amount), tt.from, tt.to)
			if err != nil {
				t.Fatalf("ConvertCurrency() error = %v", err)
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ConvertCurrency() = %s, want %s", got, want)
			}
		})
	}
}

func TestConvertCurrencyUnknown(t *testing.T) {
	if _, err := ConvertCurrency(decimal.NewFromInt(10), 99, models.CurrencyGTQ); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown source currency error = %v, want ErrValidation", err)
	}
	if _, err := ConvertCurrency(decimal.NewFromInt(10), models.CurrencyGTQ, 99); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown dest currency error = %v, want ErrValidation", err)
	}
}
