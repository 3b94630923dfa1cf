package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:        "order-1",
		UserID:    "user-1",
		ClientRef: "client-1",
		Lines: []domain.OrderLine{
			{
				ProductID:      "product-1",
				Qty:            5,
				UnitPriceMinor: 100,
				TotalMinor:     500,
			},
		},
		TotalItems: 5,
		TotalMinor: 500,
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no user",
			mut: func(o *domain.Order) {
				o.UserID = ""
			},
		},
		{
			name: "no lines",
			mut: func(o *domain.Order) {
				o.Lines = nil
				o.TotalItems = 0
				o.TotalMinor = 0
			},
		},
		{
			name: "negative qty",
			mut: func(o *domain.Order) {
				o.Lines[0].Qty = -1
			},
		},
		{
			name: "negative price",
			mut: func(o *domain.Order) {
				o.Lines[0].UnitPriceMinor = -5
			},
		},
		{
			name: "total mismatch",
			mut: func(o *domain.Order) {
				o.TotalMinor = 999
			},
		},
		{
			name: "total items mismatch",
			mut: func(o *domain.Order) {
				o.TotalItems = 42
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestOrderLinesTotals(t *testing.T) {
	order := makeOrder()
	order.Lines = append(order.Lines, domain.OrderLine{
		ProductID:      "product-2",
		Qty:            2,
		UnitPriceMinor: 250,
	})

	if got := order.LinesTotal(); got != 1000 {
		t.Fatalf("LinesTotal = %d, want 1000", got)
	}
	if got := order.LinesQty(); got != 7 {
		t.Fatalf("LinesQty = %d, want 7", got)
	}
}
