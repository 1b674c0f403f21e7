package payments

import (
	"errors"
	"testing"

	"github.com/FindNest-Estate/NestFind-sub001/internal/models"
)

func TestRequiredAmounts(t *testing.T) {
	gate := NewGate(1, 9)

	tests := []struct {
		agreed    int64
		milestone Milestone
		want      int64
	}{
		{5000000, MilestoneToken, 5000},
		{5000000, MilestoneCommission, 45000},
		{4800000, MilestoneToken, 4800},
		{4800000, MilestoneCommission, 43200},
		{1000, MilestoneToken, 1},
		{1000, MilestoneCommission, 9},
		// Sub-unit remainders round up.
		{1001, MilestoneToken, 2},
		{999, MilestoneToken, 1},
	}
	for _, tt := range tests {
		got, err := gate.RequiredAmount(tt.agreed, tt.milestone)
		if err != nil {
			t.Errorf("RequiredAmount(%d, %s): %v", tt.agreed, tt.milestone, err)
			continue
		}
		if got != tt.want {
			t.Errorf("RequiredAmount(%d, %s) = %d, want %d", tt.agreed, tt.milestone, got, tt.want)
		}
	}
}

func TestTokenPlusCommissionIsOnePercent(t *testing.T) {
	gate := NewGate(1, 9)
	for _, agreed := range []int64{5000000, 4800000, 1000000, 123000} {
		token, _ := gate.RequiredAmount(agreed, MilestoneToken)
		commission, _ := gate.RequiredAmount(agreed, MilestoneCommission)
		if token+commission != agreed/100 {
			t.Errorf("agreed %d: token %d + commission %d = %d, want %d",
				agreed, token, commission, token+commission, agreed/100)
		}
	}
}

func TestConfirmExactMatchOnly(t *testing.T) {
	gate := NewGate(1, 9)

	ok := models.PaymentConfirmation{Amount: 5000, ReferenceID: "pay-1"}
	if err := gate.Confirm(5000000, MilestoneToken, ok); err != nil {
		t.Fatalf("exact amount rejected: %v", err)
	}

	for _, amount := range []int64{4999, 5001, 0, -5000, 45000} {
		conf := models.PaymentConfirmation{Amount: amount, ReferenceID: "pay-2"}
		if err := gate.Confirm(5000000, MilestoneToken, conf); !errors.Is(err, models.ErrAmountMismatch) {
			t.Errorf("amount %d: got %v, want ErrAmountMismatch", amount, err)
		}
	}
}

func TestRequiredAmountRejectsBadInput(t *testing.T) {
	gate := NewGate(1, 9)
	if _, err := gate.RequiredAmount(0, MilestoneToken); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("zero agreed: got %v, want ErrInvalidAmount", err)
	}
	if _, err := gate.RequiredAmount(5000000, Milestone("deposit")); !errors.Is(err, models.ErrInvalidAmount) {
		t.Errorf("unknown milestone: got %v, want ErrInvalidAmount", err)
	}
}

func TestNewGateDefaults(t *testing.T) {
	gate := NewGate(0, 0)
	if gate.TokenPermille != 1 || gate.CommissionPermille != 9 {
		t.Fatalf("defaults = %d/%d, want 1/9", gate.TokenPermille, gate.CommissionPermille)
	}
}
