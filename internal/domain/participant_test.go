package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func participant(id string, role ParticipantRole, rate int64) *AccountParticipant {
	return &AccountParticipant{
		ParticipantID:    id,
		AccountID:        "acc-joint",
		UserID:           "user-" + id,
		Role:             role,
		ContributionRate: decimal.NewFromInt(rate),
	}
}

func TestValidateContributionRates(t *testing.T) {
	tests := []struct {
		name         string
		participants []*AccountParticipant
		wantErr      bool
	}{
		{
			name:         "sums to 100",
			participants: []*AccountParticipant{participant("p1", RolePrimary, 60), participant("p2", RoleJoint, 40)},
		},
		{
			name:         "single participant at 100",
			participants: []*AccountParticipant{participant("p1", RolePrimary, 100)},
		},
		{
			name:         "sums below 100",
			participants: []*AccountParticipant{participant("p1", RolePrimary, 60), participant("p2", RoleJoint, 30)},
			wantErr:      true,
		},
		{
			name:         "sums above 100",
			participants: []*AccountParticipant{participant("p1", RolePrimary, 70), participant("p2", RoleJoint, 40)},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContributionRates(tt.participants)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSplitContribution(t *testing.T) {
	t.Run("even split", func(t *testing.T) {
		parts := []*AccountParticipant{participant("p1", RolePrimary, 60), participant("p2", RoleJoint, 40)}
		shares, err := SplitContribution(decimal.NewFromInt(100000), parts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !shares[0].Amount.Equal(decimal.NewFromInt(60000)) {
			t.Errorf("expected 60000 for p1, got %s", shares[0].Amount)
		}
		if !shares[1].Amount.Equal(decimal.NewFromInt(40000)) {
			t.Errorf("expected 40000 for p2, got %s", shares[1].Amount)
		}
	})

	t.Run("rounding remainder goes to primary", func(t *testing.T) {
		parts := []*AccountParticipant{
			participant("p1", RoleJoint, 33),
			participant("p2", RolePrimary, 33),
			participant("p3", RoleJoint, 34),
		}
		amount := decimal.NewFromInt(100)
		shares, err := SplitContribution(amount, parts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		total := decimal.Zero
		for _, s := range shares {
			total = total.Add(s.Amount)
		}
		if !total.Equal(amount) {
			t.Errorf("shares sum to %s, want %s", total, amount)
		}
		if !shares[0].Amount.Equal(decimal.NewFromInt(33)) {
			t.Errorf("expected exactly 33 for non-primary p1, got %s", shares[0].Amount)
		}
	})

	t.Run("fractional rates conserve the amount", func(t *testing.T) {
		parts := []*AccountParticipant{
			{ParticipantID: "p1", Role: RolePrimary, ContributionRate: decimal.RequireFromString("33.33")},
			{ParticipantID: "p2", Role: RoleJoint, ContributionRate: decimal.RequireFromString("33.33")},
			{ParticipantID: "p3", Role: RoleJoint, ContributionRate: decimal.RequireFromString("33.34")},
		}
		amount := decimal.NewFromInt(100000)
		shares, err := SplitContribution(amount, parts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		total := decimal.Zero
		for _, s := range shares {
			total = total.Add(s.Amount)
		}
		if !total.Equal(amount) {
			t.Errorf("shares sum to %s, want %s", total, amount)
		}
	})

	t.Run("invalid rates rejected", func(t *testing.T) {
		parts := []*AccountParticipant{participant("p1", RolePrimary, 50)}
		if _, err := SplitContribution(decimal.NewFromInt(100), parts); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("no participants rejected", func(t *testing.T) {
		if _, err := SplitContribution(decimal.NewFromInt(100), nil); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
