package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParticipantRole distinguishes the primary holder of a joint account.
type ParticipantRole string

const (
	RolePrimary ParticipantRole = "primary"
	RoleJoint   ParticipantRole = "joint"
)

var participantRoleDescriptions = map[ParticipantRole]string{
	RolePrimary: "primary holder",
	RoleJoint:   "joint holder",
}

// Description returns the human-readable description of the role.
func (r ParticipantRole) Description() string {
	return participantRoleDescriptions[r]
}

// AccountParticipant links a joint account to one contributing user with
// the percentage of the monthly amount that user owes. Read-only after the
// joint account is formed.
type AccountParticipant struct {
	ParticipantID    string
	AccountID        string
	UserID           string
	Role             ParticipantRole
	ContributionRate decimal.Decimal // percent, all participants sum to 100
	CreatedAt        time.Time
}

var hundred = decimal.NewFromInt(100)

// ValidateContributionRates checks that rates across all participants of
// one joint account sum to exactly 100 percent.
func ValidateContributionRates(participants []*AccountParticipant) error {
	total := decimal.Zero
	for _, p := range participants {
		total = total.Add(p.ContributionRate)
	}
	if !total.Equal(hundred) {
		return ErrInvalidContributionRates
	}
	return nil
}

// ContributionShare is one participant's computed share of a contribution.
type ContributionShare struct {
	Participant *AccountParticipant
	Amount      decimal.Decimal
}

// SplitContribution splits amount across participants by contribution rate.
// Each share is truncated to two decimal places and the rounding remainder
// is attributed to the primary participant (the first participant if none
// is marked primary), so shares always sum exactly to amount.
func SplitContribution(amount decimal.Decimal, participants []*AccountParticipant) ([]ContributionShare, error) {
	if len(participants) == 0 {
		return nil, ErrInvalidContributionRates
	}
	if err := ValidateContributionRates(participants); err != nil {
		return nil, err
	}

	shares := make([]ContributionShare, len(participants))
	allocated := decimal.Zero
	primary := 0

	for i, p := range participants {
		share := amount.Mul(p.ContributionRate).Div(hundred).Truncate(2)
		shares[i] = ContributionShare{Participant: p, Amount: share}
		allocated = allocated.Add(share)

		if p.Role == RolePrimary {
			primary = i
		}
	}

	remainder := amount.Sub(allocated)
	if !remainder.IsZero() {
		shares[primary].Amount = shares[primary].Amount.Add(remainder)
	}

	return shares, nil
}
