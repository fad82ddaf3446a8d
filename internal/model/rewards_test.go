package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ladder() []RewardsTier {
	return []RewardsTier{
		{TierName: "Bronze", TierLevel: 1, PointsRequired: 100},
		{TierName: "Silver", TierLevel: 2, PointsRequired: 500},
		{TierName: "Gold", TierLevel: 3, PointsRequired: 1500},
		{TierName: "Platinum", TierLevel: 4, PointsRequired: 3000},
		{TierName: "Diamond", TierLevel: 5, PointsRequired: 6000},
	}
}

func TestResolveTierBelowLowestThreshold(t *testing.T) {
	assert.Nil(t, ResolveTier(ladder(), 0))
	assert.Nil(t, ResolveTier(ladder(), 99))
}

func TestResolveTierExactThreshold(t *testing.T) {
	tier := ResolveTier(ladder(), 100)
	require.NotNil(t, tier)
	assert.Equal(t, "Bronze", tier.TierName)

	tier = ResolveTier(ladder(), 6000)
	require.NotNil(t, tier)
	assert.Equal(t, "Diamond", tier.TierName)
}

func TestResolveTierBetweenThresholds(t *testing.T) {
	tier := ResolveTier(ladder(), 1499)
	require.NotNil(t, tier)
	assert.Equal(t, "Silver", tier.TierName)
}

func TestResolveTierUnorderedInput(t *testing.T) {
	tiers := ladder()
	tiers[0], tiers[4] = tiers[4], tiers[0]
	tiers[1], tiers[3] = tiers[3], tiers[1]

	tier := ResolveTier(tiers, 2000)
	require.NotNil(t, tier)
	assert.Equal(t, "Gold", tier.TierName)
}

func TestNextTier(t *testing.T) {
	next := NextTier(ladder(), 0)
	require.NotNil(t, next)
	assert.Equal(t, "Bronze", next.TierName)

	next = NextTier(ladder(), 100)
	require.NotNil(t, next)
	assert.Equal(t, "Silver", next.TierName)

	assert.Nil(t, NextTier(ladder(), 6000), "no next tier at the top of the ladder")
}

func TestTierProgress(t *testing.T) {
	// Halfway from zero to Bronze.
	assert.InDelta(t, 50.0, TierProgress(ladder(), 50), 0.001)

	// Exactly on a threshold starts the next segment at zero.
	assert.InDelta(t, 0.0, TierProgress(ladder(), 100), 0.001)

	// Halfway between Bronze (100) and Silver (500).
	assert.InDelta(t, 50.0, TierProgress(ladder(), 300), 0.001)

	// At or beyond the top tier.
	assert.InDelta(t, 100.0, TierProgress(ladder(), 6000), 0.001)
	assert.InDelta(t, 100.0, TierProgress(ladder(), 10000), 0.001)
}

func TestLeadStatusValidation(t *testing.T) {
	for _, status := range ValidLeadStatuses {
		assert.True(t, status.IsValid(), string(status))
	}
	assert.False(t, LeadStatus("archived").IsValid())
	assert.False(t, LeadStatus("").IsValid())
}

func TestLeadStatusIsClosed(t *testing.T) {
	assert.True(t, LeadStatusWonClosed.IsClosed())
	assert.True(t, LeadStatusLostClosed.IsClosed())
	assert.False(t, LeadStatusNew.IsClosed())
	assert.False(t, LeadStatusInProgress.IsClosed())
}

func TestApprovalStatusIsTerminal(t *testing.T) {
	assert.False(t, ApprovalStatusPending.IsTerminal())
	assert.True(t, ApprovalStatusApproved.IsTerminal())
	assert.True(t, ApprovalStatusRejected.IsTerminal())
}
