package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLookupByNameCaseInsensitive(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	p, err := l.LookupByName(ctx, "juan DELA cruz")
	require.NoError(t, err)
	assert.Equal(t, "MAX-2024-00123", p.PolicyNumber)
	assert.Equal(t, "Maxicare", p.InsuranceProvider)

	p, err = l.LookupByName(ctx, "  Maria Santos ")
	require.NoError(t, err)
	assert.Equal(t, "AIA-2024-00456", p.PolicyNumber)
}

func TestLookupByNameNotFound(t *testing.T) {
	l := openTestLedger(t)

	_, err := l.LookupByName(context.Background(), "Pedro Penduko")
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestPolicyValidity(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	mustDate := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	juan, err := l.LookupByName(ctx, "Juan dela Cruz")
	require.NoError(t, err)
	ok, reason := juan.Validity(mustDate("2026-08-31"))
	assert.True(t, ok)
	assert.Equal(t, "Policy is active and valid", reason)

	// Active status but the validity window has passed.
	roberto, err := l.LookupByName(ctx, "Roberto Reyes")
	require.NoError(t, err)
	ok, reason = roberto.Validity(mustDate("2026-08-31"))
	assert.False(t, ok)
	assert.Equal(t, "Policy expired on 2026-03-01", reason)
	ok, _ = roberto.Validity(mustDate("2025-12-01"))
	assert.True(t, ok)

	// Status check fires before the date check.
	maria, err := l.LookupByName(ctx, "Maria Santos")
	require.NoError(t, err)
	ok, reason = maria.Validity(mustDate("2024-09-01"))
	assert.False(t, ok)
	assert.Equal(t, "Policy is expired", reason)
}

func TestClaimsInPeriodFiltersByWindow(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	claims, err := l.ClaimsInPeriod(ctx, "AIA-2024-00456", "2024-06-01", "2025-06-01")
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "CLM-2024-234", claims[0].ClaimID)
	assert.Equal(t, "CLM-2025-012", claims[1].ClaimID)

	claims, err = l.ClaimsInPeriod(ctx, "AIA-2024-00456", "2024-06-01", "2024-12-31")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, "CLM-2024-234", claims[0].ClaimID)
}

func TestBenefitUsage(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	juan, err := l.LookupByName(ctx, "Juan dela Cruz")
	require.NoError(t, err)

	usage, err := l.BenefitUsage(ctx, juan)
	require.NoError(t, err)
	assert.Len(t, usage.Claims, 2)
	assert.InDelta(t, 170000.00, usage.Used, 0.001)
	assert.InDelta(t, 330000.00, usage.Remaining, 0.001)
}

func TestBenefitUsageRemainingNeverNegative(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	roberto, err := l.LookupByName(ctx, "Roberto Reyes")
	require.NoError(t, err)

	// Shrink the limit below the claimed total.
	roberto.MaxBenefitLimit = 100000.00

	usage, err := l.BenefitUsage(ctx, roberto)
	require.NoError(t, err)
	assert.InDelta(t, 175000.00, usage.Used, 0.001)
	assert.Equal(t, 0.0, usage.Remaining)
}
