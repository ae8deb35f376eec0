package vesting_test

import (
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paymento/paymento-token-vesting-contract/vesting"
)

// Races purchases on two open stages at once. Per-stage serialization must
// keep every counter consistent: supply decrements, collected funds and the
// per-buyer split all add up exactly.
func TestConcurrentBuys(t *testing.T) {
	t.Parallel()
	contract, ledger, _, owner := newTestContract(t)

	// StrategicRound: 1 ETH buys 8000 PMO, 5% immediate.
	// PreSale: 1 ETH buys 5000 PMO, 12% immediate.
	stages := []vesting.StageID{4, 7}
	for _, stageID := range stages {
		require.NoError(t, contract.SetStageOpen(owner, stageID))
	}

	const buyers = 16

	errs := make([]error, buyers*len(stages))
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		for j, stageID := range stages {
			wg.Add(1)
			go func(slot, buyer int, stageID vesting.StageID) {
				defer wg.Done()
				errs[slot] = contract.Buy(fmt.Sprintf("%040x", buyer+1), stageID, wei(1))
			}(i*len(stages)+j, i, stageID)
		}
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	available, err := contract.GetTokensAvailableToBuy(4)
	require.NoError(t, err)
	require.Equal(t, wei(35000000-buyers*8000), available)

	available, err = contract.GetTokensAvailableToBuy(7)
	require.NoError(t, err)
	require.Equal(t, wei(45500000-buyers*5000), available)

	collected, err := contract.CollectedFunds()
	require.NoError(t, err)
	require.Equal(t, wei(2*buyers), collected)

	for i := 0; i < buyers; i++ {
		buyer := fmt.Sprintf("%040x", i+1)

		balance, err := contract.CheckBalance(4, buyer)
		require.NoError(t, err)
		require.Equal(t, wei(7600), balance)

		balance, err = contract.CheckBalance(7, buyer)
		require.NoError(t, err)
		require.Equal(t, wei(4400), balance)

		ledgerBalance, err := ledger.BalanceOf(buyer)
		require.NoError(t, err)
		require.Equal(t, wei(400+600), ledgerBalance)

		// Both purchases must land in the holder's stage index even though
		// they ran under different stage locks.
		userStages, allocations, err := contract.GetAllocationsForAllStages(buyer)
		require.NoError(t, err)
		require.ElementsMatch(t, stages, userStages)
		require.Len(t, allocations, 2)
	}
}

// Races grants whose sum exceeds the stage supply. Exactly as many must land
// as the supply covers, and the supply must never go negative.
func TestConcurrentAllocationsRespectSupply(t *testing.T) {
	t.Parallel()
	contract, _, _, owner := newTestContract(t)

	const stageID = vesting.StageID(4)

	require.NoError(t, contract.SetStageOpen(owner, stageID))

	// 10 grants of 4M against a 35M supply: only 8 fit.
	const grants = 10

	errs := make([]error, grants)
	var wg sync.WaitGroup
	for i := 0; i < grants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			beneficiary := fmt.Sprintf("%040x", 0xa0+i)
			errs[i] = contract.AllocateTokens(owner, stageID, beneficiary, wei(4000000))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, vesting.ErrSupplyExceeded)
	}
	require.Equal(t, 8, succeeded)

	available, err := contract.GetTokensAvailableToBuy(stageID)
	require.NoError(t, err)
	require.Equal(t, wei(3000000), available)
}

// Races claims against a single allocation. Only the first claim to take the
// stage lock finds elapsed days; the rest claim zero, and the claimed total
// never exceeds the allocation.
func TestConcurrentClaimsSingleHolder(t *testing.T) {
	t.Parallel()
	contract, ledger, clock, owner := newTestContract(t)

	const stageID = vesting.StageID(4)

	require.NoError(t, contract.SetStageOpen(owner, stageID))
	require.NoError(t, contract.AllocateTokens(owner, stageID, testAccount1, wei(1000)))

	clock.Advance(10 * 24 * time.Hour)

	const claimers = 8

	errs := make([]error, claimers)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = contract.ClaimTokens(testAccount1, stageID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	claimedOnce := new(big.Int).Mul(wei(950), big.NewInt(10))
	claimedOnce.Div(claimedOnce, big.NewInt(720))

	ledgerBalance, err := ledger.BalanceOf(testAccount1)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Add(wei(50), claimedOnce), ledgerBalance)

	remaining, err := contract.CheckBalance(stageID, testAccount1)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Sub(wei(950), claimedOnce), remaining)
	require.True(t, remaining.Sign() >= 0)

	_, totals, err := contract.GetTotalClaimsForAllStages(testAccount1)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	require.Equal(t, claimedOnce, totals[0])
}
