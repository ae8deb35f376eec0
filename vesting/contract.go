package vesting

import (
	"fmt"
	"math/big"
	"sync"
)

// TokenLedger is the fungible-token capability the contract draws on for the
// immediate-release transfer at allocation time and for claim payouts. The
// implementation is expected to debit the vesting pool's own balance.
type TokenLedger interface {
	Transfer(to string, amount *big.Int) error
	BalanceOf(address string) (*big.Int, error)
}

// VestingContract owns the staged-sale state: the stage table, per-holder
// allocations, the whitelist, the oracle rate and the collected payment
// balance. Every mutating operation takes the caller identity explicitly and
// is serialized per stage, so operations on different stages may run
// concurrently while claims and purchases against the same stage never
// interleave.
type VestingContract struct {
	store  StateStore
	ledger TokenLedger
	sink   EventSink
	clock  Clock

	owner string
	gated map[StageID]bool

	stageLocks []sync.Mutex
	fundsMu    sync.Mutex

	// indexMu serializes the records shared across stages: the per-holder
	// stage index and the contract-wide claim total.
	indexMu sync.Mutex
}

type Option func(*VestingContract)

// WithClock replaces the wall clock, letting tests advance vesting time the
// way the chain harness advances block time.
func WithClock(clock Clock) Option {
	return func(c *VestingContract) {
		c.clock = clock
	}
}

func WithEventSink(sink EventSink) Option {
	return func(c *VestingContract) {
		c.sink = sink
	}
}

// NewVestingContract validates the configuration, writes the stage table into
// the store and seeds the oracle rate. All stages start closed.
func NewVestingContract(store StateStore, ledger TokenLedger, config *Config, opts ...Option) (*VestingContract, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	contract := &VestingContract{
		store:      store,
		ledger:     ledger,
		sink:       NewLogSink(nil),
		clock:      systemClock{},
		owner:      config.Owner,
		gated:      make(map[StageID]bool),
		stageLocks: make([]sync.Mutex, len(config.Stages)),
	}

	for _, opt := range opts {
		opt(contract)
	}

	for _, stageID := range config.GatedStages {
		contract.gated[stageID] = true
	}

	for i, params := range config.Stages {
		if err := validateNSetStage(store, contract.sink, StageID(i), params); err != nil {
			return nil, err
		}
	}

	oracleRate := config.OracleRate
	if oracleRate == "" {
		oracleRate = defaultOracleRate
	}
	rate, err := parseAmount("oracle rate", oracleRate)
	if err != nil {
		return nil, err
	}
	if err := setBigInt(store, oracleRateKey, rate); err != nil {
		return nil, err
	}

	return contract, nil
}

func (c *VestingContract) Owner() string {
	return c.owner
}

func (c *VestingContract) requireOwner(caller string) error {
	if caller != c.owner {
		return fmt.Errorf("%w: caller %s is not the owner", ErrUnauthorized, caller)
	}
	return nil
}

func (c *VestingContract) lockStage(stageID StageID) (func(), error) {
	if int(stageID) >= len(c.stageLocks) {
		return nil, ErrStageNotFound(stageID)
	}
	c.stageLocks[stageID].Lock()
	return c.stageLocks[stageID].Unlock, nil
}

// GetStage is a public read of the full stage record.
func (c *VestingContract) GetStage(stageID StageID) (*VestingStage, error) {
	return GetVestingStage(c.store, stageID)
}

func (c *VestingContract) StageOpen(stageID StageID) (bool, error) {
	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return false, err
	}
	return stage.Open, nil
}

func (c *VestingContract) SetStageOpen(caller string, stageID StageID) error {
	return c.setStageStatus(caller, stageID, true)
}

func (c *VestingContract) SetStageClose(caller string, stageID StageID) error {
	return c.setStageStatus(caller, stageID, false)
}

func (c *VestingContract) setStageStatus(caller string, stageID StageID, open bool) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}

	unlock, err := c.lockStage(stageID)
	if err != nil {
		return err
	}
	defer unlock()

	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return err
	}

	// Re-opening an open stage (or re-closing a closed one) is a no-op.
	if stage.Open == open {
		return nil
	}

	stage.Open = open
	if err := SetVestingStage(c.store, stageID, stage); err != nil {
		return err
	}

	eventName := EventStageClosed
	if open {
		eventName = EventStageOpened
	}
	return emitEvent(c.sink, eventName, StageStatusEvent{StageID: stageID, Open: open})
}

func (c *VestingContract) GetTotalTokenForStage(stageID StageID) (*big.Int, error) {
	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return nil, err
	}
	return parseAmount("stage token count", stage.TokenCount)
}

// GetTokensAvailableToBuy returns the stage supply minus everything ever
// issued for the stage, through purchases and direct allocations alike.
func (c *VestingContract) GetTokensAvailableToBuy(stageID StageID) (*big.Int, error) {
	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return nil, err
	}

	supply, err := parseAmount("stage token count", stage.TokenCount)
	if err != nil {
		return nil, err
	}

	sold, err := GetTokensSold(c.store, stageID)
	if err != nil {
		return nil, err
	}

	return supply.Sub(supply, sold), nil
}

func (c *VestingContract) AddToWhitelist(caller string, stageID StageID, address string) error {
	return c.setWhitelisted(caller, stageID, address, true)
}

func (c *VestingContract) RemoveFromWhitelist(caller string, stageID StageID, address string) error {
	return c.setWhitelisted(caller, stageID, address, false)
}

func (c *VestingContract) setWhitelisted(caller string, stageID StageID, address string, whitelisted bool) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if !c.gated[stageID] {
		return ErrStageNotGated(stageID)
	}
	if !IsUserAddressValid(address) {
		return ErrInvalidAddress(address)
	}

	unlock, err := c.lockStage(stageID)
	if err != nil {
		return err
	}
	defer unlock()

	whitelistKey := fmt.Sprintf("%s_%d_%s", whitelistKeyPrefix, stageID, address)
	if whitelisted {
		err = c.store.PutState(whitelistKey, []byte("true"))
	} else {
		err = c.store.DelState(whitelistKey)
	}
	if err != nil {
		return fmt.Errorf("failed to update whitelist for stage %d: %w", stageID, err)
	}

	return emitEvent(c.sink, EventWhitelistUpdated, WhitelistUpdatedEvent{
		StageID:     stageID,
		Address:     address,
		Whitelisted: whitelisted,
	})
}

func (c *VestingContract) IsWhitelisted(stageID StageID, address string) (bool, error) {
	whitelistKey := fmt.Sprintf("%s_%d_%s", whitelistKeyPrefix, stageID, address)
	entry, err := c.store.GetState(whitelistKey)
	if err != nil {
		return false, fmt.Errorf("failed to get whitelist entry with key %s: %w", whitelistKey, err)
	}
	return entry != nil, nil
}

func (c *VestingContract) SetLatestEthUsdPrice(caller string, rate *big.Int) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if rate == nil || rate.Sign() <= 0 {
		return fmt.Errorf("%w: oracle rate", ErrCannotBeZero)
	}

	c.fundsMu.Lock()
	defer c.fundsMu.Unlock()

	if err := setBigInt(c.store, oracleRateKey, rate); err != nil {
		return err
	}

	return emitEvent(c.sink, EventOracleRateSet, OracleRateChangedEvent{Rate: rate.String()})
}

func (c *VestingContract) GetLatestEthUsdPrice() (*big.Int, error) {
	return getBigInt(c.store, oracleRateKey)
}

// AllocateTokens grants grossAmount (18-decimal base units) to the beneficiary
// in the given stage. The immediate-release cut is transferred through the
// token ledger right away; the remainder starts vesting.
func (c *VestingContract) AllocateTokens(caller string, stageID StageID, beneficiary string, grossAmount *big.Int) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if !IsUserAddressValid(beneficiary) {
		return ErrInvalidAddress(beneficiary)
	}
	if grossAmount == nil || grossAmount.Sign() <= 0 {
		return fmt.Errorf("%w: allocation amount", ErrCannotBeZero)
	}

	unlock, err := c.lockStage(stageID)
	if err != nil {
		return err
	}
	defer unlock()

	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return err
	}
	if !stage.Open {
		return ErrStageNotOpen(stageID)
	}

	return c.allocateLocked(stageID, stage, beneficiary, grossAmount)
}

// Buy converts a native-currency payment into tokens at the current oracle
// rate and the stage price, then allocates them like a direct grant. The
// payment accumulates in the owner-withdrawable balance.
func (c *VestingContract) Buy(caller string, stageID StageID, paymentAmount *big.Int) error {
	if !IsUserAddressValid(caller) {
		return ErrInvalidAddress(caller)
	}
	if paymentAmount == nil || paymentAmount.Sign() <= 0 {
		return fmt.Errorf("%w: payment amount", ErrCannotBeZero)
	}

	unlock, err := c.lockStage(stageID)
	if err != nil {
		return err
	}
	defer unlock()

	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return err
	}
	if !stage.Open {
		return ErrStageNotOpen(stageID)
	}

	if c.gated[stageID] {
		whitelisted, err := c.IsWhitelisted(stageID, caller)
		if err != nil {
			return err
		}
		if !whitelisted {
			return ErrNotWhitelistedForStage(stageID, caller)
		}
	}

	rate, err := c.GetLatestEthUsdPrice()
	if err != nil {
		return err
	}

	tokensGross := CalculateTokensForPayment(paymentAmount, rate, stage.Price)
	if tokensGross.Sign() == 0 {
		return fmt.Errorf("%w: payment converts to zero tokens", ErrCannotBeZero)
	}

	if err := c.allocateLocked(stageID, stage, caller, tokensGross); err != nil {
		return err
	}

	c.fundsMu.Lock()
	defer c.fundsMu.Unlock()

	collected, err := getBigInt(c.store, collectedFundsKey)
	if err != nil {
		return err
	}
	collected.Add(collected, paymentAmount)
	if err := setBigInt(c.store, collectedFundsKey, collected); err != nil {
		return err
	}

	return emitEvent(c.sink, EventTokensPurchased, TokensPurchasedEvent{
		StageID:       stageID,
		Buyer:         caller,
		PaymentAmount: paymentAmount.String(),
		TokensGross:   tokensGross.String(),
	})
}

// allocateLocked performs the supply check, the immediate/vesting split and
// the ledger transfer. The stage lock must be held and the stage known open.
func (c *VestingContract) allocateLocked(stageID StageID, stage *VestingStage, beneficiary string, grossAmount *big.Int) error {
	supply, err := parseAmount("stage token count", stage.TokenCount)
	if err != nil {
		return err
	}

	sold, err := GetTokensSold(c.store, stageID)
	if err != nil {
		return err
	}

	available := new(big.Int).Sub(supply, sold)
	if grossAmount.Cmp(available) > 0 {
		return ErrStageSupplyExceeded(stageID, grossAmount.String(), available.String())
	}

	immediate := CalculateImmediateRelease(grossAmount, stage.ImmediateReleasePercentage)
	vestingPortion := new(big.Int).Sub(grossAmount, immediate)

	allocation, err := GetAllocation(c.store, stageID, beneficiary)
	if err != nil {
		return err
	}

	// The payout runs before the first state write: a failed transfer must
	// leave no allocation or supply bookkeeping behind.
	if immediate.Sign() > 0 {
		if err := c.ledger.Transfer(beneficiary, immediate); err != nil {
			return fmt.Errorf("failed to transfer immediate release to %s: %w", beneficiary, err)
		}
	}

	if allocation == nil {
		allocation = &Allocation{
			TotalAllocations:   vestingPortion.String(),
			ClaimedAmount:      "0",
			LastClaimTimestamp: uint64(c.clock.Now().Unix()),
		}

		c.indexMu.Lock()
		userStageList, err := GetUserStages(c.store, beneficiary)
		if err == nil {
			err = SetUserStages(c.store, beneficiary, append(userStageList, stageID))
		}
		c.indexMu.Unlock()
		if err != nil {
			return err
		}
	} else {
		// The vesting clock deliberately keeps its origin here: a repeat
		// allocation grows the balance but only a claim restarts the clock.
		total, err := parseAmount("total allocations", allocation.TotalAllocations)
		if err != nil {
			return err
		}
		allocation.TotalAllocations = total.Add(total, vestingPortion).String()
	}

	if err := SetAllocation(c.store, stageID, beneficiary, allocation); err != nil {
		return err
	}

	sold.Add(sold, grossAmount)
	if err := SetTokensSold(c.store, stageID, sold); err != nil {
		return err
	}

	return emitEvent(c.sink, EventTokensAllocated, TokensAllocatedEvent{
		StageID:         stageID,
		Beneficiary:     beneficiary,
		GrossAmount:     grossAmount.String(),
		ImmediateAmount: immediate.String(),
		VestingAmount:   vestingPortion.String(),
	})
}

// CheckBalance returns the holder's unclaimed vesting balance for the stage,
// zero when no allocation exists.
func (c *VestingContract) CheckBalance(stageID StageID, address string) (*big.Int, error) {
	if _, err := GetVestingStage(c.store, stageID); err != nil {
		return nil, err
	}

	allocation, err := GetAllocation(c.store, stageID, address)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return big.NewInt(0), nil
	}

	return remainingBalance(allocation)
}

func remainingBalance(allocation *Allocation) (*big.Int, error) {
	total, err := parseAmount("total allocations", allocation.TotalAllocations)
	if err != nil {
		return nil, err
	}
	claimed, err := parseAmount("claimed amount", allocation.ClaimedAmount)
	if err != nil {
		return nil, err
	}
	return total.Sub(total, claimed), nil
}

// GetDaysPassedFromLatestClaim counts whole days since the vesting-clock
// origin, zero when the holder has no allocation in the stage.
func (c *VestingContract) GetDaysPassedFromLatestClaim(stageID StageID, address string) (uint64, error) {
	if _, err := GetVestingStage(c.store, stageID); err != nil {
		return 0, err
	}

	allocation, err := GetAllocation(c.store, stageID, address)
	if err != nil {
		return 0, err
	}
	if allocation == nil {
		return 0, nil
	}

	return daysBetween(allocation.LastClaimTimestamp, uint64(c.clock.Now().Unix())), nil
}

// CheckClaimableTokens computes the amount a claim would transfer right now.
func (c *VestingContract) CheckClaimableTokens(stageID StageID, address string) (*big.Int, error) {
	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return nil, err
	}

	allocation, err := GetAllocation(c.store, stageID, address)
	if err != nil {
		return nil, err
	}
	if allocation == nil {
		return big.NewInt(0), nil
	}

	remaining, err := remainingBalance(allocation)
	if err != nil {
		return nil, err
	}

	daysPassed := daysBetween(allocation.LastClaimTimestamp, uint64(c.clock.Now().Unix()))

	return CalculateClaimableAmount(remaining, daysPassed, stage.VestingDays), nil
}

// ClaimTokens transfers the currently vested balance to the caller and
// restarts the caller's vesting clock for the stage. A claim with nothing
// allocated is a successful no-op.
func (c *VestingContract) ClaimTokens(caller string, stageID StageID) error {
	if !IsUserAddressValid(caller) {
		return ErrInvalidAddress(caller)
	}

	unlock, err := c.lockStage(stageID)
	if err != nil {
		return err
	}
	defer unlock()

	stage, err := GetVestingStage(c.store, stageID)
	if err != nil {
		return err
	}

	allocation, err := GetAllocation(c.store, stageID, caller)
	if err != nil {
		return err
	}
	if allocation == nil {
		return nil
	}

	now := uint64(c.clock.Now().Unix())

	remaining, err := remainingBalance(allocation)
	if err != nil {
		return err
	}

	daysPassed := daysBetween(allocation.LastClaimTimestamp, now)
	amountToClaim := CalculateClaimableAmount(remaining, daysPassed, stage.VestingDays)

	// The payout runs before the first state write: a failed transfer must
	// leave the claim record and the vesting clock untouched.
	if amountToClaim.Sign() > 0 {
		if err := c.ledger.Transfer(caller, amountToClaim); err != nil {
			return fmt.Errorf("failed to transfer claim to %s: %w", caller, err)
		}
	}

	claimed, err := parseAmount("claimed amount", allocation.ClaimedAmount)
	if err != nil {
		return err
	}
	allocation.ClaimedAmount = claimed.Add(claimed, amountToClaim).String()
	allocation.LastClaimTimestamp = now

	if err := SetAllocation(c.store, stageID, caller, allocation); err != nil {
		return err
	}

	totalClaims, err := GetTotalClaims(c.store, stageID)
	if err != nil {
		return err
	}
	totalClaims.Add(totalClaims, amountToClaim)
	if err := SetTotalClaims(c.store, stageID, totalClaims); err != nil {
		return err
	}

	c.indexMu.Lock()
	totalClaimsAll, err := GetTotalClaimsForAll(c.store)
	if err == nil {
		totalClaimsAll.Add(totalClaimsAll, amountToClaim)
		err = SetTotalClaimsForAll(c.store, totalClaimsAll)
	}
	c.indexMu.Unlock()
	if err != nil {
		return err
	}

	return emitEvent(c.sink, EventTokensClaimed, TokensClaimedEvent{
		StageID: stageID,
		Claimer: caller,
		Amount:  amountToClaim.String(),
	})
}

// Withdraw pays out up to the collected native-currency balance to the owner.
func (c *VestingContract) Withdraw(caller string, amount *big.Int) error {
	if err := c.requireOwner(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: withdraw amount", ErrCannotBeZero)
	}

	c.fundsMu.Lock()
	defer c.fundsMu.Unlock()

	collected, err := getBigInt(c.store, collectedFundsKey)
	if err != nil {
		return err
	}

	if amount.Cmp(collected) > 0 {
		return ErrWithdrawExceedsBalance(amount.String(), collected.String())
	}

	collected.Sub(collected, amount)
	if err := setBigInt(c.store, collectedFundsKey, collected); err != nil {
		return err
	}

	return emitEvent(c.sink, EventFundsWithdrawn, FundsWithdrawnEvent{
		Owner:  c.owner,
		Amount: amount.String(),
	})
}

func (c *VestingContract) CollectedFunds() (*big.Int, error) {
	return getBigInt(c.store, collectedFundsKey)
}

// GetClaimsAmountForAllStages returns the total claimable amount, the stage
// ids, and the per-stage claimable amounts across all stages the holder
// participates in.
func (c *VestingContract) GetClaimsAmountForAllStages(address string) (*big.Int, []StageID, []*big.Int, error) {
	totalAmount := big.NewInt(0)

	userStageList, err := GetUserStages(c.store, address)
	if err != nil {
		return nil, nil, nil, err
	}

	amounts := make([]*big.Int, len(userStageList))

	for i, stageID := range userStageList {
		claimable, err := c.CheckClaimableTokens(stageID, address)
		if err != nil {
			return nil, nil, nil, err
		}

		totalAmount.Add(totalAmount, claimable)
		amounts[i] = claimable
	}

	return totalAmount, userStageList, amounts, nil
}

// GetAllocationsForAllStages returns the vesting allocation per stage for the
// holder.
func (c *VestingContract) GetAllocationsForAllStages(address string) ([]StageID, []*big.Int, error) {
	userStageList, err := GetUserStages(c.store, address)
	if err != nil {
		return nil, nil, err
	}

	totalAllocations := make([]*big.Int, len(userStageList))

	for i, stageID := range userStageList {
		allocation, err := GetAllocation(c.store, stageID, address)
		if err != nil {
			return nil, nil, err
		}
		if allocation == nil {
			totalAllocations[i] = big.NewInt(0)
			continue
		}

		totalAllocations[i], err = parseAmount("total allocations", allocation.TotalAllocations)
		if err != nil {
			return nil, nil, err
		}
	}

	return userStageList, totalAllocations, nil
}

// GetTotalClaimsForAllStages returns the stage-wide claim totals for every
// stage the holder participates in.
func (c *VestingContract) GetTotalClaimsForAllStages(address string) ([]StageID, []*big.Int, error) {
	userStageList, err := GetUserStages(c.store, address)
	if err != nil {
		return nil, nil, err
	}

	totalClaims := make([]*big.Int, len(userStageList))

	for i, stageID := range userStageList {
		totalClaims[i], err = GetTotalClaims(c.store, stageID)
		if err != nil {
			return nil, nil, err
		}
	}

	return userStageList, totalClaims, nil
}

// CalculateImmediateRelease floors grossAmount x percentage / 100.
func CalculateImmediateRelease(grossAmount *big.Int, immediateReleasePercentage uint64) *big.Int {
	if immediateReleasePercentage == 0 {
		return big.NewInt(0)
	}

	percentage := new(big.Int).SetUint64(immediateReleasePercentage)

	result := new(big.Int).Mul(grossAmount, percentage)
	return result.Div(result, big.NewInt(percentDivisor))
}

// CalculateClaimableAmount floors remaining x daysPassed / vestingDays and
// caps the result at the remaining balance. Every elapsed day vests at the
// rate remaining/vestingDays as of the call, not at a rate fixed at
// allocation time.
func CalculateClaimableAmount(remaining *big.Int, daysPassed, vestingDays uint64) *big.Int {
	if daysPassed == 0 || remaining.Sign() <= 0 {
		return big.NewInt(0)
	}

	if daysPassed >= vestingDays {
		return new(big.Int).Set(remaining)
	}

	claimable := new(big.Int).Mul(remaining, new(big.Int).SetUint64(daysPassed))
	claimable.Div(claimable, new(big.Int).SetUint64(vestingDays))

	return claimable
}

// CalculateTokensForPayment converts a wei payment into an 18-decimal token
// amount: payment x rate x 100 / (price x 1e8), floored. The rate carries 8
// decimal places of USD, the price is hundredths of USD per token.
func CalculateTokensForPayment(paymentAmount, oracleRate *big.Int, price uint64) *big.Int {
	numerator := new(big.Int).Mul(paymentAmount, oracleRate)
	numerator.Mul(numerator, big.NewInt(priceDenominator))

	denominator := new(big.Int).Mul(new(big.Int).SetUint64(price), big.NewInt(oracleDecimals))

	return numerator.Div(numerator, denominator)
}
