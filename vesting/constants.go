package vesting

type StageID uint32

const (
	secondsPerDay = 24 * 60 * 60

	// Oracle rates are quoted in USD with 8 decimal places, stage prices in
	// hundredths of USD per token. The default rate models 2000.00 USD per ETH.
	oracleDecimals    = 100000000
	priceDenominator  = 100
	percentDivisor    = 100
	defaultOracleRate = "200000000000"

	stageKeyPrefix      = "vestingstage"
	allocationKeyPrefix = "allocation"
	whitelistKeyPrefix  = "whitelist"
	userStagesKeyPrefix = "userstages"
	tokensSoldKeyPrefix = "tokens_sold"
	totalClaimsPrefix   = "total_claims"
	totalClaimsForAll   = "total_claims_for_all"
	oracleRateKey       = "eth_usd_price"
	collectedFundsKey   = "collected_funds"
)

const (
	EventStageInitialized = "StageInitialized"
	EventStageOpened      = "StageOpened"
	EventStageClosed      = "StageClosed"
	EventWhitelistUpdated = "WhitelistUpdated"
	EventTokensAllocated  = "TokensAllocated"
	EventTokensPurchased  = "TokensPurchased"
	EventTokensClaimed    = "TokensClaimed"
	EventOracleRateSet    = "OracleRateChanged"
	EventFundsWithdrawn   = "FundsWithdrawn"
)

// Sale rounds of the Paymento distribution, one per stage id.
const (
	SeedRound StageID = iota
	AngelRound
	PrivateRound1
	PrivateRound2
	StrategicRound
	CommunityRound
	LaunchpadRound
	PreSale
	PublicSale
)

func (id StageID) String() string {
	names := [...]string{
		"SeedRound",
		"AngelRound",
		"PrivateRound1",
		"PrivateRound2",
		"StrategicRound",
		"CommunityRound",
		"LaunchpadRound",
		"PreSale",
		"PublicSale",
	}
	if int(id) < len(names) {
		return names[id]
	}
	return "Unknown"
}
