package vesting

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// VestingStage holds the fixed parameters of one sale stage plus the mutable
// open flag. TokenCount is an 18-decimal fixed-point amount kept as a decimal
// string, Price is hundredths of USD per token.
type VestingStage struct {
	TokenCount                 string `json:"tokenCount"`
	Price                      uint64 `json:"price"`
	ImmediateReleasePercentage uint64 `json:"immediateReleasePercentage"`
	VestingDays                uint64 `json:"vestingDays"`
	Open                       bool   `json:"open"`
}

// Allocation is the per-(stage, holder) vesting record. TotalAllocations is
// the vesting-eligible remainder after the immediate release, ClaimedAmount
// the cumulative amount already transferred through claims.
type Allocation struct {
	TotalAllocations   string `json:"totalAllocations"`
	ClaimedAmount      string `json:"claimedAmount"`
	LastClaimTimestamp uint64 `json:"lastClaimTimestamp"`
}

type UserStages []StageID

func GetVestingStage(store StateStore, stageID StageID) (*VestingStage, error) {
	stageKey := fmt.Sprintf("%s_%d", stageKeyPrefix, stageID)
	stageAsBytes, err := store.GetState(stageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage with key %s: %w", stageKey, err)
	}
	if stageAsBytes == nil {
		return nil, ErrStageNotFound(stageID)
	}

	var stage VestingStage
	err = json.Unmarshal(stageAsBytes, &stage)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal stage %d: %w", stageID, err)
	}

	return &stage, nil
}

func SetVestingStage(store StateStore, stageID StageID, stage *VestingStage) error {
	stageKey := fmt.Sprintf("%s_%d", stageKeyPrefix, stageID)
	stageAsBytes, err := json.Marshal(stage)
	if err != nil {
		return fmt.Errorf("failed to marshal stage %d: %w", stageID, err)
	}

	err = store.PutState(stageKey, stageAsBytes)
	if err != nil {
		return fmt.Errorf("failed to set stage %d: %w", stageID, err)
	}

	return nil
}

// GetAllocation returns nil without error when no allocation exists yet for
// the (stage, holder) pair.
func GetAllocation(store StateStore, stageID StageID, address string) (*Allocation, error) {
	allocationKey := fmt.Sprintf("%s_%d_%s", allocationKeyPrefix, stageID, address)
	allocationAsBytes, err := store.GetState(allocationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation with key %s: %w", allocationKey, err)
	}
	if allocationAsBytes == nil {
		return nil, nil
	}

	var allocation Allocation
	err = json.Unmarshal(allocationAsBytes, &allocation)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal allocation for %s: %w", address, err)
	}

	return &allocation, nil
}

func SetAllocation(store StateStore, stageID StageID, address string, allocation *Allocation) error {
	allocationKey := fmt.Sprintf("%s_%d_%s", allocationKeyPrefix, stageID, address)
	allocationAsBytes, err := json.Marshal(allocation)
	if err != nil {
		return fmt.Errorf("failed to marshal allocation for %s: %w", address, err)
	}

	err = store.PutState(allocationKey, allocationAsBytes)
	if err != nil {
		return fmt.Errorf("failed to set allocation for %s: %w", address, err)
	}

	return nil
}

func GetUserStages(store StateStore, address string) (UserStages, error) {
	userStagesKey := fmt.Sprintf("%s_%s", userStagesKeyPrefix, address)
	userStagesJSON, err := store.GetState(userStagesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stages for %s: %w", address, err)
	}

	if userStagesJSON == nil {
		return UserStages{}, nil
	}

	var userStageList UserStages
	err = json.Unmarshal(userStagesJSON, &userStageList)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal user stage list for %s: %w", address, err)
	}

	return userStageList, nil
}

func SetUserStages(store StateStore, address string, userStageList UserStages) error {
	updatedUserStagesJSON, err := json.Marshal(userStageList)
	if err != nil {
		return fmt.Errorf("failed to marshal user stage list for %s: %w", address, err)
	}

	userStagesKey := fmt.Sprintf("%s_%s", userStagesKeyPrefix, address)

	err = store.PutState(userStagesKey, updatedUserStagesJSON)
	if err != nil {
		return fmt.Errorf("failed to set user stage list for %s: %w", address, err)
	}

	return nil
}

// getBigInt reads a decimal-string amount, defaulting to zero for unset keys.
func getBigInt(store StateStore, key string) (*big.Int, error) {
	valueAsBytes, err := store.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get amount with key %s: %w", key, err)
	}

	value := big.NewInt(0)
	if valueAsBytes != nil {
		_, success := value.SetString(string(valueAsBytes), 10)
		if !success {
			return nil, InvalidAmountError("state key", key)
		}
	}

	return value, nil
}

func setBigInt(store StateStore, key string, value *big.Int) error {
	err := store.PutState(key, []byte(value.String()))
	if err != nil {
		return fmt.Errorf("failed to set amount with key %s: %w", key, err)
	}

	return nil
}

func GetTokensSold(store StateStore, stageID StageID) (*big.Int, error) {
	return getBigInt(store, fmt.Sprintf("%s_%d", tokensSoldKeyPrefix, stageID))
}

func SetTokensSold(store StateStore, stageID StageID, sold *big.Int) error {
	return setBigInt(store, fmt.Sprintf("%s_%d", tokensSoldKeyPrefix, stageID), sold)
}

func GetTotalClaims(store StateStore, stageID StageID) (*big.Int, error) {
	return getBigInt(store, fmt.Sprintf("%s_%d", totalClaimsPrefix, stageID))
}

func SetTotalClaims(store StateStore, stageID StageID, totalClaims *big.Int) error {
	return setBigInt(store, fmt.Sprintf("%s_%d", totalClaimsPrefix, stageID), totalClaims)
}

func GetTotalClaimsForAll(store StateStore) (*big.Int, error) {
	return getBigInt(store, totalClaimsForAll)
}

func SetTotalClaimsForAll(store StateStore, totalClaims *big.Int) error {
	return setBigInt(store, totalClaimsForAll, totalClaims)
}
