package vesting

import (
	"fmt"
	"math/big"
)

func validateNSetStage(store StateStore, sink EventSink, stageID StageID, params StageParams) error {
	stage := &VestingStage{
		TokenCount:                 ConvertPMOToWei(params.TokenCount),
		Price:                      params.Price,
		ImmediateReleasePercentage: params.ImmediateReleasePercentage,
		VestingDays:                params.VestingDays,
		Open:                       false,
	}

	err := SetVestingStage(store, stageID, stage)
	if err != nil {
		return fmt.Errorf("failed to set stage %d: %w", stageID, err)
	}

	return emitEvent(sink, EventStageInitialized, StageInitializedEvent{
		StageID:                    stageID,
		TokenCount:                 stage.TokenCount,
		Price:                      stage.Price,
		ImmediateReleasePercentage: stage.ImmediateReleasePercentage,
		VestingDays:                stage.VestingDays,
	})
}

// parseAmount converts a stored decimal string into big.Int, failing loudly on
// corrupt state.
func parseAmount(entity, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, InvalidAmountError(entity, value)
	}
	return amount, nil
}
