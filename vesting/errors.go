package vesting

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized       = errors.New("Unauthorized")
	ErrNotFound           = errors.New("NotFound")
	ErrStageClosed        = errors.New("StageClosed")
	ErrNotWhitelisted     = errors.New("NotWhitelisted")
	ErrUnsupportedStage   = errors.New("UnsupportedStage")
	ErrSupplyExceeded     = errors.New("SupplyExceeded")
	ErrInsufficientFunds  = errors.New("InsufficientFunds")
	ErrCannotBeZero       = errors.New("CannotBeZero")
	ErrInvalidUserAddress = errors.New("InvalidUserAddress")
)

func ErrStageNotFound(stageID StageID) error {
	return fmt.Errorf("%w: stage %d", ErrNotFound, stageID)
}

func ErrStageNotOpen(stageID StageID) error {
	return fmt.Errorf("%w: stage %d", ErrStageClosed, stageID)
}

func ErrNotWhitelistedForStage(stageID StageID, address string) error {
	return fmt.Errorf("%w: address %s for stage %d", ErrNotWhitelisted, address, stageID)
}

func ErrStageNotGated(stageID StageID) error {
	return fmt.Errorf("%w: whitelist does not apply to stage %d", ErrUnsupportedStage, stageID)
}

func ErrStageSupplyExceeded(stageID StageID, requested, available string) error {
	return fmt.Errorf("%w: stage %d: requested %s, available %s", ErrSupplyExceeded, stageID, requested, available)
}

func ErrWithdrawExceedsBalance(requested, balance string) error {
	return fmt.Errorf("%w: requested %s, collected %s", ErrInsufficientFunds, requested, balance)
}

func ErrInvalidAddress(address string) error {
	return fmt.Errorf("%w: %s", ErrInvalidUserAddress, address)
}

func InvalidAmountError(entity, value string) error {
	return fmt.Errorf("invalid amount format for %s with value %s", entity, value)
}
