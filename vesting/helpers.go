package vesting

import (
	"math/big"
	"regexp"
)

const hexAddressRegex = `^(0x)?[0-9a-fA-F]{40}$`

func IsUserAddressValid(address string) bool {

	if address == "" {
		return false
	}

	isValid, _ := regexp.MatchString(hexAddressRegex, address)
	return isValid
}

func Decimals() uint64 {
	return 18
}

// ConvertPMOToWei scales a whole-token amount to the 18-decimal base unit.
func ConvertPMOToWei(pmoAmount uint64) string {
	decimals := Decimals()

	pmoAmountBigInt := new(big.Int).SetUint64(pmoAmount)

	multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	weiAmount := new(big.Int).Mul(pmoAmountBigInt, multiplier)

	return weiAmount.String()
}

func daysBetween(fromTimestamp, toTimestamp uint64) uint64 {
	if toTimestamp <= fromTimestamp {
		return 0
	}
	return (toTimestamp - fromTimestamp) / secondsPerDay
}
