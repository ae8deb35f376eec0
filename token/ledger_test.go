package token_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paymento/paymento-token-vesting-contract/token"
)

const (
	pool     = "paymento_vesting_pool"
	account1 = "077d360f11d220e4d5d831430c81c26c9be7c4a4"
	account2 = "4b3f1c6f2a9d8e7c5b4a3f2e1d0c9b8a7f6e5d4c"
)

func TestMintAndBalance(t *testing.T) {
	t.Parallel()

	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint(pool, big.NewInt(1000)))

	balance, err := ledger.BalanceOf(pool)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), balance)

	balance, err = ledger.BalanceOf(account1)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance)

	require.ErrorIs(t, ledger.Mint(pool, big.NewInt(0)), token.ErrInvalidAmount)
	require.ErrorIs(t, ledger.Mint("", big.NewInt(1)), token.ErrInvalidAddress)
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint(pool, big.NewInt(1000)))

	require.NoError(t, ledger.Transfer(pool, account1, big.NewInt(300)))

	poolBalance, err := ledger.BalanceOf(pool)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(700), poolBalance)

	balance, err := ledger.BalanceOf(account1)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(300), balance)

	require.Equal(t, big.NewInt(1000), ledger.TotalSupply())
}

func TestTransferInsufficientBalance(t *testing.T) {
	t.Parallel()

	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint(pool, big.NewInt(100)))

	err := ledger.Transfer(pool, account1, big.NewInt(101))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)

	// Nothing moved on failure.
	poolBalance, err := ledger.BalanceOf(pool)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), poolBalance)
}

func TestTransferZeroIsNoop(t *testing.T) {
	t.Parallel()

	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint(pool, big.NewInt(100)))

	require.NoError(t, ledger.Transfer(pool, account1, big.NewInt(0)))

	balance, err := ledger.BalanceOf(account1)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(0), balance)
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	t.Parallel()

	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint(pool, big.NewInt(100)))

	balance, err := ledger.BalanceOf(pool)
	require.NoError(t, err)
	balance.SetInt64(0)

	fresh, err := ledger.BalanceOf(pool)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), fresh)
}

func TestVault(t *testing.T) {
	t.Parallel()

	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint(pool, big.NewInt(500)))

	vault := token.NewVault(ledger, pool)
	require.Equal(t, pool, vault.Holder())

	require.NoError(t, vault.Transfer(account1, big.NewInt(200)))

	balance, err := vault.BalanceOf(account1)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(200), balance)

	err = vault.Transfer(account2, big.NewInt(301))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
}
