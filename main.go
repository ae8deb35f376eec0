package main

import (
	"math/big"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/paymento/paymento-token-vesting-contract/token"
	"github.com/paymento/paymento-token-vesting-contract/vesting"
)

const vestingPoolAccount = "paymento_vesting_pool"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	config := vesting.DefaultConfig()
	if path := os.Getenv("VESTING_CONFIG"); path != "" {
		loaded, err := vesting.LoadConfig(path)
		if err != nil {
			log.WithError(err).Fatal("failed to load vesting config")
		}
		config = loaded
	}

	ledger := token.NewLedger()
	poolSupply := big.NewInt(0)
	for _, stage := range config.Stages {
		count, ok := new(big.Int).SetString(vesting.ConvertPMOToWei(stage.TokenCount), 10)
		if !ok {
			log.WithField("tokenCount", stage.TokenCount).Fatal("invalid stage token count")
		}
		poolSupply.Add(poolSupply, count)
	}
	if err := ledger.Mint(vestingPoolAccount, poolSupply); err != nil {
		log.WithError(err).Fatal("failed to mint vesting pool")
	}

	contract, err := vesting.NewVestingContract(
		vesting.NewMemStore(),
		token.NewVault(ledger, vestingPoolAccount),
		config,
		vesting.WithEventSink(vesting.NewLogSink(log)),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize vesting contract")
	}

	log.WithFields(logrus.Fields{
		"owner":       contract.Owner(),
		"stages":      len(config.Stages),
		"poolBalance": poolSupply.String(),
	}).Info("paymento vesting contract initialized")
}
