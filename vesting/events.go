package vesting

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventSink receives the JSON payload of every domain event the contract
// emits. Sinks must not block; emission failures abort the operation the same
// way a failed state write would.
type EventSink interface {
	Emit(name string, payload []byte) error
}

type logSink struct {
	log *logrus.Logger
}

// NewLogSink returns an EventSink that reports events through logrus.
func NewLogSink(log *logrus.Logger) EventSink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &logSink{log: log}
}

func (s *logSink) Emit(name string, payload []byte) error {
	s.log.WithFields(logrus.Fields{
		"event":   name,
		"payload": string(payload),
	}).Info("vesting event emitted")
	return nil
}

type StageInitializedEvent struct {
	StageID                    StageID `json:"stageId"`
	TokenCount                 string  `json:"tokenCount"`
	Price                      uint64  `json:"price"`
	ImmediateReleasePercentage uint64  `json:"immediateReleasePercentage"`
	VestingDays                uint64  `json:"vestingDays"`
}

type StageStatusEvent struct {
	StageID StageID `json:"stageId"`
	Open    bool    `json:"open"`
}

type WhitelistUpdatedEvent struct {
	StageID     StageID `json:"stageId"`
	Address     string  `json:"address"`
	Whitelisted bool    `json:"whitelisted"`
}

type TokensAllocatedEvent struct {
	StageID         StageID `json:"stageId"`
	Beneficiary     string  `json:"beneficiary"`
	GrossAmount     string  `json:"grossAmount"`
	ImmediateAmount string  `json:"immediateAmount"`
	VestingAmount   string  `json:"vestingAmount"`
}

type TokensPurchasedEvent struct {
	StageID       StageID `json:"stageId"`
	Buyer         string  `json:"buyer"`
	PaymentAmount string  `json:"paymentAmount"`
	TokensGross   string  `json:"tokensGross"`
}

type TokensClaimedEvent struct {
	StageID StageID `json:"stageId"`
	Claimer string  `json:"claimer"`
	Amount  string  `json:"amount"`
}

type OracleRateChangedEvent struct {
	Rate string `json:"rate"`
}

type FundsWithdrawnEvent struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

func emitEvent(sink EventSink, name string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding for event %s: %w", name, err)
	}

	err = sink.Emit(name, eventJSON)
	if err != nil {
		return fmt.Errorf("failed to emit event %s: %w", name, err)
	}

	return nil
}
