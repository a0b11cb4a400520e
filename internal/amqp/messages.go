package amqp

import (
	"encoding/json"
	"time"

	"budgetlens/internal/core"
)

// BudgetAlertMessage carries a full alert so consumers never need to query
// the store.
type BudgetAlertMessage struct {
	Alert     core.BudgetAlert `json:"alert"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewBudgetAlertMessage(alert core.BudgetAlert) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		Alert:     alert,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON creates a message from JSON bytes
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
