package entity

import "time"

type ExchangeStatus string

const (
	ExchangeStatusPending    ExchangeStatus = "pending"
	ExchangeStatusInProgress ExchangeStatus = "교환중"
	ExchangeStatusCompleted  ExchangeStatus = "completed"
	ExchangeStatusRejected   ExchangeStatus = "rejected"
)

var exchangeTransitions = map[ExchangeStatus][]ExchangeStatus{
	ExchangeStatusPending:    {ExchangeStatusInProgress, ExchangeStatusRejected},
	ExchangeStatusInProgress: {ExchangeStatusCompleted},
}

// CanTransitionTo reports whether an admin may move a request from s to next.
// completed and rejected are terminal.
func (s ExchangeStatus) CanTransitionTo(next ExchangeStatus) bool {
	for _, allowed := range exchangeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ExchangeStatus) IsTerminal() bool {
	return len(exchangeTransitions[s]) == 0
}

func (s ExchangeStatus) Valid() bool {
	switch s {
	case ExchangeStatusPending, ExchangeStatusInProgress, ExchangeStatusCompleted, ExchangeStatusRejected:
		return true
	}
	return false
}

type ExchangeProduct struct {
	GoldType      string  `json:"gold_type" firestore:"goldType"`
	Quantity      string  `json:"quantity" firestore:"quantity"`
	InputUnit     string  `json:"input_unit" firestore:"inputUnit"`
	ExchangeType  string  `json:"exchange_type" firestore:"exchangeType"`
	FinalWeight   float64 `json:"final_weight" firestore:"finalWeight"` // grams
	StampImageURL string  `json:"stamp_image_url,omitempty" firestore:"stampImageUrl,omitempty"`
}

type GoldExchange struct {
	ID                    string            `json:"id" firestore:"-"`
	UserID                string            `json:"user_id" firestore:"userId"`
	Products              []ExchangeProduct `json:"products" firestore:"products"`
	TotalFinalWeight      float64           `json:"total_final_weight" firestore:"totalFinalWeight"`
	TotalFinalWeightInDon string            `json:"total_final_weight_in_don" firestore:"totalFinalWeightInDon"`
	Name                  string            `json:"name" firestore:"name"`
	Address               string            `json:"address" firestore:"address"`
	Phone                 string            `json:"phone" firestore:"phone"`
	Email                 string            `json:"email" firestore:"email"`
	Status                ExchangeStatus    `json:"status" firestore:"status"`
	CreatedAt             time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt             time.Time         `json:"updated_at" firestore:"updatedAt"`
}
