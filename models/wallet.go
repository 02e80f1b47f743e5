package models

import "time"

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// WalletTransaction is a read-only credit or debit record.
type WalletTransaction struct {
	ID          string          `json:"_id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Reference   string          `json:"reference,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Wallet is the balance plus one page of transactions.
type Wallet struct {
	Balance      float64                 `json:"balance"`
	Transactions Page[WalletTransaction] `json:"transactions"`
}
