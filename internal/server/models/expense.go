package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending record. UserName and CategoryName are filled
// on reads only.
type Expense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	UserID      string          `json:"userId"`
	CategoryID  int64           `json:"categoryId"`
	ReceiptKey  *string         `json:"receiptKey,omitempty"`

	UserName     string `json:"userName,omitempty"`
	CategoryName string `json:"categoryName,omitempty"`
}
