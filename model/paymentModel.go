// model/payment.go
package model

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

type PaymentType string

const (
	TypePayment PaymentType = "PAYMENT"
	TypeFine    PaymentType = "FINE"
)

type Payment struct {
	ID          int64         `json:"id"`
	BorrowingID int64         `json:"borrowing_id"`
	Status      PaymentStatus `json:"status"`
	Type        PaymentType   `json:"type"`
	SessionID   string        `json:"session_id"`
	SessionURL  string        `json:"session_url"`
	MoneyToPay  float64       `json:"money_to_pay"`
	CreatedAt   time.Time     `json:"created_at"`
}
