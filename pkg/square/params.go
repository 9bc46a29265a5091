package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

// PaymentCreateParams encapsulates the inputs for a delayed-capture payment.
// Autocomplete stays false so the charge is only authorized until the order
// is handed over.
type PaymentCreateParams struct {
	AmountCents      int64
	TipCents         int64
	PlatformFeeCents int64
	Currency         string
	LocationID       string
	CustomerID       string
	SourceID         string
	IdempotencyKey   string
	Note             string
	ReferenceID      string
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey string) *sq.CreatePaymentRequest {
	autocomplete := false
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		LocationID:     ptrString(p.LocationID),
		CustomerID:     ptrString(p.CustomerID),
		SourceID:       p.SourceID,
		Autocomplete:   &autocomplete,
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, p.Currency)
	}
	if p.TipCents > 0 {
		req.TipMoney = moneyPtr(p.TipCents, p.Currency)
	}
	if p.PlatformFeeCents > 0 {
		req.AppFeeMoney = moneyPtr(p.PlatformFeeCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Note = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		req.ReferenceID = ptrString(trimmed)
	}
	return req
}

// PaymentTipParams adjusts the tip on an uncaptured payment.
type PaymentTipParams struct {
	PaymentID      string
	TipCents       int64
	Currency       string
	IdempotencyKey string
}

func (p PaymentTipParams) toSquareRequest(idempotencyKey string) *sq.UpdatePaymentRequest {
	payment := &sq.Payment{}
	if p.TipCents > 0 {
		payment.TipMoney = moneyPtr(p.TipCents, p.Currency)
	}
	return &sq.UpdatePaymentRequest{
		PaymentID:      p.PaymentID,
		IdempotencyKey: idempotencyKey,
		Payment:        payment,
	}
}

// RefundParams describes a full or partial refund of a captured payment.
type RefundParams struct {
	PaymentID      string
	AmountCents    int64
	Currency       string
	Reason         string
	IdempotencyKey string
}

func (p RefundParams) toSquareRequest(idempotencyKey string) *sq.RefundPaymentRequest {
	req := &sq.RefundPaymentRequest{
		IdempotencyKey: idempotencyKey,
		PaymentID:      ptrString(p.PaymentID),
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, p.Currency)
	}
	if trimmed := strings.TrimSpace(p.Reason); trimmed != "" {
		req.Reason = ptrString(trimmed)
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "EUR"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
