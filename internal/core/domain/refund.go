package domain

// Refund builds a Refund request envelope. Refunds carry data fields only,
// no attributes.
type Refund struct {
	OrderID  string
	Amount   string
	Currency string
}

// Request assembles the envelope.
func (r Refund) Request() *Request {
	return NewRequest(MethodRefund,
		assigned(map[string]string{
			"OrderID":  r.OrderID,
			"Amount":   r.Amount,
			"Currency": r.Currency,
		}), nil)
}
