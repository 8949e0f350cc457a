package domain

// Deposit builds a Deposit request envelope. One typed field per protocol
// key: an unknown field is a compile error, not a runtime failure. Fields
// left empty are omitted from the wire payload entirely.
type Deposit struct {
	// Data fields
	NotificationURL string
	EndUserID       string
	MessageID       string

	// Attributes
	Currency          string
	Firstname         string
	Lastname          string
	Email             string
	Locale            string
	Country           string
	Amount            string
	IP                string
	SuccessURL        string
	FailURL           string
	HoldNotifications string
}

// Request assembles the envelope. The builder only shapes data; the client
// assigns the correlation id, credentials and signature at call time.
func (d Deposit) Request() *Request {
	return NewRequest(MethodDeposit,
		assigned(map[string]string{
			"NotificationURL": d.NotificationURL,
			"EndUserID":       d.EndUserID,
			"MessageID":       d.MessageID,
		}),
		assigned(map[string]string{
			"Currency":          d.Currency,
			"Firstname":         d.Firstname,
			"Lastname":          d.Lastname,
			"Email":             d.Email,
			"Locale":            d.Locale,
			"Country":           d.Country,
			"Amount":            d.Amount,
			"IP":                d.IP,
			"SuccessURL":        d.SuccessURL,
			"FailURL":           d.FailURL,
			"HoldNotifications": d.HoldNotifications,
		}))
}

// assigned keeps only the fields the caller actually set, so an unset
// builder field neither appears on the wire nor enters the signable
// material.
func assigned(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
