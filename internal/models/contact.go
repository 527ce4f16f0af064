package models

// Contact is a CRM contact reduced to the fields callers display.
// Phone, Email and Position are "" when the CRM has no value.
type Contact struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Position string `json:"position"`
}
