package models

import "time"

// MessageStatus is the handling state of a contact message.
type MessageStatus string

const (
	MessageNew     MessageStatus = "new"
	MessageRead    MessageStatus = "read"
	MessageReplied MessageStatus = "replied"
)

// Valid reports whether the status is one of the known values.
func (s MessageStatus) Valid() bool {
	return s == MessageNew || s == MessageRead || s == MessageReplied
}

// ContactMessage is an inbox entry submitted through the contact form.
// UserID links the message to an account when the sender was logged in.
type ContactMessage struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	UserID    *int          `json:"user_id,omitempty"`
	Username  string        `json:"username,omitempty"`
	Status    MessageStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// ContactRequest carries the contact form fields.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ReplyRequest carries the admin reply form fields.
type ReplyRequest struct {
	ReplyEmail string `json:"reply_email"`
	ReplyText  string `json:"reply_text"`
}
