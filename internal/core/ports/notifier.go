package ports

import "context"

// CredentialNotice asks for freshly generated credentials to be delivered to
// a client. Password is the plaintext and must never be logged.
type CredentialNotice struct {
	ClientID   int64
	FirstName  string
	LastName   string
	Email      string
	Identifier string
	Password   string
}

// Mailer delivers credential notices.
type Mailer interface {
	SendClientCredentials(ctx context.Context, n CredentialNotice) error
}

// NoticeQueue accepts notices for asynchronous, fire-and-forget delivery.
type NoticeQueue interface {
	Enqueue(n CredentialNotice)
}
