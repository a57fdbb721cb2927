// Package notify delivers credential notices to clients.
package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/repairshop/workshop/internal/core/ports"
)

// LogMailer records credential notices as structured log lines instead of
// sending mail. The password is never written.
type LogMailer struct {
	log      zerolog.Logger
	appName  string
	loginURL string
}

func NewLogMailer(log zerolog.Logger, appName, frontendURL string) *LogMailer {
	return &LogMailer{
		log:      log,
		appName:  appName,
		loginURL: strings.TrimRight(frontendURL, "/") + "/login",
	}
}

func (m *LogMailer) SendClientCredentials(ctx context.Context, n ports.CredentialNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.log.Info().
		Str("app", m.appName).
		Str("to", n.Email).
		Str("recipient", strings.TrimSpace(n.FirstName+" "+n.LastName)).
		Str("identifier", n.Identifier).
		Str("login_url", m.loginURL).
		Msg("client credentials issued")
	return nil
}
