package email_test

import (
	"testing"

	"github.com/dangerclosesec/orgtodo/internal/config"
	"github.com/dangerclosesec/orgtodo/internal/email"
	"github.com/dangerclosesec/orgtodo/internal/email/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderFromConfig(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, email.ProviderLog, email.ProviderFromConfig(cfg))

	cfg.SMTP.Host = "smtp.example.com"
	assert.Equal(t, email.ProviderSMTP, email.ProviderFromConfig(cfg))

	cfg.Sendgrid.APIKey = "key"
	assert.Equal(t, email.ProviderSendgrid, email.ProviderFromConfig(cfg))
}

func TestRenderMemberInvitation(t *testing.T) {
	svc, err := email.NewEmailService(&config.Config{}, email.ProviderLog, nil)
	require.NoError(t, err)
	require.Contains(t, svc.Templates, mailer.MemberInvitationTemplate)

	html, text, err := svc.Render(mailer.MemberInvitationTemplate, mailer.MemberInvitation{
		InvitedBy:        "admin@example.com",
		OrganizationName: "Acme <Labs>",
		AcceptLink:       "http://todo.test/api/members/1/accept",
	})
	require.NoError(t, err)

	assert.Contains(t, text, "admin@example.com invited you to join Acme <Labs>.")
	assert.Contains(t, text, "http://todo.test/api/members/1/accept")
	assert.Contains(t, html, "Acme &lt;Labs&gt;")
	assert.NotContains(t, html, "Acme <Labs>")

	_, _, err = svc.Render("missing", nil)
	assert.Error(t, err)
}

func TestSendMemberInvitationWithLogProvider(t *testing.T) {
	svc, err := email.NewEmailService(&config.Config{}, email.ProviderLog, nil)
	require.NoError(t, err)

	err = mailer.SendMemberInvitation(svc, "new@example.com", "admin@example.com", "Acme", "http://todo.test/accept")
	assert.NoError(t, err)

	err = mailer.SendMemberInvitation(svc, "", "admin@example.com", "Acme", "http://todo.test/accept")
	assert.Error(t, err)
}
