package mailer

import (
	"fmt"

	"github.com/dangerclosesec/orgtodo/internal/email"
)

// MemberInvitationTemplate is the template group under templates/emails.
const MemberInvitationTemplate = "member_invitation"

// MemberInvitation holds the fields rendered into the invitation templates.
type MemberInvitation struct {
	InvitedBy        string
	OrganizationName string
	AcceptLink       string
}

// SendMemberInvitation tells to that they were invited into an organization.
func SendMemberInvitation(s email.Sender, to, invitedBy, organizationName, acceptLink string) error {
	if to == "" {
		return fmt.Errorf("missing recipient")
	}

	return s.SendEmail(email.EmailData{
		To:           to,
		FromName:     "orgtodo",
		Subject:      fmt.Sprintf("You were invited to %s", organizationName),
		TemplateName: MemberInvitationTemplate,
		TemplateData: MemberInvitation{
			InvitedBy:        invitedBy,
			OrganizationName: organizationName,
			AcceptLink:       acceptLink,
		},
	})
}
