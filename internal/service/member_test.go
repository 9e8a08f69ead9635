package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/internal/email"
	"github.com/dangerclosesec/orgtodo/internal/email/mailer"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberAdd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Acme")

	member, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: " New@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", member.Email)
	assert.Equal(t, "new@example.com", member.UserID, "the email stands in until accepted")
	assert.Equal(t, model.MemberStatusPending, member.Status)

	t.Run("visible in the organization's member list", func(t *testing.T) {
		members, err := f.memberSv.List(ctx, admin, repository.Eq("organizationID", org.ID.String()))
		require.NoError(t, err)
		var emails []string
		for _, m := range members {
			emails = append(emails, m.Email)
		}
		assert.ElementsMatch(t, []string{admin.Email, "new@example.com"}, emails)
	})

	t.Run("duplicate refused", func(t *testing.T) {
		_, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "NEW@example.com"})
		assert.ErrorIs(t, err, domain.ErrMemberAlreadyExists)
	})

	t.Run("invitation sent", func(t *testing.T) {
		sent := f.mail.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "new@example.com", sent[0].To)
		assert.Equal(t, mailer.MemberInvitationTemplate, sent[0].TemplateName)
		data, ok := sent[0].TemplateData.(mailer.MemberInvitation)
		require.True(t, ok)
		assert.Equal(t, "Acme", data.OrganizationName)
		assert.Equal(t, "http://todo.test/api/members/"+member.ID.String()+"/accept", data.AcceptLink)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "not-an-email"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown organization", func(t *testing.T) {
		_, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: uuid.New(), Email: "a@example.com"})
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})

	t.Run("members cannot invite", func(t *testing.T) {
		_, err := f.memberSv.Add(ctx, staff, service.AddMemberInput{OrganizationID: org.ID, Email: "b@example.com"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestMemberAccept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Acme")

	invite, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: staff.Email})
	require.NoError(t, err)

	_, err = f.memberSv.Accept(ctx, admin, invite.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the invitee may accept")

	accepted, err := f.memberSv.Accept(ctx, staff, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MemberStatusActive, accepted.Status)
	assert.Equal(t, staff.UserID, accepted.UserID)

	_, err = f.memberSv.Accept(ctx, staff, invite.ID)
	assert.ErrorIs(t, err, domain.ErrMembershipNotPending)

	mine, err := f.memberSv.Mine(ctx, staff)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, org.ID, mine[0].OrganizationID)
}

func TestMemberRemove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Acme")

	invite, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "x@example.com"})
	require.NoError(t, err)

	self, err := f.members.FindByOrganizationAndEmail(ctx, org.ID, admin.Email)
	require.NoError(t, err)
	require.Len(t, self, 1)

	assert.ErrorIs(t, f.memberSv.Remove(ctx, admin, self[0].ID), domain.ErrCannotRemoveSelf)
	assert.ErrorIs(t, f.memberSv.Remove(ctx, staff, invite.ID), domain.ErrForbidden)
	require.NoError(t, f.memberSv.Remove(ctx, admin, invite.ID))

	_, err = f.memberSv.Get(ctx, admin, invite.ID)
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestMemberTenantIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "tenant")
	org := f.createOrg(t, admin, "Acme")

	_, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: staff.Email})
	require.NoError(t, err)

	_, err = f.orgs.Get(ctx, staff, org.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "pending members are not tenants yet")

	members, err := f.memberSv.List(ctx, staff, repository.Eq("organizationID", org.ID.String()))
	require.NoError(t, err)
	assert.Empty(t, members)

	mine, err := f.memberSv.Mine(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, mine, 1, "invitations stay visible to the invitee")
}

func TestMemberTenantIsolationWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "tenant")
	owner := &model.Principal{UserID: "owner-1", Groups: []string{model.GroupAdmin}}
	outsider := &model.Principal{UserID: "outsider-1", Groups: []string{model.GroupAdmin}}

	t.Run("owning an organization needs an email", func(t *testing.T) {
		_, err := f.orgs.Create(ctx, owner, service.CreateOrganizationInput{Name: "Nope"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	// An ACTIVE membership recorded without an email, as group mode creates
	// them for principals lacking the claim.
	org := &model.Organization{Name: "Legacy"}
	require.NoError(t, f.orgRepo.Create(ctx, org))
	require.NoError(t, f.members.Create(ctx, &model.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         owner.UserID,
		Status:         model.MemberStatusActive,
	}))
	todo := f.createTodo(t, owner, org, "secret plan")

	t.Run("owner still matches by user id", func(t *testing.T) {
		got, err := f.todoSv.Get(ctx, owner, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, "secret plan", got.Content)
	})

	t.Run("another email-less principal is not a tenant", func(t *testing.T) {
		_, err := f.orgs.Get(ctx, outsider, org.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		todos, err := f.todoSv.List(ctx, outsider, nil)
		require.NoError(t, err)
		assert.Empty(t, todos)

		_, err = f.todoSv.Create(ctx, outsider, service.CreateTodoInput{Content: "x", OrganizationID: org.ID})
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = f.orgs.Delete(ctx, outsider, org.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, err = f.members.FindActive(ctx, org.ID, outsider.UserID, outsider.Email)
		assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	})
}

func TestMemberWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	first := &model.Principal{UserID: "first", Groups: []string{model.GroupAdmin}}
	second := &model.Principal{UserID: "second", Groups: []string{model.GroupAdmin}}

	org := f.createOrg(t, first, "Acme")
	self, err := f.members.FindByOrganization(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, self, 1)
	assert.Empty(t, self[0].Email)

	t.Run("accepting needs an email", func(t *testing.T) {
		invite, err := f.memberSv.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "x@example.com"})
		require.NoError(t, err)
		_, err = f.memberSv.Accept(ctx, second, invite.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("empty emails do not make memberships self", func(t *testing.T) {
		assert.ErrorIs(t, f.memberSv.Remove(ctx, first, self[0].ID), domain.ErrCannotRemoveSelf)
		require.NoError(t, f.memberSv.Remove(ctx, second, self[0].ID))
	})
}

// countingLocker tracks how many locks are currently held.
type countingLocker struct {
	mu       sync.Mutex
	held     int
	acquired int
}

func (l *countingLocker) Lock(context.Context, string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held++
	l.acquired++
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.held--
		})
	}, nil
}

func (l *countingLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

type lockAwareSender struct {
	locker     *countingLocker
	heldAtSend []int
}

func (s *lockAwareSender) SendEmail(email.EmailData) error {
	s.heldAtSend = append(s.heldAtSend, s.locker.Held())
	return nil
}

func TestMemberAddSendsInvitationOutsideLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "group")
	org := f.createOrg(t, admin, "Acme")

	locker := &countingLocker{}
	sender := &lockAwareSender{locker: locker}
	members := service.NewMemberService(service.MemberConfig{
		Repo:    f.members,
		OrgRepo: f.orgRepo,
		Authz:   f.authz,
		Locker:  locker,
		Emailer: sender,
		BaseURL: "http://todo.test",
	})

	_, err := members.Add(ctx, admin, service.AddMemberInput{OrganizationID: org.ID, Email: "late@example.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 0, locker.Held())
	assert.Equal(t, []int{0}, sender.heldAtSend)
}
