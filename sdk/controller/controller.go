// Package controller keeps the state shown by a todo front end: the
// caller's organizations, the selected organization with its members and a
// live todo list.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dangerclosesec/orgtodo/internal/domain"
	"github.com/dangerclosesec/orgtodo/sdk/client"
	"github.com/google/uuid"
)

var (
	ErrNoSession   = errors.New("no session")
	ErrNoSelection = errors.New("no organization selected")
)

// Facade is the data access used by the controller. *client.Client
// satisfies it.
type Facade interface {
	MyMemberships(ctx context.Context) ([]client.Member, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*client.Organization, error)
	CreateOrganization(ctx context.Context, name string) (*client.Organization, error)
	DeleteOrganization(ctx context.Context, id uuid.UUID) (*client.DeletionJob, error)
	ListMembers(ctx context.Context, filter *client.Filter) ([]client.Member, error)
	AddMember(ctx context.Context, orgID uuid.UUID, email string) (*client.Member, error)
	RemoveMember(ctx context.Context, id uuid.UUID) error
	CreateTodo(ctx context.Context, orgID uuid.UUID, content string) (*client.Todo, error)
	ToggleTodo(ctx context.Context, id uuid.UUID) (*client.Todo, error)
	DeleteTodo(ctx context.Context, id uuid.UUID) error
	ObserveTodos(ctx context.Context, filter *client.Filter, onSnapshot func([]client.Todo)) (func(), error)
}

var _ Facade = (*client.Client)(nil)

// Session identifies the signed in principal.
type Session struct {
	UserID string
	Email  string
}

// State is a copy of what the controller currently shows.
type State struct {
	Organizations []client.Organization
	Selected      uuid.UUID
	Members       []client.Member
	Todos         []client.Todo
}

type Controller struct {
	facade Facade
	logger *slog.Logger

	mu       sync.Mutex
	session  *Session
	orgs     []client.Organization
	selected uuid.UUID
	members  []client.Member
	todos    []client.Todo
	// token identifies the current selection. Results obtained for an
	// older token are dropped.
	token    uint64
	stop     func()
	onChange func(State)
}

func New(facade Facade, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{facade: facade, logger: logger}
}

// OnChange registers fn to be called with the new state after every change.
// fn must not call back into the controller.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// SetSession signs a principal in or, with nil, out. Signing out drops all
// state and releases the todo subscription.
func (c *Controller) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	stop := c.resetLocked()
	c.orgs = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.changed()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Organizations: append([]client.Organization(nil), c.orgs...),
		Selected:      c.selected,
		Members:       append([]client.Member(nil), c.members...),
		Todos:         append([]client.Todo(nil), c.todos...),
	}
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	state := c.stateLocked()
	c.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// resetLocked clears the selection and invalidates its token. The returned
// stop function must be called without holding the lock.
func (c *Controller) resetLocked() func() {
	c.token++
	c.selected = uuid.Nil
	c.members = nil
	c.todos = nil
	stop := c.stop
	c.stop = nil
	return stop
}

func (c *Controller) requireSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoSession
	}
	return c.session, nil
}

// requireSelection returns the selected organization and its token.
func (c *Controller) requireSelection() (uuid.UUID, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return uuid.Nil, 0, ErrNoSession
	}
	if c.selected == uuid.Nil {
		return uuid.Nil, 0, ErrNoSelection
	}
	return c.selected, c.token, nil
}

func (c *Controller) fail(msg string, err error, args ...any) error {
	c.logger.Error(msg, append(args, "error", err)...)
	return err
}

// Load fetches the organizations the principal belongs to, one request per
// membership, and selects the first one.
func (c *Controller) Load(ctx context.Context) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}

	memberships, err := c.facade.MyMemberships(ctx)
	if err != nil {
		return c.fail("failed to load memberships", err)
	}

	var orgs []client.Organization
	seen := make(map[uuid.UUID]bool)
	for _, m := range memberships {
		if seen[m.OrganizationID] {
			continue
		}
		seen[m.OrganizationID] = true

		org, err := c.facade.GetOrganization(ctx, m.OrganizationID)
		if err != nil {
			// Pending invitations may not grant read access yet.
			if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrOrganizationNotFound) {
				c.logger.Info("skipping inaccessible organization",
					"org_id", m.OrganizationID.String(),
					"status", m.Status,
					"error", err,
				)
				continue
			}
			return c.fail("failed to load organization", err, "org_id", m.OrganizationID.String())
		}
		orgs = append(orgs, *org)
	}

	c.mu.Lock()
	c.orgs = orgs
	c.mu.Unlock()
	c.changed()

	if len(orgs) == 0 {
		return nil
	}
	return c.Select(ctx, orgs[0].ID)
}

// Select makes orgID the active organization: the previous subscription is
// released, members are loaded and a todo subscription is opened.
func (c *Controller) Select(ctx context.Context, orgID uuid.UUID) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	stop := c.resetLocked()
	c.selected = orgID
	token := c.token
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.changed()

	if err := c.reloadMembers(ctx, orgID, token); err != nil {
		return err
	}

	stop, err := c.facade.ObserveTodos(context.Background(), client.Eq("organizationID", orgID), func(todos []client.Todo) {
		c.applySnapshot(token, todos)
	})
	if err != nil {
		return c.fail("failed to observe todos", err, "org_id", orgID.String())
	}

	c.mu.Lock()
	if c.token != token {
		// Selection changed while the stream was opening.
		c.mu.Unlock()
		stop()
		return nil
	}
	c.stop = stop
	c.mu.Unlock()
	return nil
}

func (c *Controller) applySnapshot(token uint64, todos []client.Todo) {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		c.logger.Debug("discarding stale todo snapshot", "token", token)
		return
	}
	c.todos = todos
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) reloadMembers(ctx context.Context, orgID uuid.UUID, token uint64) error {
	members, err := c.facade.ListMembers(ctx, client.Eq("organizationID", orgID))
	if err != nil {
		return c.fail("failed to load members", err, "org_id", orgID.String())
	}

	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		return nil
	}
	c.members = members
	c.mu.Unlock()
	c.changed()
	return nil
}

// Close releases the todo subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	c.token++
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// CreateTodo adds a todo to the selected organization. The list itself is
// refreshed by the subscription.
func (c *Controller) CreateTodo(ctx context.Context, content string) (*client.Todo, error) {
	orgID, _, err := c.requireSelection()
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}

	todo, err := c.facade.CreateTodo(ctx, orgID, content)
	if err != nil {
		return nil, c.fail("failed to create todo", err, "org_id", orgID.String())
	}
	return todo, nil
}

func (c *Controller) ToggleTodo(ctx context.Context, id uuid.UUID) (*client.Todo, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}
	todo, err := c.facade.ToggleTodo(ctx, id)
	if err != nil {
		return nil, c.fail("failed to toggle todo", err, "todo_id", id.String())
	}
	return todo, nil
}

func (c *Controller) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	if _, err := c.requireSession(); err != nil {
		return err
	}
	if err := c.facade.DeleteTodo(ctx, id); err != nil {
		return c.fail("failed to delete todo", err, "todo_id", id.String())
	}
	return nil
}

// CreateOrganization creates an organization and switches the selection to
// it.
func (c *Controller) CreateOrganization(ctx context.Context, name string) (*client.Organization, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	org, err := c.facade.CreateOrganization(ctx, name)
	if err != nil {
		return nil, c.fail("failed to create organization", err)
	}

	c.mu.Lock()
	c.orgs = append(c.orgs, *org)
	c.mu.Unlock()
	c.changed()

	if err := c.Select(ctx, org.ID); err != nil {
		return org, err
	}
	return org, nil
}

// AddMember invites email to the selected organization unless the
// pre-check finds an existing membership, then reloads the members.
func (c *Controller) AddMember(ctx context.Context, email string) (*client.Member, error) {
	orgID, token, err := c.requireSelection()
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	existing, err := c.facade.ListMembers(ctx, client.And(
		client.Eq("organizationID", orgID),
		client.Eq("email", email),
	))
	if err != nil {
		return nil, c.fail("failed to check membership", err, "org_id", orgID.String())
	}
	if len(existing) > 0 {
		return nil, c.fail("member already exists", domain.ErrMemberAlreadyExists, "org_id", orgID.String())
	}

	member, err := c.facade.AddMember(ctx, orgID, email)
	if err != nil {
		return nil, c.fail("failed to add member", err, "org_id", orgID.String())
	}

	return member, c.reloadMembers(ctx, orgID, token)
}

func (c *Controller) RemoveMember(ctx context.Context, id uuid.UUID) error {
	orgID, token, err := c.requireSelection()
	if err != nil {
		return err
	}
	if err := c.facade.RemoveMember(ctx, id); err != nil {
		return c.fail("failed to remove member", err, "member_id", id.String())
	}
	return c.reloadMembers(ctx, orgID, token)
}

// DeleteOrganization deletes the organization on the server, which removes
// its todos and members too. Deleting the selected organization clears
// the selection.
func (c *Controller) DeleteOrganization(ctx context.Context, id uuid.UUID) (*client.DeletionJob, error) {
	if _, err := c.requireSession(); err != nil {
		return nil, err
	}

	job, err := c.facade.DeleteOrganization(ctx, id)
	if err != nil {
		return nil, c.fail("failed to delete organization", err, "org_id", id.String())
	}
	if !job.Completed() {
		c.logger.Warn("organization deletion will be retried",
			"org_id", id.String(),
			"job_id", job.ID.String(),
			"phase", job.Phase,
			"last_error", job.LastError,
		)
	}

	var stop func()
	c.mu.Lock()
	orgs := c.orgs[:0]
	for _, org := range c.orgs {
		if org.ID != id {
			orgs = append(orgs, org)
		}
	}
	c.orgs = orgs
	if c.selected == id {
		stop = c.resetLocked()
	}
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.changed()
	return job, nil
}
