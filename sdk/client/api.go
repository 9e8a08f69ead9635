package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func organizationPath(id uuid.UUID) string { return "/api/organizations/" + id.String() }
func memberPath(id uuid.UUID) string       { return "/api/members/" + id.String() }
func todoPath(id uuid.UUID) string         { return "/api/todos/" + id.String() }

// ListOrganizations returns the organizations matching filter; nil matches all.
func (c *Client) ListOrganizations(ctx context.Context, filter *Filter) ([]Organization, error) {
	query, err := filterQuery(filter)
	if err != nil {
		return nil, err
	}
	var orgs []Organization
	if err := c.do(ctx, http.MethodGet, "/api/organizations", query, nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

func (c *Client) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	var org Organization
	if err := c.do(ctx, http.MethodGet, organizationPath(id), nil, nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// CreateOrganization creates an organization; the server also records the
// caller's membership.
func (c *Client) CreateOrganization(ctx context.Context, name string) (*Organization, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}
	var org Organization
	if err := c.do(ctx, http.MethodPost, "/api/organizations", nil, map[string]string{"name": name}, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) UpdateOrganization(ctx context.Context, id uuid.UUID, name string) (*Organization, error) {
	var org Organization
	if err := c.do(ctx, http.MethodPut, organizationPath(id), nil, map[string]string{"name": name}, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// DeleteOrganization deletes the organization with its todos and members.
// A job that is not completed is finished later by the server.
func (c *Client) DeleteOrganization(ctx context.Context, id uuid.UUID) (*DeletionJob, error) {
	var job DeletionJob
	if err := c.do(ctx, http.MethodDelete, organizationPath(id), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// OrganizationDeletion returns the latest deletion job of the organization.
func (c *Client) OrganizationDeletion(ctx context.Context, id uuid.UUID) (*DeletionJob, error) {
	var job DeletionJob
	if err := c.do(ctx, http.MethodGet, organizationPath(id)+"/deletion", nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// MyMemberships lists the memberships addressed to the token's email,
// pending invitations included.
func (c *Client) MyMemberships(ctx context.Context) ([]Member, error) {
	var members []Member
	if err := c.do(ctx, http.MethodGet, "/api/memberships/mine", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) ListMembers(ctx context.Context, filter *Filter) ([]Member, error) {
	query, err := filterQuery(filter)
	if err != nil {
		return nil, err
	}
	var members []Member
	if err := c.do(ctx, http.MethodGet, "/api/members", query, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	var member Member
	if err := c.do(ctx, http.MethodGet, memberPath(id), nil, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember invites email to the organization.
func (c *Client) AddMember(ctx context.Context, orgID uuid.UUID, email string) (*Member, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	var member Member
	in := map[string]string{"organizationID": orgID.String(), "email": email}
	if err := c.do(ctx, http.MethodPost, "/api/members", nil, in, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) RemoveMember(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, memberPath(id), nil, nil, nil)
}

// AcceptMember activates a pending invitation addressed to the caller.
func (c *Client) AcceptMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	var member Member
	if err := c.do(ctx, http.MethodPost, memberPath(id)+"/accept", nil, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *Client) ListTodos(ctx context.Context, filter *Filter) ([]Todo, error) {
	query, err := filterQuery(filter)
	if err != nil {
		return nil, err
	}
	var todos []Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", query, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) GetTodo(ctx context.Context, id uuid.UUID) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodGet, todoPath(id), nil, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) CreateTodo(ctx context.Context, orgID uuid.UUID, content string) (*Todo, error) {
	var todo Todo
	in := map[string]interface{}{"organizationID": orgID.String(), "content": content}
	if err := c.do(ctx, http.MethodPost, "/api/todos", nil, in, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id uuid.UUID, update TodoUpdate) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPut, todoPath(id), nil, update, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// ToggleTodo flips isDone on the server.
func (c *Client) ToggleTodo(ctx context.Context, id uuid.UUID) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPost, todoPath(id)+"/toggle", nil, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, nil, nil)
}
