package handler_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/config"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/testutil/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"error_code"`
}

func call(t *testing.T, srv *apitest.Server, p *model.Principal, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p != nil {
		req.Header.Set("Authorization", "Bearer "+srv.Token(t, p))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func createOrg(t *testing.T, srv *apitest.Server, name string) model.Organization {
	t.Helper()
	status, env := call(t, srv, apitest.Admin, http.MethodPost, "/api/organizations", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[model.Organization](t, env)
}

func createTodo(t *testing.T, srv *apitest.Server, org model.Organization, content string) model.Todo {
	t.Helper()
	status, env := call(t, srv, apitest.Admin, http.MethodPost, "/api/todos", map[string]interface{}{
		"content":        content,
		"organizationID": org.ID,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	return decode[model.Todo](t, env)
}

func filterQuery(filter string) string {
	return "?filter=" + url.QueryEscape(filter)
}

func TestAuthentication(t *testing.T) {
	srv := apitest.New(t, config.AuthzModeGroup)

	t.Run("missing token", func(t *testing.T) {
		status, env := call(t, srv, nil, http.MethodGet, "/api/me", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.False(t, env.Ok)
	})

	t.Run("bad token", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me", func(t *testing.T) {
		status, env := call(t, srv, apitest.Member, http.MethodGet, "/api/me", nil)
		require.Equal(t, http.StatusOK, status)
		me := decode[model.Principal](t, env)
		assert.Equal(t, apitest.Member.UserID, me.UserID)
		assert.Equal(t, apitest.Member.Email, me.Email)
		assert.Equal(t, []string{model.GroupMember}, me.Groups)
	})
}

func TestTodoEndpoints(t *testing.T) {
	srv := apitest.New(t, config.AuthzModeGroup)
	home := createOrg(t, srv, "Home")
	work := createOrg(t, srv, "Work")

	milk := createTodo(t, srv, home, "buy milk")
	createTodo(t, srv, work, "file report")

	t.Run("list all", func(t *testing.T) {
		status, env := call(t, srv, apitest.Member, http.MethodGet, "/api/todos", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]model.Todo](t, env), 2)
	})

	t.Run("list filtered", func(t *testing.T) {
		status, env := call(t, srv, apitest.Member, http.MethodGet,
			"/api/todos"+filterQuery(`{"organizationID":{"eq":"`+home.ID.String()+`"}}`), nil)
		require.Equal(t, http.StatusOK, status)
		todos := decode[[]model.Todo](t, env)
		require.Len(t, todos, 1)
		assert.Equal(t, milk.ID, todos[0].ID)
	})

	t.Run("invalid filter", func(t *testing.T) {
		status, env := call(t, srv, apitest.Member, http.MethodGet,
			"/api/todos"+filterQuery(`{"priority":{"eq":"high"}}`), nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_filter", env.Code)
	})

	t.Run("member cannot create", func(t *testing.T) {
		status, env := call(t, srv, apitest.Member, http.MethodPost, "/api/todos", map[string]interface{}{
			"content":        "sneaky",
			"organizationID": home.ID,
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "forbidden", env.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		status, env := call(t, srv, apitest.Admin, http.MethodPost, "/api/todos", map[string]interface{}{
			"content":        "   ",
			"organizationID": home.ID,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_input", env.Code)
	})

	t.Run("toggle", func(t *testing.T) {
		status, _ := call(t, srv, apitest.Member, http.MethodPost, "/api/todos/"+milk.ID.String()+"/toggle", nil)
		assert.Equal(t, http.StatusForbidden, status)

		status, env := call(t, srv, apitest.Admin, http.MethodPost, "/api/todos/"+milk.ID.String()+"/toggle", nil)
		require.Equal(t, http.StatusOK, status, env.Error)
		assert.True(t, decode[model.Todo](t, env).IsDone)
	})

	t.Run("update", func(t *testing.T) {
		status, env := call(t, srv, apitest.Admin, http.MethodPut, "/api/todos/"+milk.ID.String(), map[string]interface{}{
			"content": "buy oat milk",
		})
		require.Equal(t, http.StatusOK, status, env.Error)
		todo := decode[model.Todo](t, env)
		assert.Equal(t, "buy oat milk", todo.Content)
		assert.True(t, todo.IsDone)
	})

	t.Run("delete", func(t *testing.T) {
		status, _ := call(t, srv, apitest.Admin, http.MethodDelete, "/api/todos/"+milk.ID.String(), nil)
		require.Equal(t, http.StatusOK, status)

		status, env := call(t, srv, apitest.Admin, http.MethodGet, "/api/todos/"+milk.ID.String(), nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "todo_not_found", env.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		status, _ := call(t, srv, apitest.Admin, http.MethodGet, "/api/todos/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestMembershipFlow(t *testing.T) {
	srv := apitest.New(t, config.AuthzModeTenant)
	org := createOrg(t, srv, "Home")
	createTodo(t, srv, org, "buy milk")

	status, env := call(t, srv, apitest.Admin, http.MethodPost, "/api/members", map[string]interface{}{
		"organizationID": org.ID,
		"email":          " Member@Example.com ",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	invite := decode[model.OrganizationMember](t, env)
	assert.Equal(t, model.MemberStatusPending, invite.Status)
	assert.Equal(t, "member@example.com", invite.Email)

	sent := srv.Outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "member@example.com", sent[0].To)

	status, env = call(t, srv, apitest.Admin, http.MethodPost, "/api/members", map[string]interface{}{
		"organizationID": org.ID,
		"email":          "member@example.com",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "member_already_exists", env.Code)

	// Pending invitees see nothing yet.
	status, env = call(t, srv, apitest.Member, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]model.Todo](t, env))

	status, env = call(t, srv, apitest.Member, http.MethodGet, "/api/memberships/mine", nil)
	require.Equal(t, http.StatusOK, status)
	mine := decode[[]model.OrganizationMember](t, env)
	require.Len(t, mine, 1)
	assert.Equal(t, invite.ID, mine[0].ID)

	status, env = call(t, srv, apitest.Member, http.MethodPost, "/api/members/"+invite.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	accepted := decode[model.OrganizationMember](t, env)
	assert.Equal(t, model.MemberStatusActive, accepted.Status)
	assert.Equal(t, apitest.Member.UserID, accepted.UserID)

	status, env = call(t, srv, apitest.Member, http.MethodPost, "/api/members/"+invite.ID.String()+"/accept", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "membership_not_pending", env.Code)

	status, env = call(t, srv, apitest.Member, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Todo](t, env), 1)
}

func TestOrganizationDelete(t *testing.T) {
	srv := apitest.New(t, config.AuthzModeGroup)
	org := createOrg(t, srv, "Doomed")
	createTodo(t, srv, org, "one")
	createTodo(t, srv, org, "two")

	status, env := call(t, srv, apitest.Member, http.MethodDelete, "/api/organizations/"+org.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, srv, apitest.Admin, http.MethodDelete, "/api/organizations/"+org.ID.String(), nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	job := decode[model.DeletionJob](t, env)
	assert.Equal(t, model.DeletionCompleted, job.Status)

	status, env = call(t, srv, apitest.Admin, http.MethodGet, "/api/organizations/"+org.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "organization_not_found", env.Code)

	status, env = call(t, srv, apitest.Admin, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]model.Todo](t, env))

	status, env = call(t, srv, apitest.Admin, http.MethodGet, "/api/organizations/"+org.ID.String()+"/deletion", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, job.ID, decode[model.DeletionJob](t, env).ID)
}

func TestAuditLogsRequireAdmin(t *testing.T) {
	srv := apitest.New(t, config.AuthzModeGroup)
	createOrg(t, srv, "Audited")

	status, _ := call(t, srv, apitest.Member, http.MethodGet, "/api/audit-logs", nil)
	assert.Equal(t, http.StatusForbidden, status)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/audit-logs?action_type=entity_create", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+srv.Token(t, apitest.Admin))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Logs  []model.AuthzAuditLog `json:"logs"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.NotZero(t, page.Total)
	assert.NotEmpty(t, page.Logs)
}

func TestObserveStreamsSnapshots(t *testing.T) {
	srv := apitest.New(t, config.AuthzModeGroup)
	org := createOrg(t, srv, "Live")
	createTodo(t, srv, org, "first")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		srv.URL+"/api/todos/observe"+filterQuery(`{"organizationID":{"eq":"`+org.ID.String()+`"}}`), nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+srv.Token(t, apitest.Member))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan []model.Todo, 4)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var todos []model.Todo
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &todos) == nil {
				events <- todos
			}
		}
	}()

	next := func() []model.Todo {
		select {
		case todos, ok := <-events:
			require.True(t, ok, "stream closed")
			return todos
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}

	assert.Len(t, next(), 1)

	createTodo(t, srv, org, "second")
	assert.Len(t, next(), 2)

	cancel()
}
