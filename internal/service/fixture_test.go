package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/config"
	"github.com/dangerclosesec/orgtodo/internal/email"
	"github.com/dangerclosesec/orgtodo/internal/lock"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
	"github.com/dangerclosesec/orgtodo/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin = &model.Principal{UserID: "admin-1", Email: "admin@example.com", Groups: []string{model.GroupAdmin}}
	staff = &model.Principal{UserID: "member-1", Email: "member@example.com", Groups: []string{model.GroupMember}}
)

// recordingSender captures emails instead of delivering them.
type recordingSender struct {
	mu   sync.Mutex
	sent []email.EmailData
}

func (r *recordingSender) SendEmail(data email.EmailData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, data)
	return nil
}

func (r *recordingSender) Sent() []email.EmailData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]email.EmailData(nil), r.sent...)
}

type fixture struct {
	db      *gorm.DB
	orgRepo *repository.OrganizationRepository
	members *repository.MemberRepository
	todos   *repository.TodoRepository
	jobs    *repository.DeletionJobRepository
	broker  *notify.MemoryBroker
	mail    *recordingSender
	authz   auth.Authorizer
	audit   *service.AuthzAuditLogService

	orgs     *service.OrganizationService
	memberSv *service.MemberService
	todoSv   *service.TodoService
	deletion *service.DeletionService
	feed     *service.TodoFeed
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:      db,
		orgRepo: repository.NewOrganizationRepository(db),
		members: repository.NewMemberRepository(db),
		todos:   repository.NewTodoRepository(db),
		jobs:    repository.NewDeletionJobRepository(db),
		broker:  notify.NewMemoryBroker(),
		mail:    &recordingSender{},
	}
	t.Cleanup(func() { f.broker.Close() })

	f.audit = service.NewAuthzAuditLogService(repository.NewAuthzAuditLogRepository(db))

	enforcer, err := auth.NewMemoryEnforcer()
	require.NoError(t, err)
	group := auth.NewGroupAuthorizer(enforcer, f.audit)
	switch mode {
	case config.AuthzModeTenant:
		f.authz = auth.NewTenantAuthorizer(group, f.members, f.audit)
	default:
		f.authz = group
	}

	cache := service.NewCacheService(service.CacheConfig{TTL: time.Minute, CleanupFreq: time.Minute})
	t.Cleanup(cache.Close)

	locker := lock.NewMemoryLocker()

	f.deletion = service.NewDeletionService(service.DeletionConfig{
		Jobs:    f.jobs,
		Orgs:    f.orgRepo,
		Members: f.members,
		Todos:   f.todos,
		Locker:  locker,
		Broker:  f.broker,
		Cache:   cache,
		Audit:   f.audit,
	})
	f.orgs = service.NewOrganizationService(f.orgRepo, f.members, f.authz, f.deletion, cache, nil, f.audit, nil)
	f.memberSv = service.NewMemberService(service.MemberConfig{
		Repo:    f.members,
		OrgRepo: f.orgRepo,
		Authz:   f.authz,
		Locker:  locker,
		Emailer: f.mail,
		Audit:   f.audit,
		BaseURL: "http://todo.test",
	})
	f.memberSv.SetDeletionGuard(f.deletion)
	f.todoSv = service.NewTodoService(f.todos, f.orgRepo, f.authz, f.broker, f.audit, nil)
	f.todoSv.SetDeletionGuard(f.deletion)
	f.feed = service.NewTodoFeed(f.todoSv, f.broker, nil)

	return f
}

func (f *fixture) createOrg(t *testing.T, p *model.Principal, name string) *model.Organization {
	t.Helper()
	org, err := f.orgs.Create(context.Background(), p, service.CreateOrganizationInput{Name: name})
	require.NoError(t, err)
	return org
}

func (f *fixture) createTodo(t *testing.T, p *model.Principal, org *model.Organization, content string) *model.Todo {
	t.Helper()
	todo, err := f.todoSv.Create(context.Background(), p, service.CreateTodoInput{
		Content:        content,
		OrganizationID: org.ID,
	})
	require.NoError(t, err)
	return todo
}
