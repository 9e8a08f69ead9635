// Package apitest runs the HTTP API against an in-memory database for
// handler and SDK tests.
package apitest

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dangerclosesec/orgtodo/internal/auth"
	"github.com/dangerclosesec/orgtodo/internal/config"
	"github.com/dangerclosesec/orgtodo/internal/email"
	"github.com/dangerclosesec/orgtodo/internal/handler"
	"github.com/dangerclosesec/orgtodo/internal/lock"
	"github.com/dangerclosesec/orgtodo/internal/metrics"
	"github.com/dangerclosesec/orgtodo/internal/middleware"
	"github.com/dangerclosesec/orgtodo/internal/model"
	"github.com/dangerclosesec/orgtodo/internal/notify"
	"github.com/dangerclosesec/orgtodo/internal/repository"
	"github.com/dangerclosesec/orgtodo/internal/service"
	"github.com/dangerclosesec/orgtodo/internal/testutil"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Principals used across API tests.
var (
	Admin  = &model.Principal{UserID: "admin-1", Email: "admin@example.com", Groups: []string{model.GroupAdmin}}
	Member = &model.Principal{UserID: "member-1", Email: "member@example.com", Groups: []string{model.GroupMember}}
)

// Outbox captures emails instead of delivering them.
type Outbox struct {
	mu   sync.Mutex
	sent []email.EmailData
}

func (o *Outbox) SendEmail(data email.EmailData) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, data)
	return nil
}

func (o *Outbox) Sent() []email.EmailData {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]email.EmailData(nil), o.sent...)
}

type Server struct {
	*httptest.Server

	DB      *gorm.DB
	Tokens  *auth.TokenManager
	Broker  *notify.MemoryBroker
	Outbox  *Outbox
	Metrics *metrics.Metrics
}

// New starts the API with the given authorization mode (group or tenant).
func New(t testing.TB, mode string) *Server {
	t.Helper()

	db := testutil.NewDB(t)
	s := &Server{
		DB:      db,
		Tokens:  auth.NewTokenManager("test-secret", time.Hour),
		Broker:  notify.NewMemoryBroker(),
		Outbox:  &Outbox{},
		Metrics: metrics.New(prometheus.NewRegistry()),
	}

	orgRepo := repository.NewOrganizationRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	jobRepo := repository.NewDeletionJobRepository(db)
	auditLogs := service.NewAuthzAuditLogService(repository.NewAuthzAuditLogRepository(db))

	enforcer, err := auth.NewMemoryEnforcer()
	require.NoError(t, err)
	group := auth.NewGroupAuthorizer(enforcer, auditLogs)
	var authz auth.Authorizer = group
	if mode == config.AuthzModeTenant {
		authz = auth.NewTenantAuthorizer(group, memberRepo, auditLogs)
	}

	cache := service.NewCacheService(service.CacheConfig{TTL: time.Minute, CleanupFreq: time.Minute})
	locker := lock.NewMemoryLocker()

	deletion := service.NewDeletionService(service.DeletionConfig{
		Jobs:    jobRepo,
		Orgs:    orgRepo,
		Members: memberRepo,
		Todos:   todoRepo,
		Locker:  locker,
		Broker:  s.Broker,
		Cache:   cache,
		Audit:   auditLogs,
	})
	orgs := service.NewOrganizationService(orgRepo, memberRepo, authz, deletion, cache, nil, auditLogs, nil)
	members := service.NewMemberService(service.MemberConfig{
		Repo:    memberRepo,
		OrgRepo: orgRepo,
		Authz:   authz,
		Locker:  locker,
		Emailer: s.Outbox,
		Audit:   auditLogs,
		BaseURL: "http://todo.test",
	})
	members.SetDeletionGuard(deletion)
	todos := service.NewTodoService(todoRepo, orgRepo, authz, s.Broker, auditLogs, nil)
	todos.SetDeletionGuard(deletion)
	feed := service.NewTodoFeed(todos, s.Broker, nil)

	api := &handler.API{
		Tokens:        s.Tokens,
		Todos:         handler.NewTodoHandler(todos, feed),
		Organizations: handler.NewOrganizationHandler(orgs),
		Members:       handler.NewMemberHandler(members),
		AuditLogs:     handler.NewAuthzAuditLogHandler(auditLogs),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Metrics(s.Metrics))
	api.Mount(r)

	s.Server = httptest.NewServer(r)
	t.Cleanup(func() {
		s.Server.Close()
		s.Broker.Close()
		cache.Close()
	})

	return s
}

// Token mints a bearer token for p.
func (s *Server) Token(t testing.TB, p *model.Principal) string {
	t.Helper()
	token, err := s.Tokens.Generate(p.UserID, p.Email, p.Groups...)
	require.NoError(t, err)
	return token
}
