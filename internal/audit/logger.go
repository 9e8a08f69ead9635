package audit

import (
	"context"
	"net/http"

	"github.com/dangerclosesec/orgtodo/internal/model"
)

// Logger defines the interface for auditing operations
type Logger interface {
	// LogPermissionCheck logs an authorization decision
	LogPermissionCheck(
		ctx context.Context,
		subject model.Subject,
		permission string,
		object model.Entity,
		result bool,
		contextData map[string]interface{},
	) error

	// LogEntityCreate logs an entity creation operation
	LogEntityCreate(
		ctx context.Context,
		entityType string,
		entityID string,
		attributes map[string]interface{},
	) error

	// LogEntityDelete logs an entity deletion operation
	LogEntityDelete(
		ctx context.Context,
		entityType string,
		entityID string,
	) error

	// LogRelationCreate logs a relation creation operation
	LogRelationCreate(
		ctx context.Context,
		object model.Entity,
		relation string,
		subject model.Subject,
	) error

	// LogRelationDelete logs a relation deletion operation
	LogRelationDelete(
		ctx context.Context,
		object model.Entity,
		relation string,
		subject model.Subject,
	) error
}

// RequestInfo is the part of an HTTP request recorded with each audit entry.
type RequestInfo struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequest stores the request metadata in ctx.
func WithRequest(ctx context.Context, requestID string, r *http.Request) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, RequestInfo{
		RequestID: requestID,
		ClientIP:  r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}

// RequestFromContext returns the request metadata stored by WithRequest.
func RequestFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

var _ Logger = NoOpLogger{}

func (NoOpLogger) LogPermissionCheck(context.Context, model.Subject, string, model.Entity, bool, map[string]interface{}) error {
	return nil
}

func (NoOpLogger) LogEntityCreate(context.Context, string, string, map[string]interface{}) error {
	return nil
}

func (NoOpLogger) LogEntityDelete(context.Context, string, string) error {
	return nil
}

func (NoOpLogger) LogRelationCreate(context.Context, model.Entity, string, model.Subject) error {
	return nil
}

func (NoOpLogger) LogRelationDelete(context.Context, model.Entity, string, model.Subject) error {
	return nil
}
