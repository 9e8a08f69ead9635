package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest(http.MethodGet, "/api/todos", http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/todos", http.StatusOK, 20*time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/todos", "200")))

	m.AuthzDecision(false, "create", "todo")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authzDecisions.WithLabelValues("denied", "create", "todo")))

	m.SubscriptionOpened()
	m.SubscriptionOpened()
	m.SubscriptionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptions))

	m.DeletionJob("completed")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletionJobs.WithLabelValues("completed")))
}
