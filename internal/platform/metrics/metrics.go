package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated       prometheus.Counter
	LoginSuccesses     prometheus.Counter
	LoginFailures      prometheus.Counter
	StudentsCreated    prometheus.Counter
	AuditStoreFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studentdesk_users_created_total",
			Help: "Total number of users created in the system",
		}),
		LoginSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studentdesk_login_successes_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studentdesk_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		StudentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studentdesk_students_created_total",
			Help: "Total number of student records created",
		}),
		AuditStoreFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "studentdesk_audit_store_failures_total",
			Help: "Total number of failed durable audit writes (log stream still captured the event)",
		}),
	}
}

// IncrementUsersCreated increments the users created counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

// IncrementLoginSuccesses records a successful login.
func (m *Metrics) IncrementLoginSuccesses() {
	m.LoginSuccesses.Inc()
}

// IncrementLoginFailures records a failed login attempt.
func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}

// IncrementStudentsCreated records a created student record.
func (m *Metrics) IncrementStudentsCreated() {
	m.StudentsCreated.Inc()
}

// IncrementAuditStoreFailures records a durable audit write failure.
func (m *Metrics) IncrementAuditStoreFailures() {
	m.AuditStoreFailures.Inc()
}
