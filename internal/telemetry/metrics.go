// Package telemetry carries the service's OpenTelemetry metric instruments.
package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the auth flow counters. A nil *Metrics is safe to call; every
// method is a no-op, so tests and callers without a meter can pass nil.
type Metrics struct {
	logins           metric.Int64Counter
	loginFailures    metric.Int64Counter
	registrations    metric.Int64Counter
	refreshes        metric.Int64Counter
	refreshFailures  metric.Int64Counter
	logouts          metric.Int64Counter
	sessionEvictions metric.Int64Counter
}

// NewMetrics registers the auth counters on the given meter provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("storefront.auth")
	m := &Metrics{}
	var err error
	for _, c := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.logins, "auth.logins", "Successful logins"},
		{&m.loginFailures, "auth.login_failures", "Rejected login attempts"},
		{&m.registrations, "auth.registrations", "New account registrations"},
		{&m.refreshes, "auth.refreshes", "Successful token refreshes"},
		{&m.refreshFailures, "auth.refresh_failures", "Rejected token refreshes"},
		{&m.logouts, "auth.logouts", "Logouts"},
		{&m.sessionEvictions, "auth.session_evictions", "Oldest-session evictions from the per-user cap"},
	} {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNewMetrics is NewMetrics but logs and returns nil on failure, so callers
// can treat metrics as optional wiring.
func MustNewMetrics(provider metric.MeterProvider) *Metrics {
	m, err := NewMetrics(provider)
	if err != nil {
		log.Printf("telemetry: metrics init: %v", err)
		return nil
	}
	return m
}

func (m *Metrics) add(ctx context.Context, c metric.Int64Counter) {
	if m == nil || c == nil {
		return
	}
	c.Add(ctx, 1)
}

func (m *Metrics) Login(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.logins)
}

func (m *Metrics) LoginFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.loginFailures)
}

func (m *Metrics) Registration(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.registrations)
}

func (m *Metrics) Refresh(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.refreshes)
}

func (m *Metrics) RefreshFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.refreshFailures)
}

func (m *Metrics) Logout(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.logouts)
}

func (m *Metrics) SessionEviction(ctx context.Context) {
	if m == nil {
		return
	}
	m.add(ctx, m.sessionEvictions)
}
