// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus collectors for core operations, access
// denials, aggregation cache lookups and HTTP requests.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/olegiv/pmt-go/internal/policy"
)

const namespace = "pmt"

// Result labels.
const (
	ResultOK     = "ok"
	ResultDenied = "denied"
	ResultError  = "error"

	CacheHit  = "hit"
	CacheMiss = "miss"
)

var (
	// operations counts core operations.
	// Labels: op (create_task, delete_user, ...), result (ok, denied, error)
	operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "core",
		Name:      "operations_total",
		Help:      "Core operations by name and result",
	}, []string{"op", "result"})

	// operationDuration measures core operation latency.
	// Labels: op
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "core",
		Name:      "operation_duration_seconds",
		Help:      "Core operation latency in seconds",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"op"})

	// denials counts access-control denials.
	// Labels: capability
	denials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "policy",
		Name:      "denials_total",
		Help:      "Access denials by capability",
	}, []string{"capability"})

	// cacheLookups counts aggregation cache lookups.
	// Labels: result (hit, miss)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "view",
		Name:      "cache_lookups_total",
		Help:      "Aggregation view cache lookups by result",
	}, []string{"result"})

	// httpRequests counts API requests.
	// Labels: method, route (chi pattern), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Result maps an operation error to a result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, policy.ErrDenied):
		return ResultDenied
	default:
		return ResultError
	}
}

// ObserveOperation records one core operation that started at start.
func ObserveOperation(op string, start time.Time, err error) {
	operations.WithLabelValues(op, Result(err)).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	var denied *policy.DeniedError
	if errors.As(err, &denied) {
		denials.WithLabelValues(string(denied.Capability)).Inc()
	}
}

// ObserveCache records an aggregation cache lookup.
func ObserveCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues(CacheHit).Inc()
		return
	}
	cacheLookups.WithLabelValues(CacheMiss).Inc()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
