package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	VenueQueriesTotal      metric.Int64Counter
	VenueQueryDuration     metric.Float64Histogram
	EventQueriesTotal      metric.Int64Counter
	EventQueryDuration     metric.Float64Histogram
	PlacesRequestsTotal    metric.Int64Counter
	DiscoverySessionsGauge metric.Int64UpDownCounter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so it must run
// after the provider is installed for the instruments to be exported.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("loci-discovery")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.VenueQueriesTotal, err = meter.Int64Counter(
			"venue_queries_total",
			metric.WithDescription("Total number of venue list queries"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create venue_queries_total: %v", err)
		}

		m.VenueQueryDuration, err = meter.Float64Histogram(
			"venue_query_duration_seconds",
			metric.WithDescription("Duration of venue list queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create venue_query_duration_seconds: %v", err)
		}

		m.EventQueriesTotal, err = meter.Int64Counter(
			"event_queries_total",
			metric.WithDescription("Total number of event list queries"),
			metric.WithUnit("{query}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create event_queries_total: %v", err)
		}

		m.EventQueryDuration, err = meter.Float64Histogram(
			"event_query_duration_seconds",
			metric.WithDescription("Duration of event list queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create event_query_duration_seconds: %v", err)
		}

		m.PlacesRequestsTotal, err = meter.Int64Counter(
			"places_requests_total",
			metric.WithDescription("Places provider requests by kind and outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create places_requests_total: %v", err)
		}

		m.DiscoverySessionsGauge, err = meter.Int64UpDownCounter(
			"discovery_sessions_active",
			metric.WithDescription("Current number of open discovery map sessions"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discovery_sessions_active: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it against whatever
// MeterProvider is installed (the no-op provider in tests).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
