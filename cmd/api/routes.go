package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/josh-kwaku/overdraft-ledger/internal/handler"
	"github.com/josh-kwaku/overdraft-ledger/internal/metrics"
	"github.com/josh-kwaku/overdraft-ledger/internal/middleware"
)

type routerDeps struct {
	accounts    *handler.AccountHandler
	health      *handler.HealthHandler
	idempotency func(http.Handler) http.Handler
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
}

func newRouter(d routerDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /accounts/{id}/transactions", d.idempotency(http.HandlerFunc(d.accounts.SubmitTransaction)))
	mux.HandleFunc("GET /accounts/{id}/statement", d.accounts.Statement)

	mux.HandleFunc("GET /health/live", d.health.Liveness)
	mux.HandleFunc("GET /health/ready", d.health.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec())
	mux.Handle("GET /metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	return middleware.Recovery(
		middleware.RequestID(
			middleware.Logging(
				middleware.Metrics(d.metrics)(mux),
			),
		),
	)
}
