package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "auditwatch/internal/audit/handler"
	compliancehandler "auditwatch/internal/compliance/handler"
	incidenthandler "auditwatch/internal/incident/handler"
	reporthandler "auditwatch/internal/report/handler"
	adminmw "auditwatch/pkg/platform/middleware/admin"
	"auditwatch/pkg/platform/middleware/metadata"
	"auditwatch/pkg/platform/middleware/request"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 30 * time.Second
)

func (a *app) router() (http.Handler, error) {
	proxies, err := metadata.ParseTrustedProxies(a.cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(a.logger))
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: proxies}).Handler)
	r.Use(request.Logger(a.logger))
	r.Use(request.LatencyMiddleware(request.NewMetrics()))
	r.Use(request.BodyLimit(maxBodyBytes))
	r.Use(request.Timeout(requestTimeout))
	r.Use(request.ContentTypeJSON)

	a.health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	events := audithandler.New(a.recorder, a.logger)
	incidents := incidenthandler.New(a.incidents, a.logger)
	requirements := compliancehandler.New(a.registry, a.logger)
	reports := reporthandler.New(a.reports, a.logger)

	events.Register(r)
	incidents.Register(r)
	requirements.Register(r)
	reports.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(a.cfg.AdminToken, a.logger))
		incidents.RegisterAdmin(r)
		requirements.RegisterAdmin(r)
	})
	return r, nil
}
