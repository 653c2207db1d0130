package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/fedreg/internal/api/handler"
	mw "github.com/edvin/fedreg/internal/api/middleware"
	"github.com/edvin/fedreg/internal/config"
	"github.com/edvin/fedreg/internal/core"
	"github.com/edvin/fedreg/internal/model"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	cfg      *config.Config
	auth     *mw.Authenticator
	registry *prometheus.Registry
}

func NewServer(logger zerolog.Logger, services *core.Services, auth *mw.Authenticator, registry *prometheus.Registry, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		cfg:      cfg,
		auth:     auth,
		registry: registry,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics(s.registry))
	if len(s.cfg.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if s.cfg.RateLimitPerMinute > 0 {
		s.router.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute))
	}
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	svc := s.services
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(mw.Audit)

		r.Route("/providers", handler.NewProvider(svc.Providers).Routes)

		// Regions
		region := handler.NewResource[model.RegionUpdate](svc.Regions)
		regionLocation := handler.NewConnection(region, svc.Regions.ConnectLocation, svc.Regions.DisconnectLocation)
		r.Route("/regions", func(r chi.Router) {
			region.Routes(r)
			regionLocation.Routes(r, "/{uid}/location/{peer}")
		})

		r.Route("/locations", handler.NewResource[model.LocationUpdate](svc.Locations).Routes)

		// Projects
		project := handler.NewResource[model.ProjectUpdate](svc.Projects)
		projectFlavors := handler.NewConnection(project, svc.Projects.ConnectFlavor, svc.Projects.DisconnectFlavor)
		projectImages := handler.NewConnection(project, svc.Projects.ConnectImage, svc.Projects.DisconnectImage)
		projectNetworks := handler.NewConnection(project, svc.Projects.ConnectNetwork, svc.Projects.DisconnectNetwork)
		r.Route("/projects", func(r chi.Router) {
			project.Routes(r)
			projectFlavors.Routes(r, "/{uid}/flavors/{peer}")
			projectImages.Routes(r, "/{uid}/images/{peer}")
			projectNetworks.Routes(r, "/{uid}/networks/{peer}")
		})

		// Flavors and images
		flavor := handler.NewResource[model.FlavorUpdate](svc.Flavors)
		flavorProjects := handler.NewConnection(flavor, svc.Flavors.ConnectProject, svc.Flavors.DisconnectProject)
		r.Route("/flavors", func(r chi.Router) {
			flavor.Routes(r)
			flavorProjects.Routes(r, "/{uid}/projects/{peer}")
		})
		image := handler.NewResource[model.ImageUpdate](svc.Images)
		imageProjects := handler.NewConnection(image, svc.Images.ConnectProject, svc.Images.DisconnectProject)
		r.Route("/images", func(r chi.Router) {
			image.Routes(r)
			imageProjects.Routes(r, "/{uid}/projects/{peer}")
		})

		r.Route("/networks", handler.NewResource[model.NetworkUpdate](svc.Networks).Routes)

		// Quotas
		r.Route("/block_storage_quotas", handler.NewResource[model.BlockStorageQuotaUpdate](svc.BlockStorageQuotas).Routes)
		r.Route("/compute_quotas", handler.NewResource[model.ComputeQuotaUpdate](svc.ComputeQuotas).Routes)
		r.Route("/network_quotas", handler.NewResource[model.NetworkQuotaUpdate](svc.NetworkQuotas).Routes)

		// Services
		r.Route("/block_storage_services", handler.NewResource[model.ServiceUpdate](svc.BlockStorageServices).Routes)
		r.Route("/compute_services", handler.NewResource[model.ServiceUpdate](svc.ComputeServices).Routes)
		r.Route("/identity_services", handler.NewResource[model.ServiceUpdate](svc.IdentityServices).Routes)
		r.Route("/network_services", handler.NewResource[model.ServiceUpdate](svc.NetworkServices).Routes)

		// Authentication
		r.Route("/slas", handler.NewResource[model.SLAUpdate](svc.SLAs).Routes)
		r.Route("/identity_providers", handler.NewResource[model.IdentityProviderUpdate](svc.IdentityProviders).Routes)
		r.Route("/user_groups", handler.NewResource[model.UserGroupUpdate](svc.UserGroups).Routes)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.services.Store().Ping(ctx); err != nil {
		checks["store"] = err.Error()
		healthy = false
	} else {
		checks["store"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
