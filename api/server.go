package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vitas-brc20/dicer/config"
	"github.com/vitas-brc20/dicer/service"
)

// WebhookSecretHeader carries the shared secret on payment notifications
const WebhookSecretHeader = "X-Webhook-Secret"

// Services bundles the operations exposed over HTTP
type Services struct {
	Tickets    service.TicketService
	Rolls      service.RollService
	Draws      service.DrawService
	Payouts    service.PayoutService
	Authorizer service.Authorizer
}

// Server is the HTTP surface of the engine
type Server struct {
	services      Services
	webhookSecret string
	limiter       *accountLimiter
	metrics       *httpMetrics
	router        *mux.Router
}

// NewServer builds the router for all routes
func NewServer(cfg *config.Config, services Services) *Server {
	s := &Server{
		services:      services,
		webhookSecret: cfg.WebhookSecret,
		limiter:       newAccountLimiter(cfg.RollRateLimit, cfg.RollRateBurst),
		metrics:       newHTTPMetrics(),
		router:        mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.metrics.middleware, requestLogger)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Ticket ledger
	v1.HandleFunc("/payments", s.handlePayment).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{account}/tickets", s.handleGetTickets).Methods(http.MethodGet)

	// Roll log
	v1.HandleFunc("/rolls", s.handleSubmitRoll).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{account}/rolls", s.handleListRolls).Methods(http.MethodGet)

	// Draw engine
	v1.HandleFunc("/periods/close", s.handleClosePeriod).Methods(http.MethodPost)
	v1.HandleFunc("/periods/current", s.handleCurrentPeriod).Methods(http.MethodGet)
	v1.HandleFunc("/draws", s.handleListDraws).Methods(http.MethodGet)
	v1.HandleFunc("/draws/{period:[0-9]+}", s.handleGetDraw).Methods(http.MethodGet)

	// Payout queue
	v1.HandleFunc("/payouts/pending", s.handleListPending).Methods(http.MethodGet)
	v1.HandleFunc("/payouts/{id:[0-9]+}", s.handleGetPayout).Methods(http.MethodGet)
	v1.HandleFunc("/payouts/{id:[0-9]+}/finalize", s.handleFinalizePayout).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{account}/payouts", s.handleListPayouts).Methods(http.MethodGet)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down HTTP API")
	return server.Shutdown(shutdownCtx)
}

// bearerToken extracts the credential from the Authorization header
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) validWebhookSecret(r *http.Request) bool {
	if s.webhookSecret == "" {
		return false
	}
	presented := r.Header.Get(WebhookSecretHeader)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.webhookSecret)) == 1
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("Handled request")
	})
}
