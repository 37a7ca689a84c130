package api

import (
	"context"
	"net/http"
	"time"

	"github.com/chebyrash/promise"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"ton-staking-manager/lib/logger"
	a "ton-staking-manager/modules/aggregate"
)

const shutdownTimeout = 5 * time.Second

type server struct {
	conf    ApiConfig
	service StakingService
	log     logger.Logger

	server *http.Server
}

var _ a.Plugin = &server{}

func New(conf ApiConfig, service StakingService, log logger.Logger) *server {
	return &server{
		conf:    conf,
		service: service,
		log:     log,
	}
}

func (s *server) Init() error {
	c := s.conf.Get()

	r := mux.NewRouter()
	r.HandleFunc("/stake/send", s.handleSendStake).Methods(http.MethodPost)
	r.HandleFunc("/stake/recover", s.handleRecoverStake).Methods(http.MethodPost)
	r.HandleFunc("/stake/resize", s.handleResizeStake).Methods(http.MethodPost)
	r.HandleFunc("/stake/next", s.handleNextStakeSize).Methods(http.MethodGet)
	r.HandleFunc("/elections/skip", s.handleSkipElections).Methods(http.MethodPost)
	r.HandleFunc("/elections/participate", s.handleParticipateElections).Methods(http.MethodPost)
	r.HandleFunc("/elections/active", s.handleActiveElection).Methods(http.MethodGet)
	r.HandleFunc("/elections/history", s.handleElectionsHistory).Methods(http.MethodGet)
	r.HandleFunc("/elections/participants", s.handleParticipants).Methods(http.MethodGet)
	r.HandleFunc("/config/{id:[0-9]+}", s.handleConfigParam).Methods(http.MethodGet)
	r.HandleFunc("/wallet/balance", s.handleWalletBalance).Methods(http.MethodGet)
	r.HandleFunc("/node/timediff", s.handleTimeDiff).Methods(http.MethodGet)
	r.HandleFunc("/stats/json", s.handleStatsJSON).Methods(http.MethodGet)
	r.HandleFunc("/stats/influxdb", s.handleStatsInflux).Methods(http.MethodGet)
	r.HandleFunc("/validation/resume", s.handleResumeValidation).Methods(http.MethodPost)

	var handler http.Handler = r
	if c.AuthToken != "" {
		handler = s.requireAuth(handler)
	}
	handler = cors.New(cors.Options{
		AllowedOrigins: c.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(handler)

	s.server = &http.Server{
		Addr:    c.ListenAddr,
		Handler: handler,
	}
	return nil
}

func (s *server) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		s.log.Info("listening on", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			reject(err)
		}

		resolve(nil)
	})
}

func (s *server) Stop() error {
	s.log.Info("shutting down the api server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.conf.Get().AuthToken {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
