package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const (
	// A triggered cycle may block on DePool event discovery and
	// submission retries, so the deadline is generous.
	triggerTimeout = 30 * time.Minute

	defaultSignedInterval = time.Hour
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// runInBackground kicks off a long operation detached from the request
// and reports failures through the log.
func (s *server) runInBackground(name string, op func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			s.log.Error(name, "failed:", err)
		}
	}()
}

func (s *server) handleSendStake(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	s.runInBackground("sendStake", func(ctx context.Context) error {
		return s.service.SendStake(ctx, force)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *server) handleRecoverStake(w http.ResponseWriter, r *http.Request) {
	s.runInBackground("recoverStake", s.service.RecoverStake)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *server) handleResumeValidation(w http.ResponseWriter, r *http.Request) {
	s.runInBackground("restoreKeys", s.service.RestoreKeys)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *server) handleResizeStake(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Size int64 `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.service.SetNextStakeSize(r.Context(), body.Size); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"size": body.Size})
}

func (s *server) handleNextStakeSize(w http.ResponseWriter, r *http.Request) {
	size, err := s.service.NextStakeSize(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"size": size})
}

func (s *server) setSkip(w http.ResponseWriter, r *http.Request, skip bool) {
	if err := s.service.SetSkipNextElections(r.Context(), skip); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"skip": skip})
}

func (s *server) handleSkipElections(w http.ResponseWriter, r *http.Request) {
	s.setSkip(w, r, true)
}

func (s *server) handleParticipateElections(w http.ResponseWriter, r *http.Request) {
	s.setSkip(w, r, false)
}

func (s *server) handleActiveElection(w http.ResponseWriter, r *http.Request) {
	id, err := s.service.ActiveElectionId(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{"electionId": id})
}

func (s *server) handleElectionsHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.ElectionsHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *server) handleParticipants(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.Participants(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleConfigParam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw, err := s.service.ConfigParam(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

func (s *server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.service.WalletBalance(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *server) handleTimeDiff(w http.ResponseWriter, r *http.Request) {
	diff, err := s.service.TimeDiff(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"timeDiff": diff})
}

func signedInterval(r *http.Request) time.Duration {
	if raw := r.URL.Query().Get("interval"); raw != "" {
		if sec, err := strconv.Atoi(raw); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}
	return defaultSignedInterval
}

func (s *server) handleStatsJSON(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), signedInterval(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleStatsInflux(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context(), signedInterval(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	measurement := r.URL.Query().Get("measurement")
	if measurement == "" {
		measurement = "staking"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(stats.InfluxLine(measurement) + "\n"))
}
