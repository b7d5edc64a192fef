package sync_job

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/klokku/calsync/internal/rest"
	log "github.com/sirupsen/logrus"
)

type HealthDTO struct {
	Status  string     `json:"status"`
	LastRun *RunStatus `json:"lastRun,omitempty"`
}

type Handler struct {
	job *Job
}

func NewHandler(job *Job) *Handler {
	return &Handler{job: job}
}

// TriggerSync runs a sync and answers with its report.
// Query parameter dryRun=true computes the plan without writing to the calendar.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if value := r.URL.Query().Get("dryRun"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid dryRun parameter", err.Error())
			return
		}
		dryRun = parsed
	}

	log.Debugf("Sync triggered over HTTP (dry run: %t)", dryRun)
	report, err := h.job.Run(r.Context(), dryRun)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			rest.WriteError(w, http.StatusConflict, "Sync already in progress", "")
			return
		}
		rest.WriteError(w, http.StatusBadGateway, "Sync failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	health := HealthDTO{Status: "ok"}
	if status, ok := h.job.LastRun(); ok {
		health.LastRun = &status
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
