package controllers

import (
	"context"
	"flairhq/internal/audit"
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type AuditStatsProvider interface {
	Stats() audit.WriterStats
}

type HealthController struct {
	db        Pinger
	audit     AuditStatsProvider
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Database      string  `json:"database"`
	AuditPending  int64   `json:"audit_pending"`
	AuditDropped  int64   `json:"audit_dropped"`
	AuditFailed   int64   `json:"audit_failed"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	stats := hc.audit.Stats()
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Database:      "ok",
		AuditPending:  stats.Pending,
		AuditDropped:  stats.Dropped,
		AuditFailed:   stats.Failed,
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := hc.db.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(db Pinger, audit AuditStatsProvider) *HealthController {
	return &HealthController{
		db:        db,
		audit:     audit,
		startTime: time.Now(),
	}
}
