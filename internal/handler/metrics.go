package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/userdir/userdir/internal/metrics"
)

// MetricsHandler serves counters in the Prometheus text format.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)

	writeFamily(w, "userdir_users_listed_total", "counter", "GET /users requests served.")
	fmt.Fprintf(w, "userdir_users_listed_total %d\n", snap.UsersListed)

	writeFamily(w, "userdir_users_appended_total", "counter", "Users appended to the directory.")
	fmt.Fprintf(w, "userdir_users_appended_total %d\n", snap.UsersAppended)

	writeFamily(w, "userdir_users_rejected_total", "counter", "Appends refused by strict validation.")
	fmt.Fprintf(w, "userdir_users_rejected_total{reason=%q} %d\n", metrics.ReasonInvalid, snap.UsersRejectedInvalid)
	fmt.Fprintf(w, "userdir_users_rejected_total{reason=%q} %d\n", metrics.ReasonDuplicate, snap.UsersRejectedDuplicate)

	writeFamily(w, "userdir_store_duration_seconds", "summary", "Time spent in the directory store.")
	writeSummary(w, metrics.OpList, snap.StoreListCount, snap.StoreListTotalNs)
	writeSummary(w, metrics.OpAppend, snap.StoreAppendCount, snap.StoreAppendTotalNs)
}

func writeFamily(w io.Writer, name, kind, help string) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func writeSummary(w io.Writer, op string, count uint64, totalNs int64) {
	fmt.Fprintf(w, "userdir_store_duration_seconds_count{op=%q} %d\n", op, count)
	fmt.Fprintf(w, "userdir_store_duration_seconds_sum{op=%q} %.6f\n", op, time.Duration(totalNs).Seconds())
}
