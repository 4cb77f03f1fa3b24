package handlers

import (
	"net/http"

	"github.com/arborlens/treehealth/api"
)

// DiagnosticsHandler exposes backend connectivity checks for the UI's
// "can't reach server" troubleshooting flow.
type DiagnosticsHandler struct {
	Client *api.Client
}

// GetDiagnostics runs the connectivity probes and returns the report.
func (dh *DiagnosticsHandler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	report := dh.Client.Diagnose(r.Context())
	writeJSON(w, http.StatusOK, report)
}
