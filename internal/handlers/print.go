package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/qrail-tms/qrailgo/internal/services/printer"
)

// batchLabels renders a printable QR label sheet for every item in the
// batch. Layout overrides come from query parameters.
func (r *Router) batchLabels(w http.ResponseWriter, req *http.Request) {
	batchID := mux.Vars(req)["id"]

	batch, err := r.lifecycle.GetBatch(req.Context(), batchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	items, err := r.lifecycle.ListBatchItems(req.Context(), batchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	cfg := printer.DefaultLabelConfig()
	if cols := queryInt(req, "cols"); cols > 0 {
		cfg.Cols = cols
	}
	if rows := queryInt(req, "rows"); rows > 0 {
		cfg.Rows = rows
	}

	pdf, err := printer.GenerateLabelsPDF(batch, items, cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate labels")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="labels_%s.pdf"`, batchID))
	w.Write(pdf)
}

func queryInt(req *http.Request, key string) int {
	v, _ := strconv.Atoi(req.URL.Query().Get(key))
	return v
}
