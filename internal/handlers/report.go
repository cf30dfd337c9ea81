package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/qrail-tms/qrailgo/internal/services/reporting"
)

// analytics computes the dashboard for ?window= (days) and ?zone=
func (r *Router) analytics(w http.ResponseWriter, req *http.Request) {
	f := reporting.Filter{
		RailwayZone: req.URL.Query().Get("zone"),
	}
	if window := req.URL.Query().Get("window"); window != "" {
		n, err := strconv.Atoi(window)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "window must be a positive number of days")
			return
		}
		f.WindowDays = n
	}

	dashboard, err := r.reporting.Aggregate(req.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

// exportReport streams the inventory register as CSV or XLSX
func (r *Router) exportReport(w http.ResponseWriter, req *http.Request) {
	format := req.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		respondError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	f := reporting.ExportFilter{
		BatchID: req.URL.Query().Get("batch"),
		Status:  req.URL.Query().Get("status"),
		Query:   req.URL.Query().Get("q"),
	}

	rows, err := r.reporting.ExportRows(req.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("inventory_report_%s.%s", time.Now().Format("2006-01-02"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := reporting.WriteXLSX(w, rows); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to build workbook")
		}
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	if err := reporting.WriteCSV(w, rows); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build CSV")
	}
}
