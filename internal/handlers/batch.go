package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/qrail-tms/qrailgo/internal/services/lifecycle"
	ws "github.com/qrail-tms/qrailgo/internal/websocket"
)

// createBatch opens a new intake batch
func (r *Router) createBatch(w http.ResponseWriter, req *http.Request) {
	var input lifecycle.BatchInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	batch, err := r.lifecycle.CreateBatch(req.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, batch)
}

// listBatches returns batches, optionally filtered by ?status=
func (r *Router) listBatches(w http.ResponseWriter, req *http.Request) {
	batches, err := r.lifecycle.ListBatches(req.Context(), req.URL.Query().Get("status"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batches)
}

// getBatch returns one batch by ID
func (r *Router) getBatch(w http.ResponseWriter, req *http.Request) {
	batch, err := r.lifecycle.GetBatch(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, batch)
}

// finishBatch closes a batch for scanning
func (r *Router) finishBatch(w http.ResponseWriter, req *http.Request) {
	batch, err := r.lifecycle.FinishBatch(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	r.hub.Publish(ws.ScanEvent{
		Type:              ws.EventBatchFinished,
		BatchID:           batch.ID,
		TotalItemsScanned: batch.TotalItemsScanned,
		Timestamp:         time.Now().UTC(),
	})
	respondJSON(w, http.StatusOK, batch)
}
