package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	ws "github.com/qrail-tms/qrailgo/internal/websocket"
)

// ScanRequest carries one decoded QR payload
type ScanRequest struct {
	QRCodeData string `json:"qr_code_data"`
}

// ingestScan registers one scan against a batch and pushes the event to
// the live feed
func (r *Router) ingestScan(w http.ResponseWriter, req *http.Request) {
	batchID := mux.Vars(req)["id"]

	var scanReq ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&scanReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := r.lifecycle.IngestScan(req.Context(), batchID, scanReq.QRCodeData)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	r.hub.Publish(ws.ScanEvent{
		Type:              ws.EventScan,
		BatchID:           batchID,
		GeneratedID:       item.GeneratedID,
		ScanNumber:        item.ScanNumber,
		TotalItemsScanned: item.ScanNumber,
		Timestamp:         time.Now().UTC(),
	})
	respondJSON(w, http.StatusCreated, item)
}

// undoLastScan removes the most recent scan from a batch
func (r *Router) undoLastScan(w http.ResponseWriter, req *http.Request) {
	batchID := mux.Vars(req)["id"]

	if err := r.lifecycle.UndoLastScan(req.Context(), batchID); err != nil {
		respondServiceError(w, err)
		return
	}

	batch, err := r.lifecycle.GetBatch(req.Context(), batchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	r.hub.Publish(ws.ScanEvent{
		Type:              ws.EventUndo,
		BatchID:           batchID,
		TotalItemsScanned: batch.TotalItemsScanned,
		Timestamp:         time.Now().UTC(),
	})
	respondJSON(w, http.StatusOK, batch)
}

// listBatchItems returns a batch's scan log
func (r *Router) listBatchItems(w http.ResponseWriter, req *http.Request) {
	items, err := r.lifecycle.ListBatchItems(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}
