package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/qrail-tms/qrailgo/internal/middleware"
	"github.com/qrail-tms/qrailgo/internal/services/lifecycle"
)

// maxVoiceNoteSize caps voice attachments at 16MB
const maxVoiceNoteSize = 16 << 20

// resolveItem finds an item by ?code=, matching either the generated ID
// or the raw QR payload
func (r *Router) resolveItem(w http.ResponseWriter, req *http.Request) {
	item, err := r.lifecycle.ResolveItem(req.Context(), req.URL.Query().Get("code"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// recordInstallation marks an item installed. The mobile client submits
// multipart form data when a voice note rides along, plain JSON otherwise.
// The installer identity comes from the verified token, never the body.
func (r *Router) recordInstallation(w http.ResponseWriter, req *http.Request) {
	itemID := mux.Vars(req)["id"]
	var input lifecycle.InstallationInput

	if isMultipart(req) {
		if err := req.ParseMultipartForm(maxVoiceNoteSize); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart payload")
			return
		}
		input.Latitude = formFloat(req, "latitude")
		input.Longitude = formFloat(req, "longitude")
		input.Address = req.FormValue("address")
		input.Remarks = req.FormValue("remarks")

		note, cleanup, err := formVoiceNote(req, "voice_note")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid voice note attachment")
			return
		}
		if cleanup != nil {
			defer cleanup()
		}
		input.VoiceNote = note
	} else {
		var body struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			Address   string   `json:"address"`
			Remarks   string   `json:"remarks"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		input = lifecycle.InstallationInput{
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			Address:   body.Address,
			Remarks:   body.Remarks,
		}
	}
	input.InstalledBy = authenticatedEmail(req)

	item, err := r.lifecycle.RecordInstallation(req.Context(), itemID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// recordInspection files an inspection report against an item. The
// inspector identity comes from the verified token, never the body.
func (r *Router) recordInspection(w http.ResponseWriter, req *http.Request) {
	itemID := mux.Vars(req)["id"]
	var input lifecycle.InspectionInput

	if isMultipart(req) {
		if err := req.ParseMultipartForm(maxVoiceNoteSize); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart payload")
			return
		}
		input.Status = req.FormValue("inspection_status")
		input.ComplaintType = req.FormValue("complaint_type")
		input.Description = req.FormValue("complaint_description")
		input.Priority = req.FormValue("priority")
		input.Latitude = formFloat(req, "latitude")
		input.Longitude = formFloat(req, "longitude")

		note, cleanup, err := formVoiceNote(req, "voice_complaint")
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid voice note attachment")
			return
		}
		if cleanup != nil {
			defer cleanup()
		}
		input.VoiceComplaint = note
	} else {
		var body struct {
			Status        string   `json:"inspection_status"`
			ComplaintType string   `json:"complaint_type"`
			Description   string   `json:"complaint_description"`
			Priority      string   `json:"priority"`
			Latitude      *float64 `json:"latitude"`
			Longitude     *float64 `json:"longitude"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
		input = lifecycle.InspectionInput{
			Status:        body.Status,
			ComplaintType: body.ComplaintType,
			Description:   body.Description,
			Priority:      body.Priority,
			Latitude:      body.Latitude,
			Longitude:     body.Longitude,
		}
	}
	input.InspectorEmail = authenticatedEmail(req)

	inspection, err := r.lifecycle.RecordInspection(req.Context(), itemID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, inspection)
}

// listInspections returns an item's inspection history
func (r *Router) listInspections(w http.ResponseWriter, req *http.Request) {
	inspections, err := r.lifecycle.ListItemInspections(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, inspections)
}

func isMultipart(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data")
}

// authenticatedEmail reads the email claim placed by the auth middleware
func authenticatedEmail(req *http.Request) string {
	claims, ok := middleware.ClaimsFromContext(req.Context())
	if !ok {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

// formFloat parses an optional float form field, nil when absent or bad
func formFloat(req *http.Request, field string) *float64 {
	raw := req.FormValue(field)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// formVoiceNote extracts an optional file part. The caller must run the
// returned cleanup once the upload has been consumed.
func formVoiceNote(req *http.Request, field string) (*lifecycle.VoiceNote, func(), error) {
	file, header, err := req.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	note := &lifecycle.VoiceNote{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
	cleanup := func() { closeFile(file) }
	return note, cleanup, nil
}

func closeFile(f multipart.File) {
	_ = f.Close()
}
