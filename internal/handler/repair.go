package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/autopec/garage/internal/service"
	"github.com/autopec/garage/internal/validation"
)

const (
	// Multipart field names used by the submission form.
	RepairDataField = "repairData"
	MultimediaField = "multimedia"

	multipartOverhead = 1 << 20
	jsonBodyLimit     = 1 << 20
	sniffLen          = 512
)

type RepairHandler struct {
	repairService *service.RepairService
}

func NewRepairHandler(repairService *service.RepairService) *RepairHandler {
	return &RepairHandler{
		repairService: repairService,
	}
}

// Submit accepts either a multipart form (repairData JSON blob plus multimedia
// parts) or a bare JSON body without attachments.
func (h *RepairHandler) Submit(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		h.submitJSON(w, r)
		return
	}

	policy := h.repairService.Policy()
	if policy.MaxTotalSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, policy.MaxTotalSize+multipartOverhead)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		badRequest(w, "Invalid form", err.Error())
		return
	}

	form := newSubmissionForm(policy, h.repairService.ValidateInput)
	defer form.cleanup()

	err = form.read(mr)
	if err != nil {
		writeSubmitError(w, r, err)
		return
	}

	in, err := form.input()
	if err != nil {
		writeSubmitError(w, r, err)
		return
	}

	repair, err := h.repairService.Submit(r.Context(), in, form.files)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, repair)
}

func (h *RepairHandler) submitJSON(w http.ResponseWriter, r *http.Request) {
	var in service.RepairInput
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, jsonBodyLimit)).Decode(&in)
	if err != nil {
		badRequest(w, "Invalid repair data", err.Error())
		return
	}

	repair, err := h.repairService.Submit(r.Context(), in, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, repair)
}

func (h *RepairHandler) List(w http.ResponseWriter, r *http.Request) {
	repairs, err := h.repairService.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, repairs)
}

func (h *RepairHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	repairs, err := h.repairService.ListByStatus(r.Context(), r.PathValue("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, repairs)
}

func (h *RepairHandler) Track(w http.ResponseWriter, r *http.Request) {
	repair, err := h.repairService.TrackByRegistration(r.Context(), r.PathValue("registration"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, repair)
}

// StatusUpdateRequest is the body of PUT /api/repairs/{id}/status.
type StatusUpdateRequest struct {
	Status        string  `json:"status"`
	MechanicNotes *string `json:"mechanicNotes"`
}

func (h *RepairHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusUpdateRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, jsonBodyLimit)).Decode(&req)
	if err != nil {
		badRequest(w, "Invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Status) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation error",
			Details: "status is required",
			Fields:  []string{"status"},
		})
		return
	}

	repair, err := h.repairService.UpdateStatusAndNotes(r.Context(), r.PathValue("id"), req.Status, req.MechanicNotes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.repairService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Repair deleted successfully"})
}

// writeSubmitError maps failures raised while streaming a submission.
func writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		maxErr    *http.MaxBytesError
		uploadErr *validation.UploadError
		formErr   *formError
	)

	switch {
	case errors.As(err, &maxErr):
		writeUploadError(w, &validation.UploadError{
			Code:    validation.CodeTotalSize,
			Message: "upload too large: request body exceeds the configured maximum",
		})
	case errors.As(err, &uploadErr):
		writeUploadError(w, uploadErr)
	case errors.As(err, &formErr):
		badRequest(w, formErr.message, formErr.err.Error())
	default:
		writeError(w, r, err)
	}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var uploadErr *validation.UploadError
	if errors.As(err, &uploadErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "File upload error",
			Details: uploadErr.Message,
			Code:    uploadErr.Code,
			Fields:  []string{MultimediaField},
		})
		return
	}
	badRequest(w, "File upload error", err.Error())
}
