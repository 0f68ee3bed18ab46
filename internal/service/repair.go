package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autopec/garage/internal/model"
	"github.com/autopec/garage/internal/repository"
	"github.com/autopec/garage/internal/storage"
	"github.com/autopec/garage/internal/validation"
)

// RepairInput carries the customer-submitted fields of a repair request.
type RepairInput struct {
	RegistrationNumber string `json:"registrationNumber"`
	ProblemDescription string `json:"problemDescription"`
	CustomerName       string `json:"customerName"`
	PhoneNumber        string `json:"phoneNumber"`
	CarModel           string `json:"carModel"`
}

// IncomingFile is one attachment as received from the client.
type IncomingFile struct {
	Filename  string
	MediaType string
	Size      int64
	Content   io.Reader
}

type RepairService struct {
	repo   repository.RepairRepository
	media  storage.MediaStore
	policy validation.UploadPolicy
	now    func() time.Time
	newID  func() string
}

func NewRepairService(repo repository.RepairRepository, media storage.MediaStore, policy validation.UploadPolicy) *RepairService {
	return &RepairService{
		repo:   repo,
		media:  media,
		policy: policy,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Policy returns the upload ceilings the service enforces.
func (s *RepairService) Policy() validation.UploadPolicy {
	return s.policy
}

// ValidateInput checks the required fields of a submission. It is the first
// check Submit runs, exposed so transports can apply it before reading files.
func (s *RepairService) ValidateInput(in RepairInput) error {
	fieldErrs := validation.ValidateRequired(in.RegistrationNumber, in.ProblemDescription)
	if len(fieldErrs) > 0 {
		return missingFields(fieldErrs.Fields())
	}
	return nil
}

// Submit validates fields and files, uploads attachments in order and persists the request.
// Any failure after the first upload removes what was already uploaded.
func (s *RepairService) Submit(ctx context.Context, in RepairInput, files []IncomingFile) (*model.RepairRequest, error) {
	err := s.ValidateInput(in)
	if err != nil {
		repairSubmissions.WithLabelValues("invalid").Inc()
		return nil, err
	}

	infos := make([]validation.FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, validation.FileInfo{Filename: f.Filename, MediaType: f.MediaType, Size: f.Size})
	}
	err = s.policy.Check(infos)
	if err != nil {
		repairSubmissions.WithLabelValues("rejected_files").Inc()
		return nil, uploadValidationError(err)
	}

	attachments := make(model.Attachments, 0, len(files))
	for _, f := range files {
		result, err := s.media.Upload(ctx, f.Content, storage.UploadInput{
			Filename:  f.Filename,
			MediaType: f.MediaType,
			Size:      f.Size,
		})
		if err != nil {
			s.discardAttachments(ctx, attachments, "submit_upload_failed")
			repairSubmissions.WithLabelValues("upload_failed").Inc()
			return nil, uploadFailure(f.Filename, err)
		}

		attachments = append(attachments, model.Attachment{
			Type:       result.Kind,
			URL:        result.URL,
			PublicID:   result.PublicID,
			Filename:   f.Filename,
			UploadedAt: s.timestamp(),
		})
	}

	now := s.timestamp()
	repair := &model.RepairRequest{
		ID:                 s.newID(),
		RegistrationNumber: validation.NormalizeRegistration(in.RegistrationNumber),
		ProblemDescription: strings.TrimSpace(in.ProblemDescription),
		CustomerName:       strings.TrimSpace(in.CustomerName),
		PhoneNumber:        strings.TrimSpace(in.PhoneNumber),
		CarModel:           strings.TrimSpace(in.CarModel),
		Status:             model.StatusSubmitted,
		MechanicNotes:      "",
		Multimedia:         attachments,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.repo.Create(ctx, repair)
	if err != nil {
		s.discardAttachments(ctx, attachments, "submit_persist_failed")
		repairSubmissions.WithLabelValues("persist_failed").Inc()
		return nil, persistenceError(err)
	}

	repairSubmissions.WithLabelValues("created").Inc()
	slog.Info("repair request submitted",
		"repair_id", repair.ID,
		"registration", repair.RegistrationNumber,
		"attachments", len(attachments),
	)
	return repair, nil
}

// ListAll returns every repair request, newest first.
func (s *RepairService) ListAll(ctx context.Context) ([]*model.RepairRequest, error) {
	repairs, err := s.repo.All(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	return repairs, nil
}

func (s *RepairService) ListByStatus(ctx context.Context, status string) ([]*model.RepairRequest, error) {
	st, ok := model.ParseStatus(status)
	if !ok {
		return nil, invalidStatus(status)
	}

	repairs, err := s.repo.ByStatus(ctx, st)
	if err != nil {
		return nil, persistenceError(err)
	}
	return repairs, nil
}

// UpdateStatusAndNotes sets the status (kept when empty) and replaces the
// mechanic notes verbatim when notes is non-nil.
func (s *RepairService) UpdateStatusAndNotes(ctx context.Context, id, status string, notes *string) (*model.RepairRequest, error) {
	if status != "" {
		_, ok := model.ParseStatus(status)
		if !ok {
			return nil, invalidStatus(status)
		}
	}

	repair, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, storeError(err, id)
	}

	if status != "" {
		repair.Status = model.Status(status)
	}
	if notes != nil {
		repair.MechanicNotes = *notes
	}

	updatedAt := s.timestamp()
	if !updatedAt.After(repair.UpdatedAt) {
		updatedAt = repair.UpdatedAt.Add(time.Microsecond)
	}
	repair.UpdatedAt = updatedAt

	err = s.repo.UpdateStatusAndNotes(ctx, id, repair.Status, repair.MechanicNotes, repair.UpdatedAt)
	if err != nil {
		return nil, storeError(err, id)
	}

	slog.Info("repair request updated", "repair_id", id, "status", repair.Status)
	return repair, nil
}

// TrackByRegistration returns the most recent request for a registration number.
func (s *RepairService) TrackByRegistration(ctx context.Context, registration string) (*model.RepairRequest, error) {
	reg := validation.NormalizeRegistration(registration)
	if reg == "" {
		return nil, &ValidationError{
			Fields:  []string{"registrationNumber"},
			Message: "registration number is required",
		}
	}

	repair, err := s.repo.LatestByRegistration(ctx, reg)
	if err != nil {
		return nil, storeError(err, reg)
	}
	return repair, nil
}

// Delete removes a repair request after a best-effort removal of every attachment.
func (s *RepairService) Delete(ctx context.Context, id string) error {
	repair, err := s.repo.ByID(ctx, id)
	if err != nil {
		return storeError(err, id)
	}

	failed := s.discardAttachments(ctx, repair.Multimedia, "delete")

	err = s.repo.Delete(ctx, id)
	if err != nil {
		return storeError(err, id)
	}

	slog.Info("repair request deleted",
		"repair_id", id,
		"attachments", len(repair.Multimedia),
		"media_cleanup_failures", failed,
	)
	return nil
}

// discardAttachments deletes each attachment's remote object, logging and
// counting failures instead of returning them.
func (s *RepairService) discardAttachments(ctx context.Context, attachments model.Attachments, reason string) int {
	ctx = context.WithoutCancel(ctx)

	failed := 0
	for _, a := range attachments {
		if s.media.Delete(ctx, a.PublicID, a.Type.Resource()) {
			mediaCleanups.WithLabelValues(reason, "ok").Inc()
			continue
		}
		failed++
		mediaCleanups.WithLabelValues(reason, "failed").Inc()
		slog.Error("media cleanup failed, object may be orphaned",
			"reason", reason,
			"public_id", a.PublicID,
			"filename", a.Filename,
		)
	}
	return failed
}

// timestamp is truncated to what every supported store can round-trip.
func (s *RepairService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func invalidStatus(status string) *ValidationError {
	valid := make([]string, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		valid = append(valid, string(st))
	}
	return &ValidationError{
		Fields:  []string{"status"},
		Message: fmt.Sprintf("invalid status %q: must be one of %s", status, strings.Join(valid, ", ")),
	}
}

func uploadValidationError(err error) error {
	var uploadErr *validation.UploadError
	if errors.As(err, &uploadErr) {
		return &ValidationError{
			Fields:  []string{"multimedia"},
			Code:    uploadErr.Code,
			Message: uploadErr.Message,
		}
	}
	return &ValidationError{Fields: []string{"multimedia"}, Message: err.Error()}
}

// uploadFailure turns a media store upload error into a caller-facing error.
func uploadFailure(filename string, err error) error {
	storeErr := &MediaStoreError{Op: "upload", Filename: filename, Err: err}
	switch {
	case errors.Is(err, storage.ErrUnsupportedMediaType):
		return &ValidationError{Fields: []string{"multimedia"}, Code: validation.CodeMediaType, Message: storeErr.Error()}
	case errors.Is(err, storage.ErrFileTooLarge):
		return &ValidationError{Fields: []string{"multimedia"}, Code: validation.CodeFileSize, Message: storeErr.Error()}
	default:
		return &PersistenceError{Kind: PersistenceUnavailable, Err: storeErr}
	}
}
