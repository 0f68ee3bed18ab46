// Package submission assembles a repair request on the customer side: it
// holds the form fields and picked or captured files, applies the same upload
// rules the API enforces, and submits through the API client.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/autopec/garage/internal/client"
	"github.com/autopec/garage/internal/model"
	"github.com/autopec/garage/internal/validation"
)

var ErrMissingRequired = errors.New("Registration number and problem description are required")

// File is a picked or captured attachment waiting to be submitted. Content
// is rewound before every submit so a failed submission can be retried.
type File struct {
	Name      string
	MediaType string
	Size      int64
	Content   io.ReadSeeker
}

func (f File) Kind() model.MediaKind {
	return model.Classify(f.MediaType)
}

// Submitter sends a finished form to the API.
type Submitter interface {
	Submit(ctx context.Context, fields client.RepairFields, uploads []client.Upload) (*model.RepairRequest, error)
}

type Form struct {
	RegistrationNumber string
	ProblemDescription string
	CustomerName       string
	PhoneNumber        string
	CarModel           string

	files  []File
	policy validation.UploadPolicy
}

func NewForm(policy validation.UploadPolicy) *Form {
	return &Form{policy: policy}
}

// Files returns the accepted attachments in the order they were added.
func (f *Form) Files() []File {
	out := make([]File, len(f.files))
	copy(out, f.files)
	return out
}

// AddFiles accepts a batch of picked files. The whole batch is refused when it
// would push the form past the file limit; otherwise valid files are kept and
// each invalid one is reported in rejected.
func (f *Form) AddFiles(files ...File) (rejected []error, err error) {
	if f.policy.MaxFiles > 0 && len(f.files)+len(files) > f.policy.MaxFiles {
		return nil, fmt.Errorf("Maximum %d files allowed. You have %d file(s) already.", f.policy.MaxFiles, len(f.files))
	}

	for _, file := range files {
		checkErr := f.checkFile(file)
		if checkErr != nil {
			rejected = append(rejected, checkErr)
			continue
		}
		f.files = append(f.files, file)
	}
	return rejected, nil
}

// RemoveFile drops the attachment at index i. Out of range indexes are ignored.
func (f *Form) RemoveFile(i int) {
	if i < 0 || i >= len(f.files) {
		return
	}
	f.files = append(f.files[:i], f.files[i+1:]...)
}

// Validate applies the form rules in order and returns the first failure.
func (f *Form) Validate() error {
	if strings.TrimSpace(f.RegistrationNumber) == "" || strings.TrimSpace(f.ProblemDescription) == "" {
		return ErrMissingRequired
	}

	err := validation.ValidateRegistration(f.RegistrationNumber)
	if err != nil {
		return err
	}

	err = validation.ValidatePhone(f.PhoneNumber)
	if err != nil {
		return err
	}

	infos := make([]validation.FileInfo, 0, len(f.files))
	for _, file := range f.files {
		infos = append(infos, validation.FileInfo{Filename: file.Name, MediaType: file.MediaType, Size: file.Size})
	}
	return f.policy.Check(infos)
}

// Submit validates and sends the form. On success the form is reset; on
// failure it is left intact and the first error is returned unchanged.
func (f *Form) Submit(ctx context.Context, s Submitter) (*model.RepairRequest, error) {
	err := f.Validate()
	if err != nil {
		return nil, err
	}

	uploads := make([]client.Upload, 0, len(f.files))
	for _, file := range f.files {
		_, err = file.Content.Seek(0, io.SeekStart)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file.Name, err)
		}
		uploads = append(uploads, client.Upload{
			Filename:  file.Name,
			MediaType: file.MediaType,
			Body:      file.Content,
		})
	}

	repair, err := s.Submit(ctx, client.RepairFields{
		RegistrationNumber: f.RegistrationNumber,
		ProblemDescription: f.ProblemDescription,
		CustomerName:       f.CustomerName,
		PhoneNumber:        f.PhoneNumber,
		CarModel:           f.CarModel,
	}, uploads)
	if err != nil {
		return nil, err
	}

	f.Reset()
	return repair, nil
}

func (f *Form) Reset() {
	f.RegistrationNumber = ""
	f.ProblemDescription = ""
	f.CustomerName = ""
	f.PhoneNumber = ""
	f.CarModel = ""
	f.files = nil
}

func (f *Form) checkFile(file File) error {
	if validation.CheckMediaType(file.Name, file.MediaType) != nil {
		return fmt.Errorf("%s: Invalid file type", file.Name)
	}
	if f.policy.MaxFileSize > 0 && file.Size > f.policy.MaxFileSize {
		return fmt.Errorf("%s: File too large (max %s)", file.Name, megabytes(f.policy.MaxFileSize))
	}
	return nil
}
