package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"

	"github.com/autopec/garage/internal/service"
	"github.com/autopec/garage/internal/validation"
)

// formError is a malformed submission body, reported as a plain 400.
type formError struct {
	message string
	err     error
}

func (e *formError) Error() string { return e.message + ": " + e.err.Error() }
func (e *formError) Unwrap() error { return e.err }

// submissionForm streams a multipart submission. Limits are enforced as parts
// arrive: required fields at the first file part, the count when one part too
// many shows up, and the per-file ceiling while a part is copied. Accepted
// files are spooled to temp files for the service to upload.
type submissionForm struct {
	policy   validation.UploadPolicy
	validate func(service.RepairInput) error

	blob    string
	fields  map[string]string
	files   []service.IncomingFile
	spooled []*os.File
	checked bool
}

func newSubmissionForm(policy validation.UploadPolicy, validate func(service.RepairInput) error) *submissionForm {
	return &submissionForm{
		policy:   policy,
		validate: validate,
		fields:   map[string]string{},
	}
}

func (f *submissionForm) read(mr *multipart.Reader) error {
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &formError{message: "Invalid form", err: err}
		}

		err = f.readPart(part)
		_ = part.Close()
		if err != nil {
			return err
		}
	}
}

func (f *submissionForm) readPart(part *multipart.Part) error {
	name := part.FormName()
	if name != MultimediaField {
		if part.FileName() != "" {
			return nil
		}
		value, err := io.ReadAll(io.LimitReader(part, jsonBodyLimit+1))
		if err != nil {
			return &formError{message: "Invalid form", err: err}
		}
		if len(value) > jsonBodyLimit {
			return &formError{message: "Invalid form", err: fmt.Errorf("field %s is too large", name)}
		}
		if name == RepairDataField {
			f.blob = string(value)
		} else {
			f.fields[name] = string(value)
		}
		return nil
	}

	// Fields precede files in every client, so the required check can run
	// before any file is looked at.
	if !f.checked {
		in, err := f.input()
		if err != nil {
			return err
		}
		err = f.validate(in)
		if err != nil {
			return err
		}
		f.checked = true
	}

	err := f.policy.CheckCount(len(f.files) + 1)
	if err != nil {
		return err
	}
	return f.spool(part)
}

func (f *submissionForm) spool(part *multipart.Part) error {
	filename := part.FileName()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return &formError{message: "File upload error", err: fmt.Errorf("failed to read %s: %w", filename, err)}
	}
	head = head[:n]

	detected := validation.DetectMediaType(part.Header.Get("Content-Type"), head)
	err = validation.CheckMediaType(filename, detected)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "autopec-upload-*")
	if err != nil {
		return fmt.Errorf("failed to spool %s: %w", filename, err)
	}
	f.spooled = append(f.spooled, tmp)

	var src io.Reader = io.MultiReader(bytes.NewReader(head), part)
	if f.policy.MaxFileSize > 0 {
		src = io.LimitReader(src, f.policy.MaxFileSize+1)
	}
	size, err := io.Copy(tmp, src)
	if err != nil {
		return &formError{message: "File upload error", err: fmt.Errorf("failed to read %s: %w", filename, err)}
	}
	if f.policy.MaxFileSize > 0 && size > f.policy.MaxFileSize {
		return validation.FileTooLarge(filename, f.policy.MaxFileSize)
	}

	_, err = tmp.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to rewind %s: %w", filename, err)
	}

	f.files = append(f.files, service.IncomingFile{
		Filename:  filename,
		MediaType: detected,
		Size:      size,
		Content:   tmp,
	})
	return nil
}

// input reads the JSON repairData blob, falling back to plain form fields.
func (f *submissionForm) input() (service.RepairInput, error) {
	var in service.RepairInput
	if f.blob != "" {
		err := json.Unmarshal([]byte(f.blob), &in)
		if err != nil {
			return in, &formError{message: "Invalid repair data", err: err}
		}
		return in, nil
	}

	in.RegistrationNumber = f.fields["registrationNumber"]
	in.ProblemDescription = f.fields["problemDescription"]
	in.CustomerName = f.fields["customerName"]
	in.PhoneNumber = f.fields["phoneNumber"]
	in.CarModel = f.fields["carModel"]
	return in, nil
}

// cleanup closes and removes every spooled file.
func (f *submissionForm) cleanup() {
	for _, tmp := range f.spooled {
		err := errors.Join(tmp.Close(), os.Remove(tmp.Name()))
		if err != nil {
			slog.Warn("failed to remove spooled upload", "error", err, "path", tmp.Name())
		}
	}
}
