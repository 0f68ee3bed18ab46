package cmd

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/autopec/garage/internal/model"
	"github.com/autopec/garage/internal/submission"
	"github.com/autopec/garage/internal/validation"
)

func SubmitCmd() *cobra.Command {
	form := submission.NewForm(validation.DefaultUploadPolicy())
	var files, captures []string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a repair request with optional photos, videos and audio",
		Example: `  repairctl submit --reg "KDA 001Z" --problem "brake noise" --file front.jpg
  repairctl submit --reg KCA123A --problem "engine knock" --capture audio=knock.webm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opened []*os.File
			defer func() {
				for _, f := range opened {
					_ = f.Close()
				}
			}()

			picked := make([]submission.File, 0, len(files))
			for _, p := range files {
				f, file, err := openUpload(p)
				if err != nil {
					return err
				}
				opened = append(opened, f)
				picked = append(picked, file)
			}

			rejected, err := form.AddFiles(picked...)
			if err != nil {
				return err
			}
			for _, r := range rejected {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("skipped:"), r)
			}

			for _, c := range captures {
				err := addCapture(form, c)
				if err != nil {
					return err
				}
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			for _, f := range form.Files() {
				fmt.Fprintf(out, "%s %s (%s, %s)\n", gray("attaching"), f.Name, f.Kind(), humanize.IBytes(uint64(f.Size)))
			}

			repair, err := form.Submit(ctx, newClient())
			if err != nil {
				return err
			}

			fmt.Fprintln(out, color.GreenString("Repair request submitted."))
			printRepair(out, repair)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.RegistrationNumber, "reg", "", "vehicle registration number (required)")
	flags.StringVar(&form.ProblemDescription, "problem", "", "description of the problem (required)")
	flags.StringVar(&form.CustomerName, "name", "", "customer name")
	flags.StringVar(&form.PhoneNumber, "phone", "", "customer phone number")
	flags.StringVar(&form.CarModel, "model", "", "car make and model")
	flags.StringArrayVarP(&files, "file", "f", nil, "photo, video or audio file to attach (repeatable)")
	flags.StringArrayVar(&captures, "capture", nil, "raw recording to attach as kind=path, kind is photo, video or audio (repeatable)")
	return cmd
}

// openUpload opens a file for streaming and determines its media type from
// the extension, falling back to its content.
func openUpload(p string) (*os.File, submission.File, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, submission.File{}, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, submission.File{}, err
	}

	mediaType := mime.TypeByExtension(filepath.Ext(p))
	if mediaType == "" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		mediaType = validation.DetectMediaType("", head[:n])
		_, err = f.Seek(0, io.SeekStart)
		if err != nil {
			_ = f.Close()
			return nil, submission.File{}, err
		}
	}

	return f, submission.File{
		Name:      filepath.Base(p),
		MediaType: model.BaseMediaType(mediaType),
		Size:      info.Size(),
		Content:   f,
	}, nil
}

func addCapture(form *submission.Form, arg string) error {
	kindName, p, ok := strings.Cut(arg, "=")
	if !ok {
		return fmt.Errorf("capture %q must look like kind=path", arg)
	}

	var kind model.MediaKind
	switch kindName {
	case "photo", "image":
		kind = model.MediaImage
	case "video":
		kind = model.MediaVideo
	case "audio":
		kind = model.MediaAudio
	default:
		return fmt.Errorf("unknown capture kind %q", kindName)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}

	_, err = form.AddCapture(kind, data, time.Now())
	return err
}
