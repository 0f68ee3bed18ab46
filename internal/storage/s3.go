package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"

	cfg "github.com/autopec/garage/internal/config"
	"github.com/autopec/garage/internal/model"
	"github.com/autopec/garage/internal/validation"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file exceeds the per-file size ceiling")
)

// MediaStore is the remote object store holding repair attachments.
type MediaStore interface {
	// Upload streams a file into the folder chosen by its media kind.
	Upload(ctx context.Context, file io.Reader, in UploadInput) (*UploadResult, error)

	// Delete removes an object by public id. It never fails loudly: a false
	// return means the object may still exist and the failure was logged.
	Delete(ctx context.Context, publicID string, kind model.ResourceKind) bool
}

type UploadInput struct {
	Filename  string
	MediaType string
	Size      int64
}

type UploadResult struct {
	URL      string
	PublicID string
	Kind     model.MediaKind
	Resource model.ResourceKind
}

// S3MediaStore implements MediaStore for S3-compatible storage
// Works with AWS S3, MinIO, DigitalOcean Spaces, Cloudflare R2, etc.
type S3MediaStore struct {
	client      objectAPI
	bucket      string
	publicURL   string // Base URL for generating URLs
	rootFolder  string
	maxFileSize int64
	timeout     time.Duration
}

// objectAPI is the subset of the S3 client the media store needs.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Config holds configuration for S3 storage
type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string // Optional: for S3-compatible services
	PublicURL  string // Optional: overrides the derived object URL base
	RootFolder string
	Policy     validation.UploadPolicy
}

// New creates an S3-compatible media store from app config
func New(c *cfg.Config) (*S3MediaStore, error) {
	slog.Info("initializing S3 media store",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
		"max_file_size", humanize.IBytes(uint64(c.UploadMaxFileSize)),
	)
	return NewS3MediaStore(S3Config{
		Region:     c.S3Region,
		Bucket:     c.S3Bucket,
		AccessKey:  c.S3AccessKey,
		SecretKey:  c.S3SecretKey,
		Endpoint:   c.S3Endpoint,
		PublicURL:  c.S3PublicURL,
		RootFolder: c.MediaRootFolder,
		Policy:     c.UploadPolicy(),
	})
}

// NewS3MediaStore creates a new S3 media store and makes sure the bucket exists.
func NewS3MediaStore(c S3Config) (*S3MediaStore, error) {
	ctx := context.Background()

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(c.Region))

	// Add static credentials if provided
	if c.AccessKey != "" && c.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if c.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	store := newS3MediaStore(client, c)

	err = store.ensureBucket(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return store, nil
}

func newS3MediaStore(client objectAPI, c S3Config) *S3MediaStore {
	publicURL := c.PublicURL
	switch {
	case publicURL != "":
		publicURL = strings.TrimSuffix(publicURL, "/")
	case c.Endpoint != "":
		publicURL = strings.TrimSuffix(c.Endpoint, "/") + "/" + c.Bucket
	default:
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}

	root := strings.Trim(c.RootFolder, "/")
	if root == "" {
		root = "autopec"
	}

	return &S3MediaStore{
		client:      client,
		bucket:      c.Bucket,
		publicURL:   publicURL,
		rootFolder:  root,
		maxFileSize: c.Policy.MaxFileSize,
		timeout:     60 * time.Second,
	}
}

// ensureBucket checks if bucket exists, creates it if not
func (s *S3MediaStore) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q does not exist and could not be created: %w", s.bucket, err)
	}

	slog.Info("created S3 bucket", "bucket", s.bucket)
	return nil
}

// Upload stores a file under <root>/<kind folder>/<millis>-<random><ext>.
func (s *S3MediaStore) Upload(ctx context.Context, file io.Reader, in UploadInput) (*UploadResult, error) {
	kind := model.Classify(in.MediaType)
	if kind == model.MediaOther {
		mediaStoreOps.WithLabelValues("upload", string(model.ResourceRaw), "rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, in.MediaType)
	}
	if s.maxFileSize > 0 && in.Size > s.maxFileSize {
		mediaStoreOps.WithLabelValues("upload", string(kind.Resource()), "rejected").Inc()
		return nil, fmt.Errorf("%w: %s is %s", ErrFileTooLarge, in.Filename, humanize.IBytes(uint64(in.Size)))
	}

	key := s.objectKey(kind, in.Filename)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(model.BaseMediaType(in.MediaType)),
		Metadata: map[string]string{
			"resource-kind":     string(kind.Resource()),
			"original-filename": in.Filename,
		},
	}
	if in.Size > 0 {
		input.ContentLength = aws.Int64(in.Size)
	}

	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		mediaStoreOps.WithLabelValues("upload", string(kind.Resource()), "error").Inc()
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}
	mediaStoreOps.WithLabelValues("upload", string(kind.Resource()), "ok").Inc()
	mediaStoreBytes.WithLabelValues(string(kind)).Add(float64(in.Size))

	return &UploadResult{
		URL:      s.URL(key),
		PublicID: key,
		Kind:     kind,
		Resource: kind.Resource(),
	}, nil
}

// Delete removes an object from S3, logging instead of returning failures.
func (s *S3MediaStore) Delete(ctx context.Context, publicID string, kind model.ResourceKind) bool {
	if publicID == "" {
		return false
	}
	kind = resourceFromPublicID(publicID, kind)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		mediaStoreOps.WithLabelValues("delete", string(kind), "error").Inc()
		slog.Error("failed to delete media from S3", "error", err, "public_id", publicID, "resource_kind", kind)
		return false
	}
	mediaStoreOps.WithLabelValues("delete", string(kind), "ok").Inc()
	return true
}

// URL returns the public URL for accessing the object
func (s *S3MediaStore) URL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, key)
}

func (s *S3MediaStore) objectKey(kind model.MediaKind, filename string) string {
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.IntN(1_000_000_000), validation.Extension(filename))
	return path.Join(s.rootFolder, kind.Folder(), name)
}

// resourceFromPublicID prefers the folder encoded in the id over the caller's hint.
func resourceFromPublicID(publicID string, hint model.ResourceKind) model.ResourceKind {
	switch {
	case strings.Contains(publicID, "/videos/"), strings.Contains(publicID, "/audio/"):
		return model.ResourceVideo
	case strings.Contains(publicID, "/images/"):
		return model.ResourceImage
	case hint != "":
		return hint
	default:
		return model.ResourceImage
	}
}
