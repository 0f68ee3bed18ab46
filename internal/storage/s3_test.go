package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopec/garage/internal/model"
	"github.com/autopec/garage/internal/validation"
)

type fakeObjectAPI struct {
	mu        sync.Mutex
	puts      []*s3.PutObjectInput
	bodies    []string
	deletes   []string
	putErr    error
	deleteErr error
	headErr   error
	created   bool
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjectAPI) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeObjectAPI) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = true
	return &s3.CreateBucketOutput{}, nil
}

func testStore(api objectAPI) *S3MediaStore {
	return newS3MediaStore(api, S3Config{
		Region:     "us-east-1",
		Bucket:     "garage",
		Endpoint:   "http://localhost:9000/",
		RootFolder: "autopec",
		Policy:     validation.DefaultUploadPolicy(),
	})
}

func TestS3MediaStoreUpload(t *testing.T) {
	tests := []struct {
		name       string
		mediaType  string
		filename   string
		wantKind   model.MediaKind
		wantRes    model.ResourceKind
		wantPrefix string
	}{
		{"image", "image/jpeg", "front.JPG", model.MediaImage, model.ResourceImage, "autopec/images/"},
		{"video", "video/mp4", "clip.mp4", model.MediaVideo, model.ResourceVideo, "autopec/videos/"},
		{"audio as video", "audio/webm;codecs=opus", "knock.webm", model.MediaAudio, model.ResourceVideo, "autopec/audio/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeObjectAPI{}
			store := testStore(api)

			res, err := store.Upload(context.Background(), strings.NewReader("data"), UploadInput{
				Filename:  tt.filename,
				MediaType: tt.mediaType,
				Size:      4,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantRes, res.Resource)
			assert.True(t, strings.HasPrefix(res.PublicID, tt.wantPrefix), res.PublicID)
			assert.Equal(t, strings.ToLower(validation.Extension(tt.filename)), res.PublicID[strings.LastIndex(res.PublicID, "."):])
			assert.Equal(t, "http://localhost:9000/garage/"+res.PublicID, res.URL)

			require.Len(t, api.puts, 1)
			put := api.puts[0]
			assert.Equal(t, "garage", aws.ToString(put.Bucket))
			assert.Equal(t, res.PublicID, aws.ToString(put.Key))
			assert.Equal(t, model.BaseMediaType(tt.mediaType), aws.ToString(put.ContentType))
			assert.Equal(t, string(tt.wantRes), put.Metadata["resource-kind"])
			assert.Equal(t, "data", api.bodies[0])
		})
	}
}

func TestS3MediaStoreUploadRejects(t *testing.T) {
	api := &fakeObjectAPI{}
	store := testStore(api)

	_, err := store.Upload(context.Background(), strings.NewReader("x"), UploadInput{Filename: "a.pdf", MediaType: "application/pdf", Size: 1})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	_, err = store.Upload(context.Background(), strings.NewReader("x"), UploadInput{Filename: "a.jpg", MediaType: "image/jpeg", Size: 10<<20 + 1})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	assert.Empty(t, api.puts, "nothing reaches the bucket")
}

func TestS3MediaStoreUploadError(t *testing.T) {
	api := &fakeObjectAPI{putErr: errors.New("connection reset")}
	store := testStore(api)

	_, err := store.Upload(context.Background(), strings.NewReader("x"), UploadInput{Filename: "a.jpg", MediaType: "image/jpeg", Size: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestS3MediaStoreDelete(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		api := &fakeObjectAPI{}
		ok := testStore(api).Delete(context.Background(), "autopec/images/1-2.jpg", model.ResourceImage)
		assert.True(t, ok)
		assert.Equal(t, []string{"autopec/images/1-2.jpg"}, api.deletes)
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		api := &fakeObjectAPI{deleteErr: errors.New("boom")}
		ok := testStore(api).Delete(context.Background(), "autopec/videos/1-2.mp4", model.ResourceVideo)
		assert.False(t, ok)
		assert.Len(t, api.deletes, 1)
	})

	t.Run("empty id is a no-op", func(t *testing.T) {
		api := &fakeObjectAPI{}
		assert.False(t, testStore(api).Delete(context.Background(), "", model.ResourceImage))
		assert.Empty(t, api.deletes)
	})
}

func TestEnsureBucket(t *testing.T) {
	api := &fakeObjectAPI{}
	require.NoError(t, testStore(api).ensureBucket(context.Background()))
	assert.False(t, api.created)

	api = &fakeObjectAPI{headErr: errors.New("not found")}
	require.NoError(t, testStore(api).ensureBucket(context.Background()))
	assert.True(t, api.created)
}

func TestPublicURL(t *testing.T) {
	s := newS3MediaStore(&fakeObjectAPI{}, S3Config{Bucket: "b", Region: "eu-west-1"})
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/k", s.URL("k"))
	assert.Equal(t, "autopec", s.rootFolder)

	s = newS3MediaStore(&fakeObjectAPI{}, S3Config{Bucket: "b", PublicURL: "https://cdn.example.com/"})
	assert.Equal(t, "https://cdn.example.com/k", s.URL("k"))
}

func TestResourceFromPublicID(t *testing.T) {
	assert.Equal(t, model.ResourceVideo, resourceFromPublicID("autopec/audio/1.webm", model.ResourceImage))
	assert.Equal(t, model.ResourceVideo, resourceFromPublicID("autopec/videos/1.mp4", ""))
	assert.Equal(t, model.ResourceImage, resourceFromPublicID("autopec/images/1.jpg", model.ResourceVideo))
	assert.Equal(t, model.ResourceRaw, resourceFromPublicID("legacy-id", model.ResourceRaw))
}
