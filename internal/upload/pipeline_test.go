package upload_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"mintwatch/internal/folder"
	"mintwatch/internal/logging"
	"mintwatch/internal/services"
	"mintwatch/internal/upload"
)

type stored struct {
	data        []byte
	contentType string
	filename    string
}

// fakeStorage is an in-memory Uploader. failUploads makes the next N uploads
// fail; hiddenPolls makes each URI return 404 for the first N fetches.
type fakeStorage struct {
	mu          sync.Mutex
	objects     map[string]stored
	order       []string
	failUploads int
	uploadErr   error
	uploadCalls int
	hiddenPolls int
	fetches     map[string]int
	tamper      bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]stored{}, fetches: map[string]int{}}
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, filename, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	if f.failUploads > 0 {
		f.failUploads--
		if f.uploadErr != nil {
			return "", f.uploadErr
		}
		return "", errors.New("503 service unavailable")
	}
	uri := fmt.Sprintf("mem://%d/%s", len(f.order), filename)
	f.objects[uri] = stored{data: append([]byte(nil), data...), contentType: contentType, filename: filename}
	f.order = append(f.order, uri)
	return uri, nil
}

func (f *fakeStorage) Fetch(_ context.Context, uri string) (*upload.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[uri]++
	obj, ok := f.objects[uri]
	if !ok || f.fetches[uri] <= f.hiddenPolls {
		return &upload.FetchResult{Status: http.StatusNotFound, Header: http.Header{}}, nil
	}
	body := obj.data
	if f.tamper {
		body = append(append([]byte(nil), body...), 'x')
	}
	header := http.Header{}
	header.Set("Content-Type", obj.contentType)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &upload.FetchResult{Status: http.StatusOK, Header: header, Body: body}, nil
}

func testMedia() folder.MediaFile {
	return folder.MediaFile{Name: "cat.png", ContentType: "image/png", Data: []byte("fake png")}
}

func testMetadata(t *testing.T) *folder.Metadata {
	t.Helper()
	m, err := folder.ParseMetadata([]byte(`{"name":"Cat","description":"d"}`))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	return m
}

func fastOptions() upload.Options {
	return upload.Options{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRunUploadsMediaThenMetadataWithImage(t *testing.T) {
	store := newFakeStorage()
	p := upload.NewPipeline(store, fastOptions(), logging.NewNop())

	res, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(store.order) != 2 || store.order[0] != res.MediaURI || store.order[1] != res.MetadataURI {
		t.Fatalf("expected media then metadata, got %v (%+v)", store.order, res)
	}
	meta := store.objects[res.MetadataURI]
	if meta.contentType != "application/json" || meta.filename != upload.MetadataFilename {
		t.Fatalf("unexpected metadata upload %+v", meta)
	}
	var doc map[string]any
	if err := json.Unmarshal(meta.data, &doc); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if doc["image"] != res.MediaURI || doc["description"] != "d" {
		t.Fatalf("unexpected metadata document %v", doc)
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	store := newFakeStorage()
	store.failUploads = 2
	p := upload.NewPipeline(store, fastOptions(), logging.NewNop())

	if _, err := p.Run(context.Background(), testMedia(), testMetadata(t)); err != nil {
		t.Fatalf("expected success after two failures, got %v", err)
	}
	if store.uploadCalls != 4 {
		t.Fatalf("expected 3 media calls plus 1 metadata call, got %d", store.uploadCalls)
	}
}

func TestRunFailsAfterExhaustingAttempts(t *testing.T) {
	store := newFakeStorage()
	store.failUploads = 3
	p := upload.NewPipeline(store, fastOptions(), logging.NewNop())

	res, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if errors.Is(err, services.ErrInsufficientFunds) {
		t.Fatalf("exhaustion must not be classified as insufficient funds: %v", err)
	}
	if store.uploadCalls != 3 || res.MediaURI != "" {
		t.Fatalf("expected 3 calls and no metadata upload, got %d calls, %+v", store.uploadCalls, res)
	}
}

func TestRunDoesNotRetryInsufficientFunds(t *testing.T) {
	for name, uploadErr := range map[string]error{
		"marker":  fmt.Errorf("gateway: %w", services.ErrInsufficientFunds),
		"message": errors.New("Not enough funds to send data"),
	} {
		t.Run(name, func(t *testing.T) {
			store := newFakeStorage()
			store.failUploads = 3
			store.uploadErr = uploadErr
			p := upload.NewPipeline(store, fastOptions(), logging.NewNop())

			_, err := p.Run(context.Background(), testMedia(), testMetadata(t))
			if !errors.Is(err, services.ErrUpload) || !errors.Is(err, services.ErrInsufficientFunds) {
				t.Fatalf("expected insufficient funds upload error, got %v", err)
			}
			if store.uploadCalls != 1 {
				t.Fatalf("expected exactly one attempt, got %d", store.uploadCalls)
			}
		})
	}
}

func TestRunVerifiesAfterPropagationDelay(t *testing.T) {
	store := newFakeStorage()
	store.hiddenPolls = 2
	opts := fastOptions()
	opts.Verify = upload.VerifyOptions{
		Enabled:         true,
		Timeout:         2 * time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     4 * time.Millisecond,
		InlineMaxBytes:  1 << 20,
	}
	p := upload.NewPipeline(store, opts, logging.NewNop())

	res, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if store.fetches[res.MediaURI] != 3 || store.fetches[res.MetadataURI] != 3 {
		t.Fatalf("expected 3 polls per uri, got %v", store.fetches)
	}
}

func TestRunVerificationTimeout(t *testing.T) {
	store := newFakeStorage()
	store.hiddenPolls = 1 << 30
	opts := fastOptions()
	opts.Verify = upload.VerifyOptions{
		Enabled:         true,
		Timeout:         30 * time.Millisecond,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		InlineMaxBytes:  1 << 20,
	}
	p := upload.NewPipeline(store, opts, logging.NewNop())

	res, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if !errors.Is(err, services.ErrVerificationTimeout) {
		t.Fatalf("expected verification timeout, got %v", err)
	}
	if errors.Is(err, services.ErrUpload) {
		t.Fatalf("verification timeout must stay distinct from upload failure: %v", err)
	}
	if res.MediaURI == "" || res.MetadataURI != "" {
		t.Fatalf("expected only the media uri as partial progress, got %+v", res)
	}
}

func TestRunVerificationMismatch(t *testing.T) {
	store := newFakeStorage()
	store.tamper = true
	opts := fastOptions()
	opts.Verify = upload.VerifyOptions{
		Enabled:         true,
		Timeout:         time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		InlineMaxBytes:  1 << 20,
	}
	p := upload.NewPipeline(store, opts, logging.NewNop())

	_, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if !errors.Is(err, services.ErrVerificationMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestLargePayloadVerifiedBySizeOnly(t *testing.T) {
	store := newFakeStorage()
	store.tamper = true
	opts := fastOptions()
	opts.Verify = upload.VerifyOptions{
		Enabled:         true,
		Timeout:         time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		InlineMaxBytes:  1,
	}
	p := upload.NewPipeline(store, opts, logging.NewNop())

	// Tampering appends a byte, so the declared size differs.
	_, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if !errors.Is(err, services.ErrVerificationMismatch) {
		t.Fatalf("expected size mismatch, got %v", err)
	}

	store.tamper = false
	if _, err := p.Run(context.Background(), testMedia(), testMetadata(t)); err != nil {
		t.Fatalf("expected size-only verification to pass, got %v", err)
	}
}

func TestFetchResultHelpers(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "Image/PNG; charset=binary")
	res := &upload.FetchResult{Header: header, Body: []byte("abc")}
	if res.ContentType() != "image/png" {
		t.Fatalf("unexpected content type %q", res.ContentType())
	}
	if res.DeclaredSize() != 3 {
		t.Fatalf("expected body length fallback, got %d", res.DeclaredSize())
	}
	header.Set("Content-Length", "10")
	if res.DeclaredSize() != 10 {
		t.Fatalf("expected declared length, got %d", res.DeclaredSize())
	}
}

// emptyFetchStorage accepts uploads but never produces a fetch result.
type emptyFetchStorage struct {
	fetches int
}

func (s *emptyFetchStorage) Upload(_ context.Context, _ []byte, filename, _ string) (string, error) {
	return "mem://" + filename, nil
}

func (s *emptyFetchStorage) Fetch(context.Context, string) (*upload.FetchResult, error) {
	s.fetches++
	return nil, nil
}

func TestRunVerificationTreatsMissingResultAsUnavailable(t *testing.T) {
	store := &emptyFetchStorage{}
	opts := fastOptions()
	opts.Verify = upload.VerifyOptions{
		Enabled:         true,
		Timeout:         20 * time.Millisecond,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		InlineMaxBytes:  1 << 20,
	}
	p := upload.NewPipeline(store, opts, logging.NewNop())

	_, err := p.Run(context.Background(), testMedia(), testMetadata(t))
	if !errors.Is(err, services.ErrVerificationTimeout) {
		t.Fatalf("expected verification timeout, got %v", err)
	}
	if store.fetches < 2 {
		t.Fatalf("expected polling to continue, got %d fetches", store.fetches)
	}
}

// streamingStorage serves size-only reads through FetchSize and fails full reads.
type streamingStorage struct {
	*fakeStorage
	sizeFetches int
}

func (s *streamingStorage) Fetch(context.Context, string) (*upload.FetchResult, error) {
	return nil, errors.New("full read not expected")
}

func (s *streamingStorage) FetchSize(ctx context.Context, uri string) (*upload.FetchResult, error) {
	res, err := s.fakeStorage.Fetch(ctx, uri)
	if err != nil || res.Status != http.StatusOK {
		return res, err
	}
	s.sizeFetches++
	res.Header.Del("Content-Length")
	res.Size = int64(len(res.Body))
	res.Body = res.Body[:1]
	return res, nil
}

func TestLargePayloadVerifiedThroughSizeFetcher(t *testing.T) {
	tests := []struct {
		name    string
		tamper  bool
		wantErr error
	}{
		{name: "matching size", wantErr: nil},
		{name: "extra byte", tamper: true, wantErr: services.ErrVerificationMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &streamingStorage{fakeStorage: newFakeStorage()}
			store.tamper = tt.tamper
			opts := fastOptions()
			opts.Verify = upload.VerifyOptions{
				Enabled:         true,
				Timeout:         time.Second,
				InitialInterval: time.Millisecond,
				MaxInterval:     time.Millisecond,
				InlineMaxBytes:  1,
			}
			p := upload.NewPipeline(store, opts, logging.NewNop())

			_, err := p.Run(context.Background(), testMedia(), testMetadata(t))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Run: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if store.sizeFetches == 0 {
				t.Fatal("expected size-only reads to stream")
			}
		})
	}
}
