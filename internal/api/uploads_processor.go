package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vidtube/internal/media"
	"vidtube/internal/observability/metrics"
	"vidtube/internal/storage"
)

// stagedFile is a multipart upload buffered in memory and ready to be pushed
// to the media store.
type stagedFile struct {
	originalName string
	contentType  string
	data         []byte
}

func (f *stagedFile) empty() bool {
	return f == nil || len(f.data) == 0
}

type UploadProcessorConfig struct {
	Media   media.Store
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// UploadProcessor pushes staged uploads to the media store. A video and its
// thumbnail are stored concurrently; when either side fails the surviving
// sibling is released so no orphaned objects remain.
type UploadProcessor struct {
	media   media.Store
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Recorder
}

const defaultUploadTimeout = 10 * time.Minute

func NewUploadProcessor(cfg UploadProcessorConfig) *UploadProcessor {
	mediaStore := cfg.Media
	if mediaStore == nil {
		mediaStore = media.NoopStore{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}
	return &UploadProcessor{
		media:   mediaStore,
		timeout: timeout,
		logger:  logger,
		metrics: recorder,
	}
}

// Enabled reports whether a media store is configured for uploads.
func (p *UploadProcessor) Enabled() bool {
	return p != nil && p.media.Enabled()
}

// StoreVideoWithThumbnail persists both parts of a video upload. On any
// failure it releases whatever was already stored and returns an UploadFailed
// error.
func (p *UploadProcessor) StoreVideoWithThumbnail(ctx context.Context, video, thumbnail *stagedFile) (media.StoredObject, media.StoredObject, error) {
	if video.empty() {
		return media.StoredObject{}, media.StoredObject{}, storage.InvalidArgumentf("video file is required")
	}
	if thumbnail.empty() {
		return media.StoredObject{}, media.StoredObject{}, storage.InvalidArgumentf("thumbnail is required")
	}

	p.metrics.UploadStarted()
	defer p.metrics.UploadFinished()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var videoObj, thumbObj media.StoredObject
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		obj, err := p.storeOne(groupCtx, "videos", video)
		if err != nil {
			return fmt.Errorf("store video: %w", err)
		}
		videoObj = obj
		return nil
	})
	group.Go(func() error {
		obj, err := p.storeOne(groupCtx, "thumbnails", thumbnail)
		if err != nil {
			return fmt.Errorf("store thumbnail: %w", err)
		}
		thumbObj = obj
		return nil
	})
	if err := group.Wait(); err != nil {
		p.Release(context.Background(), videoObj.URL, thumbObj.URL)
		return media.StoredObject{}, media.StoredObject{}, storage.UploadFailedf("upload media: %v", err)
	}
	return videoObj, thumbObj, nil
}

// StoreImage persists a single image such as an avatar or cover and returns
// the stored object.
func (p *UploadProcessor) StoreImage(ctx context.Context, folder string, file *stagedFile) (media.StoredObject, error) {
	if file.empty() {
		return media.StoredObject{}, storage.InvalidArgumentf("image file is required")
	}
	p.metrics.UploadStarted()
	defer p.metrics.UploadFinished()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	obj, err := p.storeOne(ctx, folder, file)
	if err != nil {
		return media.StoredObject{}, storage.UploadFailedf("upload image: %v", err)
	}
	return obj, nil
}

func (p *UploadProcessor) storeOne(ctx context.Context, folder string, file *stagedFile) (media.StoredObject, error) {
	key := objectKey(folder, file.originalName)
	p.metrics.ObserveMediaAttempt("store")
	obj, err := p.media.Store(ctx, key, file.contentType, file.data)
	if err != nil {
		p.metrics.ObserveMediaFailure("store")
		return media.StoredObject{}, err
	}
	return obj, nil
}

// Release deletes stored objects by URL, logging failures instead of
// propagating them. Empty URLs are skipped.
func (p *UploadProcessor) Release(ctx context.Context, objectURLs ...string) {
	for _, objectURL := range objectURLs {
		if strings.TrimSpace(objectURL) == "" {
			continue
		}
		p.metrics.ObserveMediaAttempt("release")
		if err := p.media.Release(ctx, objectURL); err != nil {
			p.metrics.ObserveMediaFailure("release")
			p.logger.Warn("failed to release media object", "url", objectURL, "error", err)
		}
	}
}

func objectKey(folder, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)
}

// readMultipartFile buffers a multipart part up to maxBytes.
func readMultipartFile(part *multipart.Part, maxBytes int64) (*stagedFile, error) {
	defer part.Close()
	data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file exceeds the %d byte limit", maxBytes)
	}
	return &stagedFile{
		originalName: part.FileName(),
		contentType:  part.Header.Get("Content-Type"),
		data:         data,
	}, nil
}
