// Package docstore stores contract documents and plan artifacts in
// S3-compatible object storage. Extracted contract text lives under
// extracted/ and finished plan documents under plans/.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/staffing"
)

// Config holds the object-storage connection settings.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store is an S3-backed document store.
type Store struct {
	client   *minio.Client
	bucket   string
	region   string
	logger   zerolog.Logger
	initOnce sync.Once
	initErr  error
}

// New validates the configuration and builds the client. The bucket is
// created lazily on first use.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, apperrors.NewConfigError("docstore", "endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, apperrors.NewConfigError("docstore", "access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, apperrors.NewConfigError("docstore", "bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &Store{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger.With().Str("component", "docstore").Logger(),
	}, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// PutExtractedText stores the extracted text of a contract document.
func (s *Store) PutExtractedText(ctx context.Context, docID string, text []byte) error {
	return s.put(ctx, extractedKey(docID), text, "text/plain; charset=utf-8")
}

// FetchExtractedText loads previously extracted contract text.
func (s *Store) FetchExtractedText(ctx context.Context, docID string) ([]byte, error) {
	return s.get(ctx, extractedKey(docID))
}

// PutPlanArtifact stores the finished plan as a JSON document keyed by
// plan id.
func (s *Store) PutPlanArtifact(ctx context.Context, plan *staffing.Plan) error {
	doc, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan %s: %w", plan.ID, err)
	}
	return s.put(ctx, planKey(plan.ID), doc, "application/json")
}

func (s *Store) put(ctx context.Context, key string, content []byte, contentType string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if content == nil {
		content = []byte{}
	}
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(content)).Msg("object stored")
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%s: %w", key, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func extractedKey(docID string) string {
	return "extracted/" + strings.TrimLeft(strings.TrimSpace(docID), "/") + ".txt"
}

func planKey(planID string) string {
	return "plans/" + strings.TrimSpace(planID) + ".json"
}
