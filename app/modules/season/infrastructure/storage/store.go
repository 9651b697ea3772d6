// Package seasonstorage archives seasons into an S3-compatible bucket. Each
// season owns one folder; a marker object stands in for the folder itself,
// so prepare and finalize are plain idempotent writes.
package seasonstorage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	"github.com/Permavault-Club/season-engine/internal/attr"
)

const (
	prepareMarker  = ".season"
	finalizeMarker = ".finalized"
	manifestObject = "manifest.json"
)

// objectClient is the narrow S3 surface the store uses.
type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config holds the bucket the store writes into. Endpoint is optional and
// points the client at an S3-compatible server instead of AWS.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// Store implements seasonservice.PermanentStore on top of an S3 bucket.
type Store struct {
	client objectClient
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewStore builds a store with a real S3 client from the ambient AWS
// credential chain.
func NewStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("seasonstorage.NewStore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewStoreWithClient(cfg, client, logger)
}

// NewStoreWithClient builds a store around an injected client. Tests use
// this to avoid AWS entirely.
func NewStoreWithClient(cfg Config, client objectClient, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("seasonstorage.NewStoreWithClient: bucket is required")
	}
	return &Store{
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// folderKey returns the object-key folder for a season, always "/"-terminated.
func (s *Store) folderKey(seasonNumber int64) string {
	folder := fmt.Sprintf("seasons/%d/", seasonNumber)
	if s.cfg.Prefix == "" {
		return folder
	}
	return strings.TrimSuffix(s.cfg.Prefix, "/") + "/" + folder
}

// PrepareFolder creates the season's folder by writing its marker object.
// A marker that already exists is left untouched, so re-runs preserve the
// original preparation timestamp.
func (s *Store) PrepareFolder(ctx context.Context, info seasondomain.SeasonInfo) (string, error) {
	folder := s.folderKey(info.Number)
	key := folder + prepareMarker

	exists, err := s.objectExists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("seasonstorage.PrepareFolder: check marker: %w", err)
	}
	if exists {
		return folder, nil
	}

	marker, err := json.Marshal(map[string]any{
		"season":     info.Number,
		"start":      info.Start,
		"end":        info.End,
		"preparedAt": s.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("seasonstorage.PrepareFolder: encode marker: %w", err)
	}

	if err := s.putJSON(ctx, key, marker); err != nil {
		return "", fmt.Errorf("seasonstorage.PrepareFolder: %w", err)
	}

	s.logger.InfoContext(ctx, "Season folder prepared",
		attr.SeasonNumber("season", info.Number),
		attr.String("folder", folder),
	)
	return folder, nil
}

// FinalizeFolder seals a season's folder by writing its finalize marker.
// Idempotent: a sealed folder stays sealed.
func (s *Store) FinalizeFolder(ctx context.Context, seasonNumber int64) error {
	key := s.folderKey(seasonNumber) + finalizeMarker

	exists, err := s.objectExists(ctx, key)
	if err != nil {
		return fmt.Errorf("seasonstorage.FinalizeFolder: check marker: %w", err)
	}
	if exists {
		return nil
	}

	marker, err := json.Marshal(map[string]any{
		"season":      seasonNumber,
		"finalizedAt": s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("seasonstorage.FinalizeFolder: encode marker: %w", err)
	}

	if err := s.putJSON(ctx, key, marker); err != nil {
		return fmt.Errorf("seasonstorage.FinalizeFolder: %w", err)
	}

	s.logger.InfoContext(ctx, "Season folder finalized",
		attr.SeasonNumber("season", seasonNumber),
	)
	return nil
}

// UploadManifest writes the season's standings manifest, replacing any
// previous upload, and returns the object key.
func (s *Store) UploadManifest(ctx context.Context, seasonNumber int64, manifest []byte) (string, error) {
	key := s.folderKey(seasonNumber) + manifestObject

	if err := s.putJSON(ctx, key, manifest); err != nil {
		return "", fmt.Errorf("seasonstorage.UploadManifest: %w", err)
	}

	s.logger.InfoContext(ctx, "Season manifest uploaded",
		attr.SeasonNumber("season", seasonNumber),
		attr.String("key", key),
		attr.Int("bytes", len(manifest)),
	)
	return key, nil
}

func (s *Store) putJSON(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) objectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	return true, nil
}

var _ seasonservice.PermanentStore = (*Store)(nil)
