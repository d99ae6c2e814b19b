package integrity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gallery/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PathLister lists the storage key of every image record.
type PathLister interface {
	StoragePaths(ctx context.Context) ([]string, error)
}

// Report is the outcome of CheckImages.
type Report struct {
	Bucket  string `json:"bucket"`
	Prefix  string `json:"prefix"`
	Records int    `json:"records"`
	Objects int    `json:"objects"`
	// MissingObjects are storage keys of records with no object behind them.
	// Their feed items can never resolve.
	MissingObjects []string `json:"missing_objects"`
	// Orphans are objects no record points to.
	Orphans []string `json:"orphans"`
}

// Healthy reports whether records and objects match one to one.
func (r *Report) Healthy() bool {
	return len(r.MissingObjects) == 0 && len(r.Orphans) == 0
}

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	prefix string
	paths  PathLister
	logger *zap.Logger
}

// NewService creates a new integrity service.
func NewService(client storage.Client, bucket, prefix string, paths PathLister, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		bucket: bucket,
		prefix: prefix,
		paths:  paths,
		logger: logger,
	}
}

// CheckImages compares the objects under the image prefix with the storage
// keys recorded in the database.
func (s *Service) CheckImages(ctx context.Context) (*Report, error) {
	var (
		objects []string
		records []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		objects, err = s.listObjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.paths.StoragePaths(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Bucket:         s.bucket,
		Prefix:         s.prefix,
		Records:        len(records),
		Objects:        len(objects),
		MissingObjects: difference(records, objects),
		Orphans:        difference(objects, records),
	}

	s.logger.Info("Image integrity check completed",
		zap.Int("records", report.Records),
		zap.Int("objects", report.Objects),
		zap.Int("missing_objects", len(report.MissingObjects)),
		zap.Int("orphans", len(report.Orphans)),
	)
	return report, nil
}

func (s *Service) listObjects(ctx context.Context) ([]string, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", s.bucket)
	}

	prefix := s.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		// Folder markers.
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// difference returns the sorted elements of a missing from b.
func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, k := range b {
		in[k] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{}, len(a))
	for _, k := range a {
		if _, ok := in[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
