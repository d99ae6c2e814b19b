// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a narrow interface covering what the
// gallery needs: bucket checks, listing for integrity reports, and issuing
// presigned GET URLs for display. This abstraction supports both AWS S3 and
// self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
//
// # Presigned URLs
//
// PresignResolver implements the remote resolution call used by the URL
// cache. Issuance is throttled with a token bucket to stay within quota.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	resolver := storage.NewPresignResolver(client, config.Bucket, config.PresignRate, config.PresignBurst)
//	u, err := resolver.ResolveAccessURL(ctx, "public/cat.jpg", time.Hour)
package storage
