// Package config provides configuration management for the gallery service.
//
// It uses Viper to read environment variables, optionally seeded from a .env
// file. Defaults come from the `default` struct tags of every section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP port and API key
//   - Database: MySQL or SQLite connection details
//   - Storage: S3/MinIO credentials, bucket and presign rate limit
//   - Log: logging level and format
//   - Feed: page size and page query retries
//   - Likes: reconcile batch size and like call retries
//   - URLs: display URL TTL, safety margin and resolution retries
//
// Environment variables map to nested keys, e.g. FEED_PAGE_SIZE to
// feed.page_size and URLS_RETRY_MAX_ATTEMPTS to urls.retry.max_attempts.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Feed.PageSize)
package config
