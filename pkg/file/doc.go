// Package file stores binary objects (screenshots, cached browser sessions) behind a
// single Storage interface with S3 and local filesystem backends.
//
// Objects are addressed by slash-separated keys such as "screenshots/<id>-light.png" or
// "prod/sessions/gmail-chromium.json". Keys are normalized by CleanPath; anything that
// tries to escape the store root is rejected with ErrInvalidPath.
//
// # Usage
//
//	storage, err := file.NewS3Storage(ctx, file.S3Config{
//		Bucket: "inboxshot",
//		Region: "us-east-1",
//	})
//	if err != nil {
//		return err
//	}
//
//	url, err := storage.Put(ctx, "screenshots/abc-light.png", png, file.ContentTypePNG, file.Public())
//
//	blob, err := storage.Get(ctx, "prod/sessions/gmail-chromium.json")
//	if errors.Is(err, file.ErrFileNotFound) {
//		// nothing cached yet
//	}
//
// New picks the backend from S3Config: a bucket selects S3, otherwise LocalDir selects the
// local backend, which is handy for development and tests.
//
// # Error Handling
//
// S3 errors are mapped to package errors so callers do not depend on the AWS SDK:
//   - NoSuchKey, NotFound -> ErrFileNotFound
//   - NoSuchBucket -> ErrBucketNotFound
//   - AccessDenied -> ErrAccessDenied
//   - SlowDown, ServiceUnavailable -> ErrServiceUnavailable
package file
