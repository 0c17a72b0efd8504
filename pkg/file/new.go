package file

import "context"

// New builds the Storage selected by cfg: S3 when a bucket is configured, the local
// directory otherwise.
func New(ctx context.Context, cfg S3Config, opts ...S3Option) (Storage, error) {
	if cfg.Bucket != "" {
		return NewS3Storage(ctx, cfg, opts...)
	}
	if cfg.LocalDir != "" {
		return NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL)
	}
	return nil, ErrInvalidConfig
}
