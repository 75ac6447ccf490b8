package internal

import (
	"context"
	"path"

	"github.com/evergreen-ci/pail"
	"github.com/julianedwards/formatter/options"
	"github.com/pkg/errors"
)

// CreateBucket opens the bucket described by opts, scoped to prefix beneath
// the configured bucket prefix.
func CreateBucket(ctx context.Context, prefix string, opts options.Bucket) (pail.Bucket, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid bucket options")
	}

	if opts.Prefix != "" {
		prefix = path.Join(opts.Prefix, prefix)
	}

	var (
		bucket pail.Bucket
		err    error
	)
	switch opts.Type {
	case options.PailS3:
		bucket, err = pail.NewS3Bucket(pail.S3Options{
			Name:        opts.Name,
			Prefix:      prefix,
			Region:      opts.S3.Region,
			Credentials: pail.CreateAWSCredentials(opts.S3.Key, opts.S3.Secret, ""),
			MaxRetries:  opts.S3.MaxRetries,
			Compress:    opts.S3.Compress,
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating AWS S3 backed bucket")
		}
	default:
		bucket, err = pail.NewLocalBucket(pail.LocalOptions{
			Path:   opts.Name,
			Prefix: prefix,
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating local filesystem backed bucket")
		}
	}

	if err = bucket.Check(ctx); err != nil {
		return nil, errors.Wrap(err, "checking bucket")
	}

	return bucket, nil
}
