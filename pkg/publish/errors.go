package publish

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig   = errors.New("publish: invalid configuration")
	ErrInvalidLanguage = errors.New("publish: invalid language")
	ErrNotFound        = errors.New("publish: bundle not found")
	ErrAccessDenied    = errors.New("publish: access denied")
	ErrUploadFailed    = errors.New("publish: upload failed")
	ErrDownloadFailed  = errors.New("publish: download failed")
	ErrDeleteFailed    = errors.New("publish: delete failed")
)

// wrapS3Error maps S3 API errors to the package sentinels. The original
// error is formatted with %v so callers match on sentinels only.
func wrapS3Error(err error, fallback error) error {
	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
