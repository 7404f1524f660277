package minio

import (
	"context"
	"errors"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/idwiden/internal/errs"
)

// s3CodeKinds classifies S3 error codes whose HTTP status is not enough.
var s3CodeKinds = map[string]errs.ErrKind{
	"NoSuchBucket":            errs.ErrKindNotFound,
	"NoSuchKey":               errs.ErrKindNotFound,
	"AccessDenied":            errs.ErrKindPermissionDenied,
	"InvalidAccessKeyId":      errs.ErrKindPermissionDenied,
	"SignatureDoesNotMatch":   errs.ErrKindPermissionDenied,
	"InvalidBucketName":       errs.ErrKindInvalidInput,
	"InvalidObjectName":       errs.ErrKindInvalidInput,
	"KeyTooLongError":         errs.ErrKindInvalidInput,
	"RequestTimeout":          errs.ErrKindTimeout,
	"SlowDown":                errs.ErrKindTimeout,
	"BucketAlreadyOwnedByYou": errs.ErrKindWrite,
	"BucketAlreadyExists":     errs.ErrKindWrite,
}

// mapError translates a minio-go error into a *errs.Error. Report uploads
// only ever see a handful of these; anything unrecognised is treated as the
// store being unreachable.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var resp miniogo.ErrorResponse
	if !errors.As(err, &resp) {
		return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
	}

	kind := errs.ErrKindConnectionFailed
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = errs.ErrKindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		kind = errs.ErrKindPermissionDenied
	case http.StatusBadRequest:
		kind = errs.ErrKindInvalidInput
	default:
		if k, ok := s3CodeKinds[resp.Code]; ok {
			kind = k
		}
	}
	return errs.Wrap(kind, msg, err)
}
