package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/filestore"
	"github.com/koustreak/idwiden/internal/fsutil"
)

// Sink persists a summary somewhere and returns where it went.
type Sink interface {
	Publish(ctx context.Context, s *Summary) (string, error)
}

// FileSink writes the summary as JSON to a local file, atomically.
type FileSink struct {
	Path string
}

func (f FileSink) Publish(_ context.Context, s *Summary) (string, error) {
	data, err := marshal(s)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(f.Path, data, 0o644); err != nil {
		return "", err
	}
	return f.Path, nil
}

// StoreSink uploads the summary to an object store as <prefix>/<runID>.json.
// When LinkTTL is positive the returned location is a presigned download URL.
type StoreSink struct {
	Store   filestore.Store
	Bucket  string
	Prefix  string
	LinkTTL time.Duration
}

func (s StoreSink) Publish(ctx context.Context, sum *Summary) (string, error) {
	data, err := marshal(sum)
	if err != nil {
		return "", err
	}
	if err := s.Store.EnsureBucket(ctx, s.Bucket); err != nil {
		return "", err
	}

	key := path.Join(s.Prefix, sum.RunID+".json")
	info, err := s.Store.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)), filestore.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"run-id":  sum.RunID,
			"dry-run": fmt.Sprint(sum.DryRun),
		},
	})
	if err != nil {
		return "", err
	}

	location := fmt.Sprintf("%s/%s", info.Bucket, info.Key)
	if s.LinkTTL > 0 {
		if url, err := s.Store.PresignGetURL(ctx, s.Bucket, key, s.LinkTTL); err == nil {
			location = url
		}
	}
	return location, nil
}

func marshal(s *Summary) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "encoding summary", err)
	}
	return append(data, '\n'), nil
}
