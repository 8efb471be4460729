/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package storage opens calendar sources from the local filesystem or from
// S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Opener opens a calendar source for reading.
type Opener interface {
	// Open returns the source contents and a canonical name for it.
	Open(ctx context.Context, location string) (io.ReadCloser, string, error)
}

// FilesystemStorage opens local files.
type FilesystemStorage struct {
	logger zerolog.Logger
}

// NewFilesystemStorage creates a filesystem-based opener.
func NewFilesystemStorage(logger zerolog.Logger) *FilesystemStorage {
	return &FilesystemStorage{logger: logger}
}

// Open opens path and names it by its absolute path.
func (fs *FilesystemStorage) Open(ctx context.Context, path string) (io.ReadCloser, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	name := path
	if abs, err := filepath.Abs(path); err == nil {
		name = abs
	}
	fs.logger.Debug().Str("path", name).Msg("opened calendar file")
	return f, name, nil
}

// Router sends s3:// locations to object storage and everything else to the
// filesystem.
type Router struct {
	Files   Opener
	Objects Opener
}

// Open dispatches on the location scheme.
func (r Router) Open(ctx context.Context, location string) (io.ReadCloser, string, error) {
	if IsS3URL(location) {
		if r.Objects == nil {
			return nil, "", fmt.Errorf("open %s: object storage not configured", location)
		}
		return r.Objects.Open(ctx, location)
	}
	return r.Files.Open(ctx, location)
}

// IsS3URL reports whether location uses the s3:// scheme.
func IsS3URL(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(location string) (bucket, key string, err error) {
	if !IsS3URL(location) {
		return "", "", fmt.Errorf("not an s3 url: %q", location)
	}
	rest := strings.TrimPrefix(location, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url %q must be s3://bucket/key", location)
	}
	return bucket, key, nil
}
