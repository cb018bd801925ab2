// Package anchor resolves the wall-clock start time of a recording, either from
// the camera's file naming scheme or from the container metadata.
package anchor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNoTimestamp is returned when a filename lacks the YYYYMMDDHHMMSS_ prefix.
	ErrNoTimestamp = errors.New("filename has no timestamp prefix")
	// ErrNoMetadata is returned when the container carries no usable creation date.
	ErrNoMetadata = errors.New("container metadata has no creation date")
)

const filenameLayout = "20060102150405"

var filenamePattern = regexp.MustCompile(`^(\d{14})_`)

// Source selects where the start time comes from.
type Source string

const (
	SourceFilename Source = "filename"
	SourceMetadata Source = "metadata"
	SourceAuto     Source = "auto"
)

// ParseSource validates a configured anchor source.
func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceFilename, SourceMetadata, SourceAuto:
		return src, nil
	default:
		return "", fmt.Errorf("unknown anchor source %q (expected filename, metadata or auto)", s)
	}
}

// FromFilename parses names like 20241015175216_000095.MP4. The camera writes
// local time, so the result is in time.Local.
func FromFilename(path string) (time.Time, error) {
	base := filepath.Base(path)
	match := filenamePattern.FindStringSubmatch(base)
	if match == nil {
		return time.Time{}, fmt.Errorf("%s: %w", base, ErrNoTimestamp)
	}
	start, err := time.ParseInLocation(filenameLayout, match[1], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid timestamp %q: %w", base, match[1], err)
	}
	return start, nil
}

// Resolver applies the configured Source to every stream.
type Resolver struct {
	source Source
	prober Prober
}

// NewResolver creates a resolver. prober may be nil when source is SourceFilename.
func NewResolver(source Source, prober Prober) *Resolver {
	return &Resolver{source: source, prober: prober}
}

// Resolve returns the start time of the recording at path.
func (r *Resolver) Resolve(ctx context.Context, path string) (time.Time, error) {
	switch r.source {
	case SourceMetadata:
		return FromMetadata(ctx, r.prober, path)
	case SourceAuto:
		start, nameErr := FromFilename(path)
		if nameErr == nil {
			return start, nil
		}
		start, metaErr := FromMetadata(ctx, r.prober, path)
		if metaErr != nil {
			return time.Time{}, errors.Join(nameErr, metaErr)
		}
		return start, nil
	default:
		return FromFilename(path)
	}
}
