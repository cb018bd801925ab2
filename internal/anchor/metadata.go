package anchor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Tags are the key/value metadata of a container or one of its streams.
type Tags map[string]string

// Lookup finds a tag ignoring key case.
func (t Tags) Lookup(key string) (string, bool) {
	for k, v := range t {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// Probe is the subset of container metadata needed to anchor a stream.
type Probe struct {
	Format  Tags
	Streams []Tags
}

// Prober reads container metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*Probe, error)
}

// FFProbe reads metadata by running the ffprobe binary.
type FFProbe struct {
	Binary string
}

// Probe runs ffprobe with JSON output and collects format and stream tags.
func (p FFProbe) Probe(ctx context.Context, path string) (*Probe, error) {
	binary := p.Binary
	if binary == "" {
		binary = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, binary, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	return parseFFProbe(output)
}

func parseFFProbe(output []byte) (*Probe, error) {
	var raw struct {
		Format struct {
			Tags Tags `json:"tags"`
		} `json:"format"`
		Streams []struct {
			Tags Tags `json:"tags"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	probe := &Probe{Format: raw.Format.Tags}
	for _, s := range raw.Streams {
		probe.Streams = append(probe.Streams, s.Tags)
	}
	return probe, nil
}

// Encoded date first, then tagged date. creation_time is how ffprobe names
// the tagged date of MP4/MOV containers.
var dateKeyGroups = [][]string{
	{"encoded_date"},
	{"tagged_date", "creation_time"},
}

var metadataLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// FromMetadata returns the container creation time, converted to local time.
func FromMetadata(ctx context.Context, prober Prober, path string) (time.Time, error) {
	if prober == nil {
		return time.Time{}, fmt.Errorf("%s: no metadata prober configured: %w", path, ErrNoMetadata)
	}
	probe, err := prober.Probe(ctx, path)
	if err != nil {
		return time.Time{}, err
	}
	start, err := creationTime(probe)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", path, err)
	}
	return start, nil
}

func creationTime(probe *Probe) (time.Time, error) {
	sets := append([]Tags{probe.Format}, probe.Streams...)

	var parseErrs []error
	for _, keys := range dateKeyGroups {
		for _, key := range keys {
			for _, tags := range sets {
				value, ok := tags.Lookup(key)
				if !ok {
					continue
				}
				ts, err := parseMetadataTime(value)
				if err != nil {
					parseErrs = append(parseErrs, fmt.Errorf("%s=%q: %w", key, value, err))
					continue
				}
				return ts, nil
			}
		}
	}
	return time.Time{}, errors.Join(append([]error{ErrNoMetadata}, parseErrs...)...)
}

// parseMetadataTime accepts "UTC 2024-10-15 17:52:16", "2024-10-15 17:52:16 UTC"
// and RFC 3339 values.
func parseMetadataTime(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimSpace(strings.TrimPrefix(v, "UTC"))
	v = strings.TrimSpace(strings.TrimSuffix(v, "UTC"))

	for _, layout := range metadataLayouts {
		if ts, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return ts.Local(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
