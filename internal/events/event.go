package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
)

// Event is an S3 (or MinIO) bucket notification.
type Event struct {
	Records []Record `json:"Records"`
}

type Record struct {
	EventName string   `json:"eventName,omitempty"`
	S3        S3Entity `json:"s3"`
}

type S3Entity struct {
	Bucket Bucket `json:"bucket"`
	Object Object `json:"object"`
}

type Bucket struct {
	Name string `json:"name"`
}

type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

// Parse decodes a notification body. An empty Records list is valid.
func Parse(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: decode event: %v", common.ErrInvalidInput, err)
	}
	return ev, nil
}

// DecodeKey undoes the form encoding S3 applies to object keys in
// notifications ("+" is a space). Keys that fail to decode are returned
// unchanged.
func DecodeKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}

// Filter returns the decoded document keys of ev that belong to bucket.
// Records for other buckets and non-document keys are logged and skipped.
func Filter(ev Event, bucket string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	keys := make([]string, 0, len(ev.Records))
	for _, rec := range ev.Records {
		name := rec.S3.Bucket.Name
		key := DecodeKey(rec.S3.Object.Key)
		if name != bucket {
			logger.Warn("event.skip.bucket", "bucket", name, "expected", bucket, "key", key)
			continue
		}
		if !constants.IsDocumentKey(key) {
			logger.Info("event.skip.not_pdf", "key", key)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// RelativeKey turns a path under dir into a slash-separated object key.
func RelativeKey(dir, path string) (string, error) {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return "", fmt.Errorf("relative key for %s: %w", path, err)
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s is not under %s", common.ErrInvalidInput, path, dir)
	}
	return filepath.ToSlash(rel), nil
}
