package reports

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// ObjectName returns the object path for a report: reports/<user>/<YYYY/MM/DD>/<job_id>.json.
func ObjectName(userID, jobID string, at time.Time) string {
	return path.Join("reports", userID, at.UTC().Format("2006/01/02"), jobID+".json")
}

// URI builds a gs:// URI from a bucket and object name.
func URI(bucket, objectName string) string {
	return "gs://" + bucket + "/" + objectName
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object name.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FilenameFromURI returns the last path element of a GCS URI, or "" if there is none.
func FilenameFromURI(uri string) string {
	_, object, err := ParseGCSURI(uri)
	if err != nil {
		return ""
	}
	return path.Base(object)
}
