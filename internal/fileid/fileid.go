// Package fileid derives stable resume IDs for files ingested from disk.
package fileid

import (
	"path/filepath"

	"github.com/google/uuid"
)

// namespace scopes file-derived IDs so they never collide with random upload IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("resumerag:file"))

// FileDocID returns a stable UUID for the given absolute path.
// The same cleaned path always yields the same ID, so re-importing updates in place.
func FileDocID(absolutePath string) string {
	return uuid.NewSHA1(namespace, []byte(filepath.Clean(absolutePath))).String()
}
