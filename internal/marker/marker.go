// Package marker persists the resume marker that makes repeated runs of the
// same target incremental.
//
// The marker records the id of the newest post seen when a run started. It
// is written before any download of that run is queued, so a crashed run
// can never cause the next one to skip work: the next run stops at an id
// whose downloads were fully drained, or not at all.
package marker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Draphar/redditrip/internal/logger"
)

// FileName is the marker file created inside each target directory.
const FileName = ".redditrip"

const comment = `
This file is used by redditrip to resume interrupted downloads.
The first line is the id of the newest post seen by the previous run.
Delete the file to download the whole target again.
`

// Read returns the id stored for the target directory. The second return
// is false when no usable marker exists. Read failures other than a
// missing file are logged and treated as absent; a stale resume capability
// is not worth failing a run over.
func Read(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Failed to read resume marker in %q: %v", dir, err)
		}
		return "", false
	}

	id, _, _ := strings.Cut(string(data), "\n")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	return id, true
}

// Write stores id as the marker for the target directory, replacing any
// previous marker. Failures are logged and reported, not fatal: the run
// proceeds, it just cannot be resumed.
func Write(dir, id string) error {
	path := filepath.Join(dir, FileName)
	content := fmt.Sprintf("%s\n%s", id, comment)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logger.Warnf("Failed to write resume marker %q: %v", path, err)
		return err
	}
	return nil
}
