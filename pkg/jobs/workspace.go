package jobs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is the directory tree shared by jobs, profiles and the
// database:
//
//	<root>/gformfiller.db
//	<root>/profiles/<name>/
//	<root>/fillers/<job-id>/record/pdfs/
//	<root>/fillers/<job-id>/record/screenshots/
//	<root>/fillers/<job-id>/files/
type Workspace struct {
	Root string
}

func (w Workspace) DBPath() string      { return filepath.Join(w.Root, DefaultDBName) }
func (w Workspace) ProfilesDir() string { return filepath.Join(w.Root, "profiles") }

// JobDir returns the artifact directory of a job.
func (w Workspace) JobDir(id string) string {
	return filepath.Join(w.Root, "fillers", id)
}

func (w Workspace) PDFDir(id string) string {
	return filepath.Join(w.JobDir(id), "record", "pdfs")
}

func (w Workspace) ScreenshotsDir(id string) string {
	return filepath.Join(w.JobDir(id), "record", "screenshots")
}

// FilesDir holds the files a job uploads.
func (w Workspace) FilesDir(id string) string {
	return filepath.Join(w.JobDir(id), "files")
}

// Prepare creates the directories of a job.
func (w Workspace) Prepare(id string) error {
	for _, dir := range []string{w.PDFDir(id), w.ScreenshotsDir(id), w.FilesDir(id)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to prepare job directory: %w", err)
		}
	}
	return nil
}
