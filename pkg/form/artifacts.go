package form

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/EnamSon/gformfiller/pkg/browser"
)

// TimestampLayout is appended to every artifact name.
const TimestampLayout = "20060102_150405"

func (f *Filler) stamp(name, ext string) string {
	return fmt.Sprintf("%s_%s%s", name, f.now().Format(TimestampLayout), ext)
}

// capture takes a labeled screenshot. Failures are logged only.
func (f *Filler) capture(label string) {
	if f.cfg.ScreenshotsDir == "" {
		return
	}
	if err := os.MkdirAll(f.cfg.ScreenshotsDir, 0755); err != nil {
		formLog.Warnf("screenshot %s: %v", label, err)
		return
	}
	path := filepath.Join(f.cfg.ScreenshotsDir, f.stamp(label, ".png"))
	if err := f.session.Screenshot(path); err != nil {
		formLog.Warnf("screenshot %s: %v", label, err)
		return
	}
	formLog.Infof("screenshot saved: %s", path)
}

// snapshot prints the current page to PDF, falling back to a cleaned HTML
// copy when printing is not available.
func (f *Filler) snapshot(name string) {
	if f.cfg.PDFDir == "" {
		return
	}
	if err := os.MkdirAll(f.cfg.PDFDir, 0755); err != nil {
		formLog.Warnf("snapshot %s: %v", name, err)
		return
	}
	path := filepath.Join(f.cfg.PDFDir, f.stamp(name, ".pdf"))
	err := f.session.PrintToPDF(path)
	if err == nil {
		formLog.Infof("page saved: %s", path)
		f.mu.Lock()
		f.result.PDFs = append(f.result.PDFs, path)
		f.mu.Unlock()
		return
	}
	formLog.Warnf("printing %s failed, saving HTML instead: %v", name, err)

	content, err := f.session.Content()
	if err != nil {
		formLog.Warnf("snapshot %s: %v", name, err)
		return
	}
	htmlPath := strings.TrimSuffix(path, ".pdf") + ".html"
	if err := browser.WriteSnapshot(content, htmlPath); err != nil {
		formLog.Warnf("snapshot %s: %v", name, err)
		return
	}
	formLog.Infof("page saved: %s", htmlPath)
}

func (f *Filler) mergeSnapshots() {
	f.mu.Lock()
	pdfs := append([]string(nil), f.result.PDFs...)
	f.mu.Unlock()
	if len(pdfs) < 2 {
		return
	}
	out := filepath.Join(f.cfg.PDFDir, f.stamp("form", ".pdf"))
	if err := MergePDFs(pdfs, out); err != nil {
		formLog.Warnf("merging page snapshots: %v", err)
		return
	}
	f.mu.Lock()
	f.result.Merged = out
	f.mu.Unlock()
	formLog.Infof("merged %d pages into %s", len(pdfs), out)
}

// MergePDFs concatenates files into out.
func MergePDFs(files []string, out string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to merge")
	}
	if err := api.MergeCreateFile(files, out, false, nil); err != nil {
		return fmt.Errorf("failed to merge %d files: %w", len(files), err)
	}
	return nil
}
