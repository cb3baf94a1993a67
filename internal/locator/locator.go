// Package locator resolves an organized filename to its current path under
// the destination tree.
package locator

import (
	"path/filepath"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/afero"

	"filesort/internal/buckets"
)

// Result describes where a filename lives after organizing.
type Result struct {
	Filename string
	Bucket   string
	Path     string
	Found    bool
}

// Locator answers locate queries against one bucket map and destination root.
// Image placement is read from disk on every query, so results follow any
// changes made to the images tree after the run.
type Locator struct {
	fs          afero.Fs
	root        string
	buckets     *buckets.Map
	noExtFolder string
}

// New returns a locator over the destination root. noExtFolder is the folder
// that received files without an extension ("" for the root itself).
func New(fs afero.Fs, root string, m *buckets.Map, noExtFolder string) *Locator {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Locator{fs: fs, root: root, buckets: m, noExtFolder: noExtFolder}
}

// Locate returns the destination path of filename. A filename that is not in
// any bucket yields a Result with Found == false.
func (l *Locator) Locate(filename string) Result {
	ext, ok := l.buckets.BucketOf(filename)
	if !ok {
		return Result{Filename: filename}
	}
	res := Result{Filename: filename, Bucket: ext, Found: true}
	if buckets.IsImage(ext) {
		res.Path = l.locateImage(filename)
		return res
	}
	res.Path = filepath.Join(l.root, buckets.FolderName(ext, l.noExtFolder), filename)
	return res
}

// locateImage scans every caption folder under images/ in name order and
// falls back to images/others when none holds filename.
func (l *Locator) locateImage(filename string) string {
	imagesDir := filepath.Join(l.root, buckets.ImagesFolder)
	fallback := filepath.Join(imagesDir, buckets.OthersFolder, filename)

	entries, err := afero.ReadDir(l.fs, imagesDir)
	if err != nil {
		return fallback
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(imagesDir, entry.Name(), filename)
		info, err := l.fs.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return fallback
}

// Suggest returns up to limit known filenames that fuzzily match query, best
// match first. Matching ignores case.
func (l *Locator) Suggest(query string, limit int) []string {
	return Suggest(l.buckets.Names(), query, limit)
}

// Suggest ranks candidates against query by edit distance.
func Suggest(candidates []string, query string, limit int) []string {
	if query == "" || len(candidates) == 0 {
		return nil
	}
	ranks := fuzzy.RankFindFold(query, candidates)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	out := make([]string, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, r.Target)
	}
	return out
}
