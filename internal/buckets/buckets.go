// Package buckets groups filenames by lowercased extension.
package buckets

import (
	"path/filepath"
	"slices"
	"strings"
)

// ImagesFolder is the destination subfolder that holds captioned images.
const ImagesFolder = "images"

// OthersFolder receives images that could not be captioned.
const OthersFolder = "others"

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Map associates a lowercased extension (including the dot, "" for none) with
// the filenames that carry it, in source listing order. A Map is immutable
// once built.
type Map struct {
	order   []string
	buckets map[string][]string
	owner   map[string]string
}

// Build groups filenames by Extension, preserving input order per bucket.
// Repeated names keep their first position.
func Build(filenames []string) *Map {
	m := &Map{
		buckets: make(map[string][]string),
		owner:   make(map[string]string, len(filenames)),
	}
	for _, name := range filenames {
		if name == "" {
			continue
		}
		if _, seen := m.owner[name]; seen {
			continue
		}
		ext := Extension(name)
		if _, ok := m.buckets[ext]; !ok {
			m.order = append(m.order, ext)
		}
		m.buckets[ext] = append(m.buckets[ext], name)
		m.owner[name] = ext
	}
	return m
}

// Extension returns the lowercased extension of name including the dot.
// Leading dots do not start an extension, so "archive", ".bashrc" and
// "..hidden" all yield "" while ".bashrc.bak" yields ".bak".
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimLeft(name, ".")))
}

// IsImage reports whether ext (as returned by Extension) is captioned.
func IsImage(ext string) bool {
	_, ok := imageExtensions[strings.ToLower(ext)]
	return ok
}

// FolderName returns the destination subfolder for non-image ext: the
// extension without its dot, or noExtFolder when ext is empty.
func FolderName(ext, noExtFolder string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return noExtFolder
	}
	return ext
}

// BucketOf returns the extension bucket holding name.
func (m *Map) BucketOf(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	ext, ok := m.owner[name]
	return ext, ok
}

// Keys returns the bucket extensions in sorted order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := slices.Clone(m.order)
	slices.Sort(keys)
	return keys
}

// Files returns a copy of the filenames in the ext bucket.
func (m *Map) Files(ext string) []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.buckets[ext])
}

// Names returns every filename in first-seen extension order, then listing
// order within each bucket.
func (m *Map) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.owner))
	for _, ext := range m.order {
		out = append(out, m.buckets[ext]...)
	}
	return out
}

// Len reports the number of distinct filenames.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.owner)
}

// ImageNames returns the filenames of every image bucket in listing order.
func (m *Map) ImageNames() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, ext := range m.order {
		if IsImage(ext) {
			out = append(out, m.buckets[ext]...)
		}
	}
	return out
}
