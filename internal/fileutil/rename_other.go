//go:build !linux

package fileutil

func renameNoReplace(src, dst string) error {
	return linkNoReplace(src, dst)
}
