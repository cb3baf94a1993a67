package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// ErrDestinationExists reports that a move target is already occupied.
var ErrDestinationExists = errors.New("destination already exists")

// CopyFile streams src to dst on fs with default permissions (0o644).
func CopyFile(fs afero.Fs, src, dst string) error {
	return CopyFileMode(fs, src, dst, 0o644)
}

// CopyFileMode streams src to dst on fs, setting the given file mode on dst.
func CopyFileMode(fs afero.Fs, src, dst string, mode os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// Removes dst on mismatch.
func CopyFileVerified(fs afero.Fs, src, dst string) error {
	srcInfo, err := fs.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	multi := io.MultiWriter(out, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = fs.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = fs.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = fs.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return nil
}

// MoveFile renames src to dst without ever replacing an existing dst. On the
// OS filesystem the no-replace check is part of the rename itself, so a file
// created at dst by another writer is never clobbered. When the rename
// crosses filesystems it falls back to a verified copy followed by removal of
// src. A missing src surfaces as os.ErrNotExist.
func MoveFile(fs afero.Fs, src, dst string) error {
	if _, err := fs.Stat(src); err != nil {
		return err
	}
	exists, err := afero.Exists(fs, dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if exists {
		return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	}

	if _, ok := fs.(*afero.OsFs); ok {
		err = renameNoReplace(src, dst)
	} else {
		err = fs.Rename(src, dst)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	case !errors.Is(err, unix.EXDEV):
		return err
	}

	if err := CopyFileVerified(fs, src, dst); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
		}
		return fmt.Errorf("cross-device copy: %w", err)
	}
	if err := fs.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// linkNoReplace moves src to dst with a hard link, which fails with EEXIST
// when dst exists, then unlinks src. Filesystems without hard links fall back
// to a plain rename.
func linkNoReplace(src, dst string) error {
	err := os.Link(src, dst)
	switch {
	case err == nil:
		return os.Remove(src)
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP):
		return os.Rename(src, dst)
	default:
		return err
	}
}
