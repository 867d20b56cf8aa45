// Package filesys provides the small set of filesystem helpers the storage
// layer needs: directory creation, glob-based directory listing, existence
// checks, and recursive extension search for recovery/cleanup. Adapted from
// the teacher's pkg/filesys; Cd/Pwd/CopyDir were dropped because no
// SPEC_FULL.md component changes the working directory or deep-copies a
// directory tree (see DESIGN.md).
package filesys

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at dirPath with the given permission.
//
// If the directory already exists:
//   - If force is true, it proceeds without error.
//   - If force is false, it returns the stat error.
//
// It also returns an error if the existing path is a file, not a directory.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}
	if !force && !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}
	return os.Chmod(dirPath, permission)
}

// DeleteDir deletes a directory and all its contents recursively.
func DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// ReadDir reads the directory specified by dirName and returns the matching
// file paths. dirName may contain glob patterns.
func ReadDir(dirName string) ([]string, error) {
	return filepath.Glob(dirName)
}

// CreateFile creates a new file at filePath. If force is false and the file
// already exists, it returns an error instead of truncating it.
func CreateFile(filePath string, force bool) (*os.File, error) {
	if !force {
		if _, err := os.Stat(filePath); err == nil {
			return nil, os.ErrExist
		}
	}
	return os.Create(filePath)
}

// WriteFile writes contents to filePath, creating or truncating it.
func WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}

// DeleteFile deletes the file at filePath.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// CopyFile copies a single file from sourcePath to destPath.
func CopyFile(sourcePath, destPath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// ReadFile reads the entire content of the file at filePath.
func ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// SearchFileExtensions searches sourceDir recursively for regular files with
// the given extension, skipping any path under excludeDirs. No startup or
// recovery path calls it, so ".tmp" partition files left by an interrupted
// write stay on disk.
func SearchFileExtensions(sourceDir string, excludeDirs []string, extension string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(sourceDir, fs.WalkDirFunc(func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !isAncestor(excludeDirs, path) && filepath.Ext(path) == extension {
			files = append(files, path)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Exists reports whether a file or directory at the given path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func isAncestor(excludeDirs []string, path string) bool {
	for _, dir := range excludeDirs {
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}
