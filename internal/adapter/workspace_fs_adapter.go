// Package adapter contains infrastructure adapters the conformance domain relies on.
package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// WorkspaceFSAdapter abstracts the filesystem operations a job performs in
// its working directory. It hides direct `os` access so the executor can be
// driven against temp directories in tests.
//
//nolint:interfacebloat // A richer interface keeps executor logic decoupled from os/fs.
type WorkspaceFSAdapter interface {
	// MkdirAll creates path and any parents. Existing directories are reused.
	MkdirAll(ctx context.Context, path string) error

	// IsFile reports whether path exists and is a regular file.
	IsFile(ctx context.Context, path string) bool

	// IsDir reports whether path exists and is a directory.
	IsDir(ctx context.Context, path string) bool

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(ctx context.Context, path string, content []byte, perm os.FileMode) error

	// Remove deletes a single file. Missing files are not an error.
	Remove(ctx context.Context, path string) error

	// RemoveAll removes a directory and all its contents.
	RemoveAll(ctx context.Context, path string) error

	// Rename moves src to dst.
	Rename(ctx context.Context, src, dst string) error

	// SameContent reports whether two files hold identical bytes.
	SameContent(ctx context.Context, a, b string) (bool, error)

	// AbsPath returns an absolute form of path.
	AbsPath(path string) (string, error)

	// RelPath returns the relative path from base to target.
	RelPath(base, target string) (string, error)
}

// LocalWorkspaceFSAdapter is the os-backed WorkspaceFSAdapter.
type LocalWorkspaceFSAdapter struct{}

// NewLocalWorkspaceFSAdapter constructs a LocalWorkspaceFSAdapter.
func NewLocalWorkspaceFSAdapter() *LocalWorkspaceFSAdapter {
	return &LocalWorkspaceFSAdapter{}
}

// MkdirAll implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) MkdirAll(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", path)
	}

	return nil
}

// IsFile implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) IsFile(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) IsDir(_ context.Context, path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ReadFile implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) ReadFile(_ context.Context, path string) ([]byte, error) {
	// #nosec G304 - paths are produced by the executor
	return os.ReadFile(path)
}

// WriteFile implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) WriteFile(_ context.Context, path string, content []byte, perm os.FileMode) error {
	return os.WriteFile(path, content, perm)
}

// Remove implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// RemoveAll implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) RemoveAll(_ context.Context, path string) error {
	return os.RemoveAll(path)
}

// Rename implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) Rename(_ context.Context, src, dst string) error {
	return os.Rename(src, dst)
}

// SameContent implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) SameContent(_ context.Context, left, right string) (bool, error) {
	leftInfo, err := os.Stat(left)
	if err != nil {
		return false, err
	}

	rightInfo, err := os.Stat(right)
	if err != nil {
		return false, err
	}

	if leftInfo.Size() != rightInfo.Size() {
		return false, nil
	}

	// #nosec G304 - paths are produced by the executor
	lf, err := os.Open(left)
	if err != nil {
		return false, err
	}

	defer func() { _ = lf.Close() }()

	// #nosec G304 - paths are produced by the executor
	rf, err := os.Open(right)
	if err != nil {
		return false, err
	}

	defer func() { _ = rf.Close() }()

	return sameStream(lf, rf)
}

func sameStream(left, right io.Reader) (bool, error) {
	lbuf := make([]byte, DefaultBlockSize)
	rbuf := make([]byte, DefaultBlockSize)

	for {
		ln, lerr := io.ReadFull(left, lbuf)
		rn, rerr := io.ReadFull(right, rbuf)

		if !bytes.Equal(lbuf[:ln], rbuf[:rn]) {
			return false, nil
		}

		lend := errors.Is(lerr, io.EOF) || errors.Is(lerr, io.ErrUnexpectedEOF)
		rend := errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF)

		if lend || rend {
			return lend && rend, nil
		}

		if lerr != nil {
			return false, lerr
		}

		if rerr != nil {
			return false, rerr
		}
	}
}

// AbsPath implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) AbsPath(path string) (string, error) {
	return filepath.Abs(path)
}

// RelPath implements WorkspaceFSAdapter.
func (a *LocalWorkspaceFSAdapter) RelPath(base, target string) (string, error) {
	return filepath.Rel(base, target)
}
