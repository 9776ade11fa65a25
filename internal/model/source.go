package model

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// SQLPatchFromReaders reads both directions eagerly. Readers that implement
// io.Closer are closed; a nil reader yields empty content.
func SQLPatchFromReaders(up, down io.Reader, opts ...PatchOption) (*SQLPatch, error) {
	upSQL, err := readAll(up)
	if err != nil {
		return nil, fmt.Errorf("read up sql: %w", err)
	}
	downSQL, err := readAll(down)
	if err != nil {
		return nil, fmt.Errorf("read down sql: %w", err)
	}
	return NewSQLPatch(upSQL, downSQL, opts...), nil
}

// UpSQLPatchFromReader is SQLPatchFromReaders for forward-only patches.
func UpSQLPatchFromReader(up io.Reader, opts ...PatchOption) (*UpSQLPatch, error) {
	upSQL, err := readAll(up)
	if err != nil {
		return nil, fmt.Errorf("read up sql: %w", err)
	}
	return NewUpSQLPatch(upSQL, opts...), nil
}

// SQLPatchFromFS loads both directions from files in fsys (an embed.FS or
// os.DirFS). A file that does not exist yields empty content.
func SQLPatchFromFS(fsys fs.FS, upName, downName string, opts ...PatchOption) (*SQLPatch, error) {
	upSQL, err := readFile(fsys, upName)
	if err != nil {
		return nil, err
	}
	downSQL, err := readFile(fsys, downName)
	if err != nil {
		return nil, err
	}
	return NewSQLPatch(upSQL, downSQL, opts...), nil
}

// UpSQLPatchFromFS loads a forward-only patch from fsys.
func UpSQLPatchFromFS(fsys fs.FS, upName string, opts ...PatchOption) (*UpSQLPatch, error) {
	upSQL, err := readFile(fsys, upName)
	if err != nil {
		return nil, err
	}
	return NewUpSQLPatch(upSQL, opts...), nil
}

func readAll(r io.Reader) (string, error) {
	if r == nil {
		return "", nil
	}
	if c, ok := r.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readFile(fsys fs.FS, name string) (string, error) {
	if fsys == nil || name == "" {
		return "", nil
	}
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}
