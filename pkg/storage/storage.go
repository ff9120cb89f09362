package storage

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Disk is a public file store backed by an afero filesystem. Stored files are
// addressable by a relative path ("products/<name>.png") and served under a
// base URL ("/storage/products/<name>.png").
type Disk struct {
	fs      afero.Fs
	baseURL string
}

// NewDisk creates a Disk over the given filesystem. baseURL is the public URL
// prefix files are served from, without a trailing slash.
func NewDisk(fs afero.Fs, baseURL string) *Disk {
	return &Disk{
		fs:      fs,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NewOsDisk creates a Disk rooted at the given directory on the local
// filesystem.
func NewOsDisk(root, baseURL string) *Disk {
	return NewDisk(afero.NewBasePathFs(afero.NewOsFs(), root), baseURL)
}

// Store writes the contents of r into dir under a generated unique filename
// with the given extension and returns the relative path of the stored file.
func (d *Disk) Store(dir, ext string, r io.Reader) (string, error) {
	if err := d.fs.MkdirAll("/"+dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}

	name := path.Join(dir, uuid.New().String()+ext)
	f, err := d.fs.Create("/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		d.fs.Remove("/" + name)
		return "", fmt.Errorf("failed to write file %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		d.fs.Remove("/" + name)
		return "", fmt.Errorf("failed to close file %s: %w", name, err)
	}
	return name, nil
}

// Exists reports whether a stored file is present.
func (d *Disk) Exists(filePath string) bool {
	ok, err := afero.Exists(d.fs, "/"+filePath)
	return err == nil && ok
}

// Delete removes a stored file.
func (d *Disk) Delete(filePath string) error {
	if err := d.fs.Remove("/" + filePath); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}
	return nil
}

// URL returns the public URL for a stored file path.
func (d *Disk) URL(filePath string) string {
	return d.baseURL + "/" + filePath
}

// PathFromURL maps a public URL back to the stored file path. It returns
// false for URLs outside this disk, such as external placeholder images.
func (d *Disk) PathFromURL(url string) (string, bool) {
	filePath, ok := strings.CutPrefix(url, d.baseURL+"/")
	if !ok || filePath == "" {
		return "", false
	}
	return filePath, true
}

// HTTPFS exposes the disk as an http.FileSystem for serving stored files.
func (d *Disk) HTTPFS() http.FileSystem {
	return afero.NewHttpFs(d.fs)
}
