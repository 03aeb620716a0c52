// Package storage is the object store for post images and avatars.
// Blobs live under a local directory served at /uploads/; paths follow
// post-images/{post_id}/{index}.{ext} and avatars/{user_id}-{random}.{ext}.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hide-yama/kireiapp/internal/config"
)

var (
	baseDir      string
	baseURL      string
	allowedHosts map[string]bool
)

// AllowedImageExts mirrors the upload validation on both post images and
// avatars.
var AllowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// MaxImageSize is the per-file upload cap.
const MaxImageSize = 5 * 1024 * 1024

func Init(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return err
	}
	base, err := url.Parse(cfg.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("invalid PUBLIC_BASE_URL: %w", err)
	}

	baseDir = cfg.UploadDir
	baseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	allowedHosts = map[string]bool{base.Host: true}
	for _, h := range strings.Split(cfg.AllowedImageHosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			allowedHosts[h] = true
		}
	}
	return nil
}

var errBadPath = errors.New("storage: path escapes the upload root")

// cleanPath rejects storage paths that would escape the upload directory.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return "", errBadPath
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean != p || strings.HasPrefix(clean, "..") {
		return "", errBadPath
	}
	return clean, nil
}

// Save writes an uploaded file under the given storage path.
func Save(file *multipart.FileHeader, path string) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}
	dst := filepath.Join(baseDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// Remove deletes blobs, logging rather than failing on individual misses;
// callers use it for cascades and upload compensation where the state
// change has already happened.
func Remove(paths ...string) {
	for _, p := range paths {
		clean, err := cleanPath(p)
		if err != nil {
			log.Printf("storage: refusing to remove %q: %v", p, err)
			continue
		}
		if err := os.Remove(filepath.Join(baseDir, filepath.FromSlash(clean))); err != nil && !os.IsNotExist(err) {
			log.Printf("storage: remove %s: %v", clean, err)
		}
	}
}

// PublicURL resolves a storage path to a client-facing URL. The resolved
// host is checked against the allow-list so a tampered storage_path can
// never point a client somewhere else.
func PublicURL(path string) (string, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return "", err
	}

	raw := baseURL + "/uploads/" + clean
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if !allowedHosts[u.Host] {
		return "", fmt.Errorf("storage: host %q is not on the allow-list", u.Host)
	}
	return u.String(), nil
}

// PathFromURL maps a previously issued public URL back to its storage
// path. Used when replacing avatars to delete the old blob.
func PathFromURL(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}
	if !allowedHosts[u.Host] {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/uploads/")
}
