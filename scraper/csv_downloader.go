// scraper/csv_downloader.go
package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Downloader fetches data files over HTTP.
type Downloader struct {
	Client *http.Client
}

// NewDownloader returns a Downloader whose client gives up after timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{Client: &http.Client{Timeout: timeout}}
}

// DownloadFile downloads url to localSavePath and returns the SHA256 of the content.
// The file is written under a temporary name and renamed once complete.
func (d *Downloader) DownloadFile(ctx context.Context, url string, localSavePath string) (string, error) {
	log.Printf("Scraper: Attempting to download file from URL: %s to local path: %s", url, localSavePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make GET request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Check for non-200 status codes
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file from %s: received status code %d", url, resp.StatusCode)
	}

	// Ensure the directory for the local save path exists
	dir := filepath.Dir(localSavePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := localSavePath + ".part"
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", tmpPath, err)
	}

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(outFile, hash), resp.Body)
	closeErr := outFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to copy downloaded content to %s: %w", localSavePath, err)
	}
	if err := os.Rename(tmpPath, localSavePath); err != nil {
		return "", fmt.Errorf("failed to move download into place at %s: %w", localSavePath, err)
	}

	log.Printf("Scraper: Successfully downloaded %s to %s (%d bytes)", url, localSavePath, n)
	return hex.EncodeToString(hash.Sum(nil)), nil
}
