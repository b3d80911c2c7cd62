package infra

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// LogoDownloader downloads and caches company logos for traded symbols.
// The frontend serves them from /logos/{symbol}.png.
type LogoDownloader struct {
	basePath    string
	urlTemplate string
	client      *http.Client
}

// NewLogoDownloader creates a LogoDownloader caching under baseDir.
func NewLogoDownloader(baseDir, urlTemplate string) (*LogoDownloader, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logo directory: %w", err)
	}

	// Keep connections bounded; logo syncs run concurrently.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &LogoDownloader{
		basePath:    baseDir,
		urlTemplate: urlTemplate,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// Download fetches the logo for a symbol if it is not cached yet and
// returns the local file path. Images are resized to 24x24 pixels for
// consistent display.
func (d *LogoDownloader) Download(symbol string) (string, error) {
	// Sanitize symbol to prevent path traversal
	safeSymbol := sanitizeSymbol(symbol)
	if safeSymbol == "" {
		return "", fmt.Errorf("invalid symbol: %s", symbol)
	}

	fileName := strings.ToLower(safeSymbol) + ".png"
	filePath := filepath.Join(d.basePath, fileName)

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Cache hit
	}

	url := fmt.Sprintf(d.urlTemplate, strings.ToUpper(safeSymbol))

	resp, err := d.client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	resizedImg := imaging.Resize(srcImg, 24, 24, imaging.Lanczos)

	if err := imaging.Save(resizedImg, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// Path returns the local path for a symbol's logo without fetching it.
func (d *LogoDownloader) Path(symbol string) string {
	return filepath.Join(d.basePath, strings.ToLower(sanitizeSymbol(symbol))+".png")
}

// sanitizeSymbol keeps only alphanumeric characters, dots and dashes.
func sanitizeSymbol(symbol string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(symbol) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
