package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
	placeholderImage    = "/placeholder.png"
	defaultMaxWidth     = 1000
)

var imageSizes = map[string]map[string]string{
	"poster": {
		"small":    "w185",
		"medium":   "w342",
		"large":    "w500",
		"original": "original",
	},
	"backdrop": {
		"small":    "w300",
		"medium":   "w780",
		"large":    "w1280",
		"original": "original",
	},
	"profile": {
		"small":    "w45",
		"medium":   "w185",
		"original": "original",
	},
}

// ImageURL builds a CDN URL for an image path. kind is poster, backdrop or
// profile; unknown kinds and sizes fall back to a medium poster. An empty path
// yields the placeholder image.
func (c *Catalog) ImageURL(path, size, kind string) string {
	if path == "" {
		return placeholderImage
	}

	sizes, ok := imageSizes[kind]
	if !ok {
		sizes = imageSizes["poster"]
	}
	value, ok := sizes[size]
	if !ok {
		value = sizes["medium"]
	}

	return c.imageBaseURL + "/" + value + path
}

// PosterURL looks up a title and returns its original-size poster URL.
func (c *Catalog) PosterURL(ctx context.Context, mediaType string, id int) (string, error) {
	if !validMediaType(mediaType) {
		return "", ErrInvalidMediaType
	}

	var details struct {
		PosterPath string `json:"poster_path"`
	}
	endpoint := fmt.Sprintf("/%s/%d", mediaType, id)
	if err := c.getJSON(ctx, endpoint, c.languageParams(), &details); err != nil {
		return "", err
	}
	if details.PosterPath == "" {
		return "", ErrNoPoster
	}
	return c.ImageURL(details.PosterPath, "original", "poster"), nil
}

// DownloadPoster downloads an image from the CDN and saves it as JPEG, scaled
// down to maxWidth when wider. CDN downloads do not count against the API window.
func (c *Catalog) DownloadPoster(ctx context.Context, imageURL, savePath string, maxWidth int) error {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.imageClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0o755); err != nil {
		return err
	}

	return imaging.Save(img, savePath, imaging.JPEGQuality(85))
}
