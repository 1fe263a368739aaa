// Package scrape downloads the comic corpus from the archive site: the
// archive page lists every comic, each comic page carries the image plus
// its title and alt text.
package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/comicbench/comicbench/internal/domain"
)

const (
	archiveURL     = "https://pbfcomics.com/comics/"
	scrapeTimeout  = 30 * time.Second
	politenessWait = 500 * time.Millisecond
	userAgent      = "Mozilla/5.0 (compatible; comicbench/1.0)"

	// Lazy-loading pages put a 1x1 gif in src and the real URL in data-src.
	placeholderImage = "data:image/gif;base64,R0lGODlhAQABAAAAACH5BAEKAAEALAAAAAABAAEAAAICTAEAOw=="
)

type Scraper struct {
	httpClient *http.Client
	logger     *zap.Logger
	baseURL    string

	outputDir    string
	metadataFile string
}

func NewScraper(outputDir, metadataFile string, logger *zap.Logger) *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: scrapeTimeout,
		},
		logger:       logger,
		baseURL:      archiveURL,
		outputDir:    outputDir,
		metadataFile: metadataFile,
	}
}

// Run downloads every comic listed on the archive page, writes the images
// under outputDir, and saves the metadata list in download order. Comics
// that fail to parse or download are skipped, not fatal.
func (s *Scraper) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	links, err := s.fetchArchiveLinks(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("archive parsed", zap.Int("comics", len(links)))

	comics := make([]domain.Comic, 0, len(links))
	for i, pageURL := range links {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		comic, err := s.fetchComic(ctx, pageURL)
		if err != nil {
			s.logger.Warn("comic skipped",
				zap.String("page", pageURL),
				zap.Error(err))
			continue
		}
		comics = append(comics, *comic)
		s.logger.Info("comic downloaded",
			zap.Int("index", i+1),
			zap.Int("total", len(links)),
			zap.String("filename", comic.ID))

		// Be nice to the server.
		time.Sleep(politenessWait)
	}

	raw, err := json.MarshalIndent(comics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metadataFile, raw, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info("download complete",
		zap.Int("downloaded", len(comics)),
		zap.String("metadata", s.metadataFile))
	return nil
}

func (s *Scraper) fetchArchiveLinks(ctx context.Context) ([]string, error) {
	body, err := s.get(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	links := ParseArchive(doc)
	if len(links) == 0 {
		return nil, &StructureChangedError{Message: "no comic links found on archive page"}
	}
	return links, nil
}

// ParseArchive extracts the per-comic page URLs from the archive page.
func ParseArchive(doc *goquery.Document) []string {
	links := make([]string, 0)
	doc.Find("a.not_current_thumb").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links
}

func (s *Scraper) fetchComic(ctx context.Context, pageURL string) (*domain.Comic, error) {
	body, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	comic, err := ParseComicPage(doc, pageURL)
	if err != nil {
		return nil, err
	}

	localPath := filepath.Join(s.outputDir, comic.ID)
	if err := s.download(ctx, comic.ImageURL, localPath); err != nil {
		return nil, err
	}
	comic.LocalPath = localPath
	return comic, nil
}

// ParseComicPage extracts the comic image URL and metadata from one comic
// page. The real image URL lives in data-src when the page lazy-loads.
func ParseComicPage(doc *goquery.Document, pageURL string) (*domain.Comic, error) {
	img := doc.Find("div#comic img").First()
	if img.Length() == 0 {
		return nil, &StructureChangedError{Message: "no image inside comic div"}
	}

	imgURL, _ := img.Attr("src")
	if imgURL == "" || imgURL == placeholderImage {
		imgURL, _ = img.Attr("data-src")
	}
	if imgURL == "" {
		return nil, &StructureChangedError{Message: "no usable image URL in comic div"}
	}

	parsed, err := url.Parse(imgURL)
	if err != nil {
		return nil, fmt.Errorf("bad image URL %q: %w", imgURL, err)
	}
	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		return nil, fmt.Errorf("image URL %q has no filename", imgURL)
	}

	comic := &domain.Comic{
		ID:       filename,
		PageURL:  pageURL,
		ImageURL: imgURL,
	}
	comic.AltText, _ = img.Attr("alt")
	comic.Title = strings.TrimSpace(doc.Find("h1.pbf-comic-title").First().Text())
	if comic.Title == "" {
		comic.Title, _ = img.Attr("title")
	}
	return comic, nil
}

func (s *Scraper) download(ctx context.Context, imageURL, dest string) error {
	body, err := s.get(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(dest)
		return fmt.Errorf("write image %s: %w", dest, err)
	}
	return nil
}

func (s *Scraper) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// StructureChangedError flags pages that no longer match the selectors
// the scraper depends on.
type StructureChangedError struct {
	Message string
}

func (e *StructureChangedError) Error() string {
	return e.Message
}
