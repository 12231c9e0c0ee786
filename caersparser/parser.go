package caersparser

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/giygas/caers-api/caersparser/entities"
	"github.com/giygas/caers-api/interfaces"
	"github.com/giygas/caers-api/logging"
)

// Compile-time check to ensure CAERSParser implements Parser interface
var _ interfaces.Parser = (*CAERSParser)(nil)

// CAERSParser implements the Parser interface over a file on disk. When a
// URL is set the file is refreshed from it before every parse.
type CAERSParser struct {
	path   string
	url    string
	client *http.Client
}

// NewCAERSParser creates a parser reading the export at path. url may be empty.
func NewCAERSParser(path, url string) *CAERSParser {
	return &CAERSParser{
		path:   path,
		url:    url,
		client: &http.Client{Timeout: DownloadTimeout},
	}
}

// Source implements the Parser interface
func (p *CAERSParser) Source() string {
	return p.path
}

// ParseDataset implements the Parser interface. A failed download falls back
// to the copy already on disk, if there is one.
func (p *CAERSParser) ParseDataset() (*entities.Dataset, error) {
	if p.url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), DownloadTimeout)
		err := Download(ctx, p.client, p.url, p.path)
		cancel()

		if err != nil {
			if _, statErr := os.Stat(p.path); errors.Is(statErr, fs.ErrNotExist) {
				return nil, err
			}
			logging.Warn("Download failed, using the local copy", "path", p.path, "error", err)
		}
	}

	return ParseFile(p.path)
}
