package pdftext

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	perrors "github.com/matzehuels/proctree/pkg/errors"
)

// Separators used when assembling the document text.
const (
	ItemSeparator = " "
	PageSeparator = "\n\n"
)

var (
	// ErrOpen marks a document the backend could not open.
	ErrOpen = errors.New("document open error")

	// ErrPage marks a page whose content could not be retrieved.
	ErrPage = errors.New("page extraction error")
)

// Document is an opened, paginated document.
type Document interface {
	// NumPages returns the page count.
	NumPages() int
	// PageItems returns the text items of page n, counting from 1.
	PageItems(ctx context.Context, n int) ([]string, error)
	// Close releases the document.
	Close() error
}

// Opener opens documents. Implementations are the extraction backends.
type Opener interface {
	Name() string
	Open(ctx context.Context, r io.ReaderAt, size int64) (Document, error)
}

// Page is the extracted text of one page.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Extractor turns documents into plain text using one backend.
type Extractor struct {
	opener Opener
}

// New returns an extractor for the given backend.
func New(o Opener) *Extractor { return &Extractor{opener: o} }

// Backend returns the name of the backend in use.
func (e *Extractor) Backend() string { return e.opener.Name() }

// Extract returns the text of every page, in page order. The items of a
// page are joined by a single space and each page is followed by a blank
// line. The first failing page aborts the run; no partial text is returned.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	pages, err := e.ExtractPages(ctx, r, size)
	if err != nil {
		return "", err
	}
	return Join(pages), nil
}

// ExtractBytes is Extract for an in-memory document.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte) (string, error) {
	return e.Extract(ctx, bytes.NewReader(data), int64(len(data)))
}

// ExtractPages is Extract returning the pages separately.
//
// Pages are processed strictly one after another from 1 to N. The context
// is checked before each page.
func (e *Extractor) ExtractPages(ctx context.Context, r io.ReaderAt, size int64) ([]Page, error) {
	doc, err := e.opener.Open(ctx, r, size)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, perrors.Wrap(perrors.ErrCodeDocumentOpen, errors.Join(ErrOpen, err), "open document (%s)", e.opener.Name())
	}
	defer doc.Close()

	n := doc.NumPages()
	pages := make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := doc.PageItems(ctx, i)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodePageExtraction, errors.Join(ErrPage, err), "page %d of %d", i, n)
		}
		pages = append(pages, Page{Number: i, Text: strings.Join(items, ItemSeparator)})
	}
	return pages, nil
}

// Join assembles page texts into the document text.
func Join(pages []Page) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
		b.WriteString(PageSeparator)
	}
	return b.String()
}
