package pdftext

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/tsawler/tabula/reader"

	perrors "github.com/matzehuels/proctree/pkg/errors"
)

// Backend names accepted by [NewOpener].
const (
	BackendFragments = "fragments"
	BackendRows      = "rows"
)

// Backends lists the available backend names, default first.
var Backends = []string{BackendFragments, BackendRows}

// NewOpener returns the backend with the given name. The empty name selects
// the fragments backend.
func NewOpener(name string) (Opener, error) {
	switch name {
	case "", BackendFragments:
		return Fragments{}, nil
	case BackendRows:
		return Rows{}, nil
	}
	return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown PDF backend %q (must be fragments or rows)", name)
}

// recoverPage turns a panic inside a parser into an error. Both parsers
// panic on some malformed content streams.
func recoverPage(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("parser panic: %v", r)
	}
}

// =============================================================================
// Fragments (tabula)
// =============================================================================

// Fragments extracts one item per text fragment with the tabula reader.
// Fragments are reported in content stream order.
type Fragments struct{}

// Name implements [Opener].
func (Fragments) Name() string { return BackendFragments }

// Open implements [Opener]. The tabula reader works on files, so documents
// that are not already backed by one are spooled to a temporary file.
func (Fragments) Open(_ context.Context, r io.ReaderAt, size int64) (doc Document, err error) {
	var (
		f       *os.File
		rd      *reader.Reader
		cleanup = func() {}
	)
	defer func() {
		if err == nil {
			return
		}
		if rd != nil {
			rd.Close()
		} else if f != nil {
			f.Close()
		}
		cleanup()
	}()
	defer recoverPage(&err)

	if f, cleanup, err = fileFor(r, size); err != nil {
		cleanup = func() {}
		return nil, err
	}
	if rd, err = reader.NewReader(f); err != nil {
		return nil, err
	}
	n, err := rd.PageCount()
	if err != nil {
		return nil, err
	}
	return &fragmentsDoc{r: rd, pages: n, cleanup: cleanup}, nil
}

type fragmentsDoc struct {
	r       *reader.Reader
	pages   int
	cleanup func()
}

func (d *fragmentsDoc) NumPages() int { return d.pages }

func (d *fragmentsDoc) PageItems(_ context.Context, n int) (items []string, err error) {
	defer recoverPage(&err)

	page, err := d.r.GetPage(n - 1)
	if err != nil {
		return nil, err
	}
	frags, err := d.r.ExtractTextFragments(page)
	if err != nil {
		return nil, err
	}
	items = make([]string, len(frags))
	for i, f := range frags {
		items[i] = f.Text
	}
	return items, nil
}

func (d *fragmentsDoc) Close() error {
	err := d.r.Close()
	d.cleanup()
	return err
}

// fileFor returns a file holding the document. An *os.File is reopened by
// name so the caller keeps ownership of theirs; anything else is copied to
// a temporary file that cleanup removes.
func fileFor(r io.ReaderAt, size int64) (*os.File, func(), error) {
	if f, ok := r.(*os.File); ok {
		g, err := os.Open(f.Name())
		if err == nil {
			return g, func() {}, nil
		}
	}

	tmp, err := os.CreateTemp("", "proctree-*.pdf")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }
	if _, err := io.Copy(tmp, io.NewSectionReader(r, 0, size)); err != nil {
		tmp.Close()
		cleanup()
		return nil, nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		cleanup()
		return nil, nil, err
	}
	return tmp, cleanup, nil
}

// =============================================================================
// Rows (ledongthuc/pdf)
// =============================================================================

// Rows extracts one item per text run with github.com/ledongthuc/pdf, with
// runs grouped into rows and rows in reading order.
type Rows struct{}

// Name implements [Opener].
func (Rows) Name() string { return BackendRows }

// Open implements [Opener].
func (Rows) Open(_ context.Context, r io.ReaderAt, size int64) (doc Document, err error) {
	defer recoverPage(&err)

	rd, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return &rowsDoc{r: rd}, nil
}

type rowsDoc struct {
	r *pdf.Reader
}

func (d *rowsDoc) NumPages() int { return d.r.NumPage() }

func (d *rowsDoc) PageItems(_ context.Context, n int) (items []string, err error) {
	defer recoverPage(&err)

	page := d.r.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", n)
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	// Td operators show up as empty runs.
	for _, row := range rows {
		for _, t := range row.Content {
			if t.S == "" {
				continue
			}
			items = append(items, t.S)
		}
	}
	return items, nil
}

func (d *rowsDoc) Close() error { return nil }
