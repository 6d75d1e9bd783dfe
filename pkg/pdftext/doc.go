// Package pdftext extracts plain text from PDF documents page by page.
//
// The document is opened once, then pages 1..N are read strictly in order.
// The text items of a page are joined with a single space and every page is
// followed by a blank line ("\n\n"), so a two page document with items
// ["Hello", "World"] and ["Foo"] becomes "Hello World\n\nFoo\n\n".
//
// Failures are all-or-nothing. A document that cannot be opened yields a
// DOCUMENT_OPEN error wrapping [ErrOpen]; the first page that cannot be read
// aborts the run with a PAGE_EXTRACTION error wrapping [ErrPage].
//
// Parsing is delegated to a backend selected by name:
//
//	fragments  github.com/tsawler/tabula/reader, one item per text fragment (default)
//	rows       github.com/ledongthuc/pdf, one item per text run, row by row
package pdftext
