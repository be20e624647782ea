package footer

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"

	"github.com/librespark/verbadge/internal/versioncheck"
)

// Rewrite parses page, applies the outcome and returns the re-rendered page.
// When the footer cannot be located the original bytes are returned along
// with ErrNoFooter.
func (a *Adapter) Rewrite(page []byte, res *versioncheck.Result, checkErr error) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return page, fmt.Errorf("parsing page: %w", err)
	}

	if err := a.Apply(doc, res, checkErr); err != nil {
		return page, err
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return page, fmt.Errorf("rendering page: %w", err)
	}
	return buf.Bytes(), nil
}
