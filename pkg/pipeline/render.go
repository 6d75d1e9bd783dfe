package pipeline

import (
	"encoding/json"

	perrors "github.com/matzehuels/proctree/pkg/errors"
	"github.com/matzehuels/proctree/pkg/hierarchy"
	"github.com/matzehuels/proctree/pkg/layout"
	"github.com/matzehuels/proctree/pkg/pdftext"
	"github.com/matzehuels/proctree/pkg/render"
	"github.com/matzehuels/proctree/pkg/viewport"
)

// TreeOutput is the JSON document written for a tree result.
type TreeOutput struct {
	Parents   map[string]string `json:"parents"`
	Roots     []string          `json:"roots"`
	Stats     hierarchy.Stats   `json:"stats"`
	Layout    *layout.Result    `json:"layout"`
	Viewport  viewport.Viewport `json:"viewport"`
	Fitted    bool              `json:"fitted"`
	Transform string            `json:"transform"`
}

// Output returns the JSON view of the result.
func (r *TreeResult) Output() TreeOutput {
	return TreeOutput{
		Parents:   r.Parents.Map(),
		Roots:     r.Parents.Roots(),
		Stats:     r.Parents.Stats,
		Layout:    r.Layout,
		Viewport:  r.Viewport,
		Fitted:    r.Fitted,
		Transform: r.Viewport.Transform.String(),
	}
}

// TextOutput is the JSON document written for a text result.
type TextOutput struct {
	Backend string         `json:"backend"`
	Pages   []pdftext.Page `json:"pages"`
	Text    string         `json:"text"`
}

// RenderTree encodes a tree result in the given format.
// SVG output applies the fitted transform; DOT output is the hierarchy
// without positions.
func RenderTree(res *TreeResult, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	switch format {
	case FormatSVG:
		return render.RenderSVG(res.Tree, res.Layout, res.Viewport), nil
	case FormatDOT:
		return []byte(render.ToDOT(res.Tree, render.DOTOptions{Detailed: true})), nil
	default:
		return marshalIndent(res.Output())
	}
}

// RenderText encodes a text result in the given format.
func RenderText(res *TextResult, format string) ([]byte, error) {
	if err := ValidateTextFormat(format); err != nil {
		return nil, err
	}
	if format == FormatText {
		return []byte(res.Text), nil
	}
	return marshalIndent(TextOutput{Backend: res.Backend, Pages: res.Pages, Text: res.Text})
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "encode json")
	}
	return append(data, '\n'), nil
}
