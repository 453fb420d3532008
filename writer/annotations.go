package writer

import (
	"time"

	"github.com/quirepdf/quire/core"
	"github.com/quirepdf/quire/model"
)

// annotationDict serializes one annotation into its PDF dictionary
// form. Optional entries are written only when they carry information,
// so a minimal annotation stays minimal on disk.
func annotationDict(a *model.Annotation) (core.Dict, error) {
	if a.Type == model.AnnotationUnknown {
		return nil, writerErrorf("annotation with unknown subtype")
	}

	d := core.Dict{
		"Type":    core.Name("Annot"),
		"Subtype": core.Name(a.Type.String()),
		"Rect": numberArray(a.Rect.Left(), a.Rect.Bottom(),
			a.Rect.Right(), a.Rect.Top()),
	}

	if a.Contents != "" {
		d["Contents"] = core.String(a.Contents)
	}
	if a.Author != "" {
		d["T"] = core.String(a.Author)
	}
	if a.Subject != "" {
		d["Subj"] = core.String(a.Subject)
	}
	if !a.Created.IsZero() {
		d["CreationDate"] = core.String(formatDate(a.Created))
	}
	if !a.Modified.IsZero() {
		d["M"] = core.String(formatDate(a.Modified))
	}
	if v := a.Flags.Encode(); v != 0 {
		d["F"] = core.Int(v)
	}
	if a.Color != nil {
		r, g, b := a.Color.Floats()
		d["C"] = numberArray(r, g, b)
	}
	if a.Opacity != 0 && a.Opacity != 1 {
		d["CA"] = core.Real(a.Opacity)
	}
	if a.BorderWidth > 0 {
		bs := core.Dict{"W": core.Real(a.BorderWidth)}
		if a.BorderStyle != "" {
			bs["S"] = core.Name(a.BorderStyle)
		}
		d["BS"] = bs
	}

	switch {
	case a.URI != "":
		d["A"] = core.Dict{
			"Type": core.Name("Action"),
			"S":    core.Name("URI"),
			"URI":  core.String(a.URI),
		}
	case a.Dest != "":
		d["Dest"] = core.Name(a.Dest)
	}

	if a.Type.IsMarkup() && len(a.QuadPoints) > 0 {
		quads := make(core.Array, 0, len(a.QuadPoints)*2)
		for _, p := range a.QuadPoints {
			quads = append(quads, core.Real(p.X), core.Real(p.Y))
		}
		d["QuadPoints"] = quads
	}

	return d, nil
}

// formatDate renders a PDF date string, always in UTC so output is
// reproducible regardless of the local zone.
func formatDate(t time.Time) string {
	return t.UTC().Format("D:20060102150405Z")
}
