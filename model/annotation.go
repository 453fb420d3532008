package model

import "time"

// AnnotationType identifies a PDF annotation subtype. The enum is closed:
// subtypes this package does not know map to AnnotationUnknown.
type AnnotationType int

const (
	AnnotationUnknown AnnotationType = iota
	AnnotationText
	AnnotationLink
	AnnotationFreeText
	AnnotationLine
	AnnotationSquare
	AnnotationCircle
	AnnotationPolygon
	AnnotationPolyLine
	AnnotationHighlight
	AnnotationUnderline
	AnnotationSquiggly
	AnnotationStrikeOut
	AnnotationStamp
	AnnotationCaret
	AnnotationInk
	AnnotationPopup
	AnnotationFileAttachment
	AnnotationSound
	AnnotationMovie
	AnnotationWidget
	AnnotationScreen
	AnnotationPrinterMark
	AnnotationTrapNet
	AnnotationWatermark
	Annotation3D
	AnnotationRedact
	AnnotationProjection
)

var annotationNames = map[string]AnnotationType{
	"Text":           AnnotationText,
	"Link":           AnnotationLink,
	"FreeText":       AnnotationFreeText,
	"Line":           AnnotationLine,
	"Square":         AnnotationSquare,
	"Circle":         AnnotationCircle,
	"Polygon":        AnnotationPolygon,
	"PolyLine":       AnnotationPolyLine,
	"Highlight":      AnnotationHighlight,
	"Underline":      AnnotationUnderline,
	"Squiggly":       AnnotationSquiggly,
	"StrikeOut":      AnnotationStrikeOut,
	"Stamp":          AnnotationStamp,
	"Caret":          AnnotationCaret,
	"Ink":            AnnotationInk,
	"Popup":          AnnotationPopup,
	"FileAttachment": AnnotationFileAttachment,
	"Sound":          AnnotationSound,
	"Movie":          AnnotationMovie,
	"Widget":         AnnotationWidget,
	"Screen":         AnnotationScreen,
	"PrinterMark":    AnnotationPrinterMark,
	"TrapNet":        AnnotationTrapNet,
	"Watermark":      AnnotationWatermark,
	"3D":             Annotation3D,
	"Redact":         AnnotationRedact,
	"Projection":     AnnotationProjection,
}

var annotationTypeStrings = func() map[AnnotationType]string {
	m := make(map[AnnotationType]string, len(annotationNames))
	for name, t := range annotationNames {
		m[t] = name
	}
	return m
}()

// ParseAnnotationType maps a /Subtype name to its type.
func ParseAnnotationType(name string) AnnotationType {
	if t, ok := annotationNames[name]; ok {
		return t
	}
	return AnnotationUnknown
}

func (t AnnotationType) String() string {
	if s, ok := annotationTypeStrings[t]; ok {
		return s
	}
	return "Unknown"
}

// IsMarkup reports whether the subtype is a text-markup annotation, the
// kinds that carry quad points.
func (t AnnotationType) IsMarkup() bool {
	switch t {
	case AnnotationHighlight, AnnotationUnderline, AnnotationSquiggly, AnnotationStrikeOut:
		return true
	}
	return false
}

// Annotation flag bits from the /F entry. Each is independent.
const (
	FlagInvisible = 1 << iota
	FlagHidden
	FlagPrint
	FlagNoZoom
	FlagNoRotate
	FlagNoView
	FlagReadOnly
	FlagLocked
)

// AnnotationFlags is the decoded /F bit set.
type AnnotationFlags struct {
	Invisible bool
	Hidden    bool
	Print     bool
	NoZoom    bool
	NoRotate  bool
	NoView    bool
	ReadOnly  bool
	Locked    bool
}

// DecodeAnnotationFlags decodes each flag bit independently from the raw
// /F value.
func DecodeAnnotationFlags(v int) AnnotationFlags {
	return AnnotationFlags{
		Invisible: v&FlagInvisible != 0,
		Hidden:    v&FlagHidden != 0,
		Print:     v&FlagPrint != 0,
		NoZoom:    v&FlagNoZoom != 0,
		NoRotate:  v&FlagNoRotate != 0,
		NoView:    v&FlagNoView != 0,
		ReadOnly:  v&FlagReadOnly != 0,
		Locked:    v&FlagLocked != 0,
	}
}

// Encode packs the flags back into an /F value.
func (f AnnotationFlags) Encode() int {
	var v int
	if f.Invisible {
		v |= FlagInvisible
	}
	if f.Hidden {
		v |= FlagHidden
	}
	if f.Print {
		v |= FlagPrint
	}
	if f.NoZoom {
		v |= FlagNoZoom
	}
	if f.NoRotate {
		v |= FlagNoRotate
	}
	if f.NoView {
		v |= FlagNoView
	}
	if f.ReadOnly {
		v |= FlagReadOnly
	}
	if f.Locked {
		v |= FlagLocked
	}
	return v
}

// BorderStyle names the /BS style of an annotation border.
type BorderStyle string

const (
	BorderSolid     BorderStyle = "S"
	BorderDashed    BorderStyle = "D"
	BorderBeveled   BorderStyle = "B"
	BorderInset     BorderStyle = "I"
	BorderUnderline BorderStyle = "U"
)

// Annotation is a page annotation: a note, link, markup or widget anchored
// to a rectangle on the page.
type Annotation struct {
	Type AnnotationType
	Rect BBox

	Contents string
	Author   string // /T
	Subject  string // /Subj

	Created  time.Time
	Modified time.Time

	// Color is nil when the annotation declares none
	Color *Color

	BorderWidth float64
	BorderStyle BorderStyle

	// Opacity in [0, 1]; 1 when absent
	Opacity float64

	// Link targets: at most one of URI or Dest is set
	URI  string
	Dest string

	// Region quadrilaterals for markup annotations, 4 points per quad
	QuadPoints []Point

	Flags AnnotationFlags
}

// NewAnnotation creates an annotation with defaults applied.
func NewAnnotation(t AnnotationType, rect BBox) *Annotation {
	return &Annotation{
		Type:        t,
		Rect:        rect,
		Opacity:     1.0,
		BorderStyle: BorderSolid,
	}
}
