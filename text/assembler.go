package text

import (
	"sort"
	"strings"

	"github.com/quirepdf/quire/font"
	"github.com/quirepdf/quire/model"
)

// Line is one assembled baseline: the runs that share it in reading
// order, and their text with inter-word spaces reinserted.
type Line struct {
	Text      string
	Runs      []*model.TextItem
	Direction Direction

	// Baseline position and nominal height, taken from the first run
	// in drawing order.
	Y      float64
	Height float64
}

// Assembler rebuilds plain text from the positioned runs the content
// stream interpreter emits. Words are frequently drawn as separately
// positioned runs with no space character between them, so the assembler
// groups runs into baselines, orders each baseline for reading and
// reinserts the spaces the horizontal gaps imply.
//
// Registered fonts supply real space advances for the word-boundary
// threshold; without them a quarter of the font size stands in.
type Assembler struct {
	fonts map[string]*font.Font
}

// NewAssembler returns an Assembler with no font metrics registered.
func NewAssembler() *Assembler {
	return &Assembler{fonts: make(map[string]*font.Font)}
}

// RegisterFont associates font metrics with a resource name so space
// widths come from the font's own space advance. A leading slash on the
// name is ignored.
func (a *Assembler) RegisterFont(name string, f *font.Font) {
	if f == nil {
		return
	}
	a.fonts[strings.TrimPrefix(name, "/")] = f
}

// RegisterFonts registers every font in the map under its key.
func (a *Assembler) RegisterFonts(fonts map[string]*font.Font) {
	for name, f := range fonts {
		a.RegisterFont(name, f)
	}
}

// Assemble converts one page's text runs into plain text in reading
// order. Runs must arrive in drawing order, which is how the interpreter
// emits them. Lines are joined with a newline; a blank line marks a
// paragraph break where the vertical gap exceeds 1.5 times the line
// height.
func (a *Assembler) Assemble(runs []*model.TextItem) string {
	lines := a.Lines(runs)
	if len(lines) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(line.Text)
		if i == len(lines)-1 {
			break
		}
		if abs(lines[i+1].Y-line.Y) > line.Height*1.5 {
			sb.WriteString("\n\n")
		} else {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Lines groups runs into baselines and assembles each one. Two
// consecutive runs share a baseline when their Y coordinates differ by
// no more than half the earlier run's height.
func (a *Assembler) Lines(runs []*model.TextItem) []Line {
	groups := groupBaselines(runs)
	lines := make([]Line, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, a.buildLine(g))
	}
	return lines
}

func groupBaselines(runs []*model.TextItem) [][]*model.TextItem {
	if len(runs) == 0 {
		return nil
	}

	var groups [][]*model.TextItem
	current := []*model.TextItem{runs[0]}
	for i := 1; i < len(runs); i++ {
		prev := runs[i-1]
		if abs(runs[i].Y-prev.Y) <= prev.Height*0.5 {
			current = append(current, runs[i])
		} else {
			groups = append(groups, current)
			current = []*model.TextItem{runs[i]}
		}
	}
	return append(groups, current)
}

func (a *Assembler) buildLine(runs []*model.TextItem) Line {
	dir := lineDirection(runs)
	ordered := readingOrder(runs, dir)
	m := measureLine(ordered, dir)

	var sb strings.Builder
	for i, run := range ordered {
		sb.WriteString(run.Text)
		if i == len(ordered)-1 {
			break
		}
		gap := readingGap(run, ordered[i+1], dir)
		if a.needsSpace(run, ordered[i+1], gap, m) {
			sb.WriteByte(' ')
		}
	}

	return Line{
		Text:      sb.String(),
		Runs:      ordered,
		Direction: dir,
		Y:         runs[0].Y,
		Height:    runs[0].Height,
	}
}

// lineDirection is the majority direction of the runs' text, defaulting
// to LTR when every run is neutral.
func lineDirection(runs []*model.TextItem) Direction {
	ltr, rtl := 0, 0
	for _, run := range runs {
		switch DetectDirection(run.Text) {
		case LTR:
			ltr++
		case RTL:
			rtl++
		}
	}
	if rtl > ltr {
		return RTL
	}
	return LTR
}

// readingOrder sorts the runs along the baseline: ascending X for LTR,
// descending for RTL. Drawing order breaks ties.
func readingOrder(runs []*model.TextItem, dir Direction) []*model.TextItem {
	ordered := make([]*model.TextItem, len(runs))
	copy(ordered, runs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if dir == RTL {
			return ordered[i].X > ordered[j].X
		}
		return ordered[i].X < ordered[j].X
	})
	return ordered
}

// readingGap is the empty distance between a run and the next one in
// reading order. For RTL baselines the next run sits to the left.
func readingGap(run, next *model.TextItem, dir Direction) float64 {
	if dir == RTL {
		return run.X - (next.X + next.Width)
	}
	return next.X - (run.X + run.Width)
}

// lineMetrics describes how a baseline was typeset, computed once per
// line so spacing decisions can adapt to it. Writers differ: some draw
// whole words per run, others one glyph at a time, with or without
// explicit space characters.
type lineMetrics struct {
	charLevel      bool // runs are mostly single glyphs
	explicitSpaces bool // the line carries its own space characters

	avgRunLen  float64
	baseGap    float64 // 10th percentile of positive inter-run gaps
	typicalGap float64 // 25th percentile of positive inter-run gaps
}

func measureLine(runs []*model.TextItem, dir Direction) lineMetrics {
	var m lineMetrics
	if len(runs) == 0 {
		return m
	}

	total := 0
	for _, run := range runs {
		total += len([]rune(run.Text))
		if strings.TrimSpace(run.Text) == "" || strings.Contains(run.Text, " ") {
			m.explicitSpaces = true
		}
	}
	m.avgRunLen = float64(total) / float64(len(runs))
	m.charLevel = m.avgRunLen <= 2.0

	// Gap statistics skip space-only runs so the percentiles reflect the
	// glyph rhythm, not the word boundaries.
	var gaps []float64
	for i := 0; i < len(runs)-1; i++ {
		if strings.TrimSpace(runs[i].Text) == "" || strings.TrimSpace(runs[i+1].Text) == "" {
			continue
		}
		if gap := readingGap(runs[i], runs[i+1], dir); gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) > 0 {
		sort.Float64s(gaps)
		m.baseGap = gaps[len(gaps)/10]
		m.typicalGap = gaps[len(gaps)/4]
	}
	return m
}

// needsSpace decides whether a literal space belongs between two
// adjacent runs. Runs that already carry whitespace at the boundary
// never get one, nor do overlapping or near-touching runs.
// Character-level lines compare the gap against percentile thresholds
// from the line itself; word-level lines against the font's space width.
func (a *Assembler) needsSpace(run, next *model.TextItem, gap float64, m lineMetrics) bool {
	if endsInSpace(run.Text) || startsWithSpace(next.Text) {
		return false
	}
	if gap < 0 || gap < run.FontSize*0.05 {
		return false
	}

	// A glyph-at-a-time line that draws its own space characters marks
	// word boundaries itself. Only bridge gaps far beyond the typical
	// glyph gap.
	if m.charLevel && m.explicitSpaces {
		if m.typicalGap > 0 {
			return gap >= m.typicalGap*5.0
		}
		return false
	}

	// Glyph-at-a-time with no space characters at all: a word break is a
	// gap clearly wider than the inter-glyph rhythm.
	if m.charLevel {
		threshold := run.FontSize * 0.8
		if t := m.baseGap * 3.0; t > threshold {
			threshold = t
		}
		return gap >= threshold
	}

	return gap >= a.spaceWidth(run.FontName, run.FontSize)*0.5
}

// spaceWidth is the device-space width of one space character in the
// named font at the given size. Unregistered fonts estimate a quarter of
// the size, a workable default for proportional faces.
func (a *Assembler) spaceWidth(fontName string, size float64) float64 {
	if f, ok := a.fonts[strings.TrimPrefix(fontName, "/")]; ok {
		return f.GetWidth(' ') * size / 1000.0
	}
	return size * 0.25
}

func endsInSpace(s string) bool {
	return s != "" && isSpaceByte(s[len(s)-1])
}

func startsWithSpace(s string) bool {
	return s != "" && isSpaceByte(s[0])
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
