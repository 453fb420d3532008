package tables

import (
	"math"
	"sort"

	"github.com/quirepdf/quire/model"
)

// BoundarySegment is a ruled segment reduced to one grid axis: Position is
// the coordinate the segment sits at (Y for horizontal rules, X for
// vertical), Start and End its extent along the other axis.
type BoundarySegment struct {
	Position float64
	Start    float64
	End      float64
}

// BoundaryGroup is a cluster of segments that share one grid line.
type BoundaryGroup struct {
	Position    float64
	Segments    []BoundarySegment
	MinExtent   float64
	MaxExtent   float64
	TotalLength float64
}

// GridHypothesis is a candidate table assembled from clustered boundary
// groups, before any cells are populated.
type GridHypothesis struct {
	Rows int
	Cols int

	// RowLines and ColLines hold the clustered boundaries, rows bottom to
	// top and columns left to right.
	RowLines []BoundaryGroup
	ColLines []BoundaryGroup

	BBox       model.BBox
	Confidence float64

	HasTopBorder    bool
	HasBottomBorder bool
	HasLeftBorder   bool
	HasRightBorder  bool
}

// ToTableGrid converts the hypothesis boundary positions to a TableGrid.
func (h *GridHypothesis) ToTableGrid() *model.TableGrid {
	rows := make([]float64, len(h.RowLines))
	for i, g := range h.RowLines {
		rows[i] = g.Position
	}
	cols := make([]float64, len(h.ColLines))
	for i, g := range h.ColLines {
		cols[i] = g.Position
	}
	return &model.TableGrid{Rows: rows, Cols: cols}
}

// GridDetector finds tables from ruled lines. Horizontal and vertical path
// segments are clustered into candidate row and column boundaries, and a
// table is reported when enough of them line up into a grid.
type GridDetector struct {
	config Config
}

// NewGridDetector creates a grid detector with default configuration.
func NewGridDetector() *GridDetector {
	return &GridDetector{config: DefaultConfig()}
}

// Name returns "grid".
func (d *GridDetector) Name() string {
	return "grid"
}

// Configure applies configuration.
func (d *GridDetector) Configure(config Config) error {
	d.config = config
	return nil
}

// Detect finds ruled-line tables on the page.
func (d *GridDetector) Detect(page *model.Page) ([]*model.Table, error) {
	if page == nil {
		return nil, nil
	}

	horizontals, verticals, fills := collectSegments(page.LineItems(), d.config)
	hypotheses := d.DetectFromSegments(horizontals, verticals)

	var tables []*model.Table
	for _, h := range hypotheses {
		if h.Confidence < d.config.MinConfidence {
			continue
		}
		if table := d.buildTable(h, page.TextItems(), fills); table != nil {
			tables = append(tables, table)
		}
	}
	return tables, nil
}

// DetectFromSegments builds grid hypotheses from classified rule segments.
// The current strategy forms a single hypothesis spanning all segments.
func (d *GridDetector) DetectFromSegments(horizontals, verticals []BoundarySegment) []GridHypothesis {
	if len(horizontals) == 0 || len(verticals) == 0 {
		return nil
	}

	hGroups := groupSegments(horizontals, d.config.AlignmentTolerance)
	vGroups := groupSegments(verticals, d.config.AlignmentTolerance)

	if len(hGroups) < d.config.MinRows+1 || len(vGroups) < d.config.MinCols+1 {
		return nil
	}

	left := vGroups[0].Position
	right := vGroups[len(vGroups)-1].Position
	bottom := hGroups[0].Position
	top := hGroups[len(hGroups)-1].Position

	// Stray rules outside the grid, or short decorations inside it, would
	// split cells. Keep only boundaries that span the grid.
	hGroups = filterGroupsByExtent(hGroups, left, right)
	vGroups = filterGroupsByExtent(vGroups, bottom, top)

	if len(hGroups) < d.config.MinRows+1 || len(vGroups) < d.config.MinCols+1 {
		return nil
	}

	h := GridHypothesis{
		Rows:     len(hGroups) - 1,
		Cols:     len(vGroups) - 1,
		RowLines: hGroups,
		ColLines: vGroups,
		BBox: model.BBox{
			X:      vGroups[0].Position,
			Y:      hGroups[0].Position,
			Width:  vGroups[len(vGroups)-1].Position - vGroups[0].Position,
			Height: hGroups[len(hGroups)-1].Position - hGroups[0].Position,
		},
	}

	tol := d.config.AlignmentTolerance
	h.HasBottomBorder = hasSpanningSegment(hGroups[0], h.BBox.Left(), h.BBox.Right(), tol)
	h.HasTopBorder = hasSpanningSegment(hGroups[len(hGroups)-1], h.BBox.Left(), h.BBox.Right(), tol)
	h.HasLeftBorder = hasSpanningSegment(vGroups[0], h.BBox.Bottom(), h.BBox.Top(), tol)
	h.HasRightBorder = hasSpanningSegment(vGroups[len(vGroups)-1], h.BBox.Bottom(), h.BBox.Top(), tol)

	h.Confidence = hypothesisConfidence(&h)

	return []GridHypothesis{h}
}

// buildTable populates a table from a confirmed hypothesis: cell geometry
// and borders from the grid, text content from the page items, backgrounds
// from fill rectangles.
func (d *GridDetector) buildTable(h GridHypothesis, items []*model.TextItem, fills []*model.LineItem) *model.Table {
	grid := h.ToTableGrid()
	rows := grid.RowCount()
	cols := grid.ColCount()
	if rows < d.config.MinRows || cols < d.config.MinCols {
		return nil
	}

	table := model.NewTable(rows, cols)
	populateCells(table, grid, items, h.RowLines, h.ColLines, fills, d.config.AlignmentTolerance)

	if d.config.DetectMergedCells {
		detectMergedCells(table, grid, d.config.AlignmentTolerance)
	}

	table.BBox = grid.Bounds()
	table.HasGrid = true
	table.Confidence = h.Confidence
	return table
}

// collectSegments splits a page's path items into horizontal rules, vertical
// rules and background fill rectangles. Stroked rectangle outlines
// contribute one segment per edge. Thin filled rectangles become rules
// rather than fills, since many producers draw their table borders that way.
func collectSegments(items []*model.LineItem, config Config) (horizontals, verticals []BoundarySegment, fills []*model.LineItem) {
	thin := config.LineTolerance * 2

	for _, item := range items {
		if item == nil {
			continue
		}

		if item.IsRect {
			width := item.End.X - item.Start.X
			height := item.End.Y - item.Start.Y

			if item.Filled {
				switch {
				case height <= thin && width >= config.MinLineLength:
					horizontals = append(horizontals, BoundarySegment{
						Position: (item.Start.Y + item.End.Y) / 2,
						Start:    item.Start.X,
						End:      item.End.X,
					})
					continue
				case width <= thin && height >= config.MinLineLength:
					verticals = append(verticals, BoundarySegment{
						Position: (item.Start.X + item.End.X) / 2,
						Start:    item.Start.Y,
						End:      item.End.Y,
					})
					continue
				default:
					fills = append(fills, item)
				}
			}

			// A stroked rectangle outline is four rules. Fill-only
			// rectangles carry no stroke and draw no border.
			if !item.Filled || item.StrokeWidth > 0 {
				if width >= config.MinLineLength {
					horizontals = append(horizontals,
						BoundarySegment{Position: item.Start.Y, Start: item.Start.X, End: item.End.X},
						BoundarySegment{Position: item.End.Y, Start: item.Start.X, End: item.End.X})
				}
				if height >= config.MinLineLength {
					verticals = append(verticals,
						BoundarySegment{Position: item.Start.X, Start: item.Start.Y, End: item.End.Y},
						BoundarySegment{Position: item.End.X, Start: item.Start.Y, End: item.End.Y})
				}
			}
			continue
		}

		switch {
		case item.IsHorizontal(config.LineTolerance):
			start := math.Min(item.Start.X, item.End.X)
			end := math.Max(item.Start.X, item.End.X)
			if end-start >= config.MinLineLength {
				horizontals = append(horizontals, BoundarySegment{
					Position: (item.Start.Y + item.End.Y) / 2,
					Start:    start,
					End:      end,
				})
			}
		case item.IsVertical(config.LineTolerance):
			start := math.Min(item.Start.Y, item.End.Y)
			end := math.Max(item.Start.Y, item.End.Y)
			if end-start >= config.MinLineLength {
				verticals = append(verticals, BoundarySegment{
					Position: (item.Start.X + item.End.X) / 2,
					Start:    start,
					End:      end,
				})
			}
		}
	}

	return horizontals, verticals, fills
}

// groupSegments clusters segments into boundary groups by position, in
// ascending order. A segment within tolerance of a group's running average
// joins the group.
func groupSegments(segments []BoundarySegment, tolerance float64) []BoundaryGroup {
	if len(segments) == 0 {
		return nil
	}

	sorted := make([]BoundarySegment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	var groups []BoundaryGroup
	current := BoundaryGroup{
		Position: sorted[0].Position,
		Segments: []BoundarySegment{sorted[0]},
	}

	for _, seg := range sorted[1:] {
		if seg.Position-current.Position <= tolerance {
			n := float64(len(current.Segments))
			current.Position = (current.Position*n + seg.Position) / (n + 1)
			current.Segments = append(current.Segments, seg)
		} else {
			groups = append(groups, finalizeGroup(current))
			current = BoundaryGroup{
				Position: seg.Position,
				Segments: []BoundarySegment{seg},
			}
		}
	}
	groups = append(groups, finalizeGroup(current))

	return groups
}

func finalizeGroup(g BoundaryGroup) BoundaryGroup {
	g.MinExtent = math.Inf(1)
	g.MaxExtent = math.Inf(-1)
	for _, seg := range g.Segments {
		if seg.Start < g.MinExtent {
			g.MinExtent = seg.Start
		}
		if seg.End > g.MaxExtent {
			g.MaxExtent = seg.End
		}
		g.TotalLength += seg.End - seg.Start
	}
	return g
}

// filterGroupsByExtent drops boundaries whose segments cover less than half
// of the given span.
func filterGroupsByExtent(groups []BoundaryGroup, lo, hi float64) []BoundaryGroup {
	span := hi - lo
	if span <= 0 {
		return groups
	}

	var kept []BoundaryGroup
	for _, g := range groups {
		overlapLo := math.Max(g.MinExtent, lo)
		overlapHi := math.Min(g.MaxExtent, hi)
		if overlapHi <= overlapLo {
			continue
		}
		if (overlapHi-overlapLo)/span >= 0.5 {
			kept = append(kept, g)
		}
	}
	return kept
}

// hasSpanningSegment reports whether any single segment of the group covers
// the whole range, within tolerance at the ends.
func hasSpanningSegment(g BoundaryGroup, lo, hi, tolerance float64) bool {
	for _, seg := range g.Segments {
		if seg.Start <= lo+tolerance && seg.End >= hi-tolerance {
			return true
		}
	}
	return false
}

// edgeRuled reports whether some boundary group sits at the given position
// with a segment spanning [lo, hi]. This is the per-edge border test: a rule
// covering only part of the table draws borders for some cells and not for
// others.
func edgeRuled(groups []BoundaryGroup, position, lo, hi, tolerance float64) bool {
	for _, g := range groups {
		if math.Abs(g.Position-position) > tolerance {
			continue
		}
		if hasSpanningSegment(g, lo, hi, tolerance) {
			return true
		}
	}
	return false
}

func hypothesisConfidence(h *GridHypothesis) float64 {
	score := 0.0

	cells := h.Rows * h.Cols
	if cells >= 4 {
		score += 0.2
	}
	if cells >= 9 {
		score += 0.1
	}

	regularity := 1 - (coefficientOfVariation(boundaryGaps(h.RowLines))+
		coefficientOfVariation(boundaryGaps(h.ColLines)))/2
	if regularity < 0 {
		regularity = 0
	}
	score += regularity * 0.3

	borders := 0.0
	if h.HasTopBorder {
		borders += 0.25
	}
	if h.HasBottomBorder {
		borders += 0.25
	}
	if h.HasLeftBorder {
		borders += 0.25
	}
	if h.HasRightBorder {
		borders += 0.25
	}
	score += borders * 0.2

	score += spanCoverage(h) * 0.2

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// boundaryGaps returns the spacing between consecutive boundary positions.
func boundaryGaps(groups []BoundaryGroup) []float64 {
	if len(groups) < 2 {
		return nil
	}
	gaps := make([]float64, len(groups)-1)
	for i := 1; i < len(groups); i++ {
		gaps[i-1] = groups[i].Position - groups[i-1].Position
	}
	return gaps
}

// spanCoverage measures how much of the grid extent the boundary segments
// actually cover, averaged over all boundaries.
func spanCoverage(h *GridHypothesis) float64 {
	if h.BBox.Width <= 0 || h.BBox.Height <= 0 {
		return 0
	}

	total := 0.0
	for _, g := range h.RowLines {
		cov := (g.MaxExtent - g.MinExtent) / h.BBox.Width
		if cov > 1 {
			cov = 1
		}
		total += cov
	}
	for _, g := range h.ColLines {
		cov := (g.MaxExtent - g.MinExtent) / h.BBox.Height
		if cov > 1 {
			cov = 1
		}
		total += cov
	}
	return total / float64(len(h.RowLines)+len(h.ColLines))
}

// cellBBox returns the page-space box of a table cell. Table rows count from
// the top of the table down, while TableGrid bands ascend, so the row index
// is flipped.
func cellBBox(grid *model.TableGrid, row, col int) model.BBox {
	return grid.GetCellBBox(grid.RowCount()-1-row, col)
}

// findCell locates the table cell containing a point. Either index is -1
// when the point falls outside the grid on that axis.
func findCell(p model.Point, grid *model.TableGrid) (int, int) {
	row := -1
	for i := 0; i < grid.RowCount(); i++ {
		if p.Y >= grid.Rows[i] && p.Y <= grid.Rows[i+1] {
			row = grid.RowCount() - 1 - i
			break
		}
	}

	col := -1
	for j := 0; j < grid.ColCount(); j++ {
		if p.X >= grid.Cols[j] && p.X <= grid.Cols[j+1] {
			col = j
			break
		}
	}

	return row, col
}

// populateCells fills in cell geometry, borders, backgrounds and text.
func populateCells(table *model.Table, grid *model.TableGrid, items []*model.TextItem, hGroups, vGroups []BoundaryGroup, fills []*model.LineItem, tolerance float64) {
	for row := 0; row < table.RowCount(); row++ {
		for col := 0; col < table.ColCount(); col++ {
			cell := table.GetCell(row, col)
			box := cellBBox(grid, row, col)
			cell.BBox = box

			cell.Borders = model.CellBorders{
				Top:    edgeRuled(hGroups, box.Top(), box.Left(), box.Right(), tolerance),
				Bottom: edgeRuled(hGroups, box.Bottom(), box.Left(), box.Right(), tolerance),
				Left:   edgeRuled(vGroups, box.Left(), box.Bottom(), box.Top(), tolerance),
				Right:  edgeRuled(vGroups, box.Right(), box.Bottom(), box.Top(), tolerance),
			}

			// The last fill drawn under the cell wins, matching paint order.
			for _, f := range fills {
				if f.Bounds().Contains(box.Center()) {
					c := f.Color
					cell.Fill = &c
				}
			}
		}
	}

	assignItemsToCells(table, grid, items)
}

// assignItemsToCells places text items into cells by their center point.
func assignItemsToCells(table *model.Table, grid *model.TableGrid, items []*model.TextItem) {
	for _, item := range items {
		if item == nil {
			continue
		}
		row, col := findCell(item.Bounds().Center(), grid)
		if row < 0 || col < 0 {
			continue
		}
		cell := table.GetCell(row, col)
		if cell == nil {
			continue
		}
		cell.Items = append(cell.Items, item)
		if cell.Text == "" {
			cell.Text = item.Text
		} else {
			cell.Text += " " + item.Text
		}
	}
}

// contentBounds returns the union of a cell's item boxes, or a zero box for
// an empty cell.
func contentBounds(cell *model.Cell) model.BBox {
	var bounds model.BBox
	for i, item := range cell.Items {
		if i == 0 {
			bounds = item.Bounds()
		} else {
			bounds = bounds.Union(item.Bounds())
		}
	}
	return bounds
}

// detectMergedCells flags cells whose content spills into neighboring grid
// cells. The spilled-into cells stay in place; renderers use RowSpan and
// ColSpan to decide what to draw.
func detectMergedCells(table *model.Table, grid *model.TableGrid, tolerance float64) {
	for row := 0; row < table.RowCount(); row++ {
		for col := 0; col < table.ColCount(); col++ {
			cell := table.GetCell(row, col)
			if len(cell.Items) == 0 {
				continue
			}
			content := contentBounds(cell)

			for next := row + 1; next < table.RowCount(); next++ {
				neighbor := cellBBox(grid, next, col).Expand(-tolerance)
				if !neighbor.IsValid() || !content.Intersects(neighbor) {
					break
				}
				cell.RowSpan = next - row + 1
			}

			for next := col + 1; next < table.ColCount(); next++ {
				neighbor := cellBBox(grid, row, next).Expand(-tolerance)
				if !neighbor.IsValid() || !content.Intersects(neighbor) {
					break
				}
				cell.ColSpan = next - col + 1
			}
		}
	}
}
