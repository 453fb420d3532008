package tables

import (
	"math"
	"sort"

	"github.com/quirepdf/quire/model"
)

// maxClusterGap is the vertical whitespace, in points, that separates one
// text cluster from the next.
const maxClusterGap = 50.0

// GeometricDetector finds tables from text geometry alone. Text items are
// clustered into vertically contiguous groups, and a group whose item edges
// align into consistent rows and columns is reported as a table. It is the
// fallback for tables drawn without ruled lines.
type GeometricDetector struct {
	config Config
}

// NewGeometricDetector creates a geometric detector with default
// configuration.
func NewGeometricDetector() *GeometricDetector {
	return &GeometricDetector{config: DefaultConfig()}
}

// Name returns "geometric".
func (d *GeometricDetector) Name() string {
	return "geometric"
}

// Configure applies configuration.
func (d *GeometricDetector) Configure(config Config) error {
	d.config = config
	return nil
}

// Detect finds tables on the page by whitespace analysis.
func (d *GeometricDetector) Detect(page *model.Page) ([]*model.Table, error) {
	if page == nil {
		return nil, nil
	}

	items := page.TextItems()
	if len(items) == 0 {
		return nil, nil
	}

	// Ruled segments still matter here: a partially ruled table that the
	// grid detector rejected should keep whatever borders it draws.
	horizontals, verticals, fills := collectSegments(page.LineItems(), d.config)
	hGroups := groupSegments(horizontals, d.config.AlignmentTolerance)
	vGroups := groupSegments(verticals, d.config.AlignmentTolerance)

	var tables []*model.Table
	for _, cluster := range d.clusterItems(items) {
		if table := d.detectTableInCluster(cluster, hGroups, vGroups, fills); table != nil {
			tables = append(tables, table)
		}
	}
	return tables, nil
}

// clusterItems groups text items separated by no more than maxClusterGap of
// vertical whitespace.
func (d *GeometricDetector) clusterItems(items []*model.TextItem) [][]*model.TextItem {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]*model.TextItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Y > sorted[j].Y
	})

	var clusters [][]*model.TextItem
	current := []*model.TextItem{sorted[0]}
	last := sorted[0].Bounds()

	for _, item := range sorted[1:] {
		bounds := item.Bounds()
		if last.Bottom()-bounds.Top() > maxClusterGap {
			clusters = append(clusters, current)
			current = []*model.TextItem{item}
		} else {
			current = append(current, item)
		}
		last = bounds
	}
	clusters = append(clusters, current)

	return clusters
}

func (d *GeometricDetector) detectTableInCluster(cluster []*model.TextItem, hGroups, vGroups []BoundaryGroup, fills []*model.LineItem) *model.Table {
	if len(cluster) < d.config.MinRows*d.config.MinCols {
		return nil
	}

	grid := d.buildGrid(cluster)
	if grid == nil {
		return nil
	}
	grid = d.compactGrid(grid, cluster)
	if grid == nil || grid.RowCount() < d.config.MinRows || grid.ColCount() < d.config.MinCols {
		return nil
	}

	confidence := d.calculateConfidence(cluster, grid, hGroups, vGroups)
	if confidence < d.config.MinConfidence {
		return nil
	}

	table := model.NewTable(grid.RowCount(), grid.ColCount())
	populateCells(table, grid, cluster, hGroups, vGroups, fills, d.config.AlignmentTolerance)

	if d.config.DetectMergedCells {
		detectMergedCells(table, grid, d.config.AlignmentTolerance)
	}

	table.BBox = grid.Bounds()
	table.Confidence = confidence
	table.HasGrid = d.hasVisibleGrid(grid, hGroups, vGroups)
	return table
}

// buildGrid derives row and column boundaries from the cluster's text edges.
func (d *GeometricDetector) buildGrid(cluster []*model.TextItem) *model.TableGrid {
	rows := d.extractRowBoundaries(cluster)
	cols := d.extractColumnBoundaries(cluster)

	if len(rows) < d.config.MinRows+1 || len(cols) < d.config.MinCols+1 {
		return nil
	}

	return &model.TableGrid{Rows: rows, Cols: cols}
}

// extractRowBoundaries clusters the top and bottom edges of the items into
// candidate row boundaries, ascending.
func (d *GeometricDetector) extractRowBoundaries(cluster []*model.TextItem) []float64 {
	if len(cluster) == 0 {
		return nil
	}

	values := make([]float64, 0, len(cluster)*2)
	for _, item := range cluster {
		bounds := item.Bounds()
		values = append(values, bounds.Bottom(), bounds.Top())
	}

	return d.clusterValues(values, d.config.AlignmentTolerance)
}

// extractColumnBoundaries clusters the left and right edges of the items
// into candidate column boundaries, ascending.
func (d *GeometricDetector) extractColumnBoundaries(cluster []*model.TextItem) []float64 {
	if len(cluster) == 0 {
		return nil
	}

	values := make([]float64, 0, len(cluster)*2)
	for _, item := range cluster {
		bounds := item.Bounds()
		values = append(values, bounds.Left(), bounds.Right())
	}

	return d.clusterValues(values, d.config.AlignmentTolerance)
}

// clusterValues merges values within tolerance of each other, averaging
// each run into one boundary coordinate.
func (d *GeometricDetector) clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var result []float64
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i]-sorted[i-1] > tolerance {
			sum := 0.0
			for _, v := range sorted[start:i] {
				sum += v
			}
			result = append(result, sum/float64(i-start))
			start = i
		}
	}

	return result
}

// compactGrid drops grid bands that contain no text. Clustering tops and
// bottoms produces a boundary on both sides of every gap between rows, which
// leaves empty sliver bands the table does not need. Interior empty bands
// are merged into their neighbors at the midpoint; empty edge bands are
// trimmed off.
func (d *GeometricDetector) compactGrid(grid *model.TableGrid, cluster []*model.TextItem) *model.TableGrid {
	rowsOccupied := make([]bool, grid.RowCount())
	colsOccupied := make([]bool, grid.ColCount())

	for _, item := range cluster {
		center := item.Bounds().Center()
		for i := 0; i < grid.RowCount(); i++ {
			if center.Y >= grid.Rows[i] && center.Y <= grid.Rows[i+1] {
				rowsOccupied[i] = true
				break
			}
		}
		for j := 0; j < grid.ColCount(); j++ {
			if center.X >= grid.Cols[j] && center.X <= grid.Cols[j+1] {
				colsOccupied[j] = true
				break
			}
		}
	}

	rows := compactBoundaries(grid.Rows, rowsOccupied)
	cols := compactBoundaries(grid.Cols, colsOccupied)
	if rows == nil || cols == nil {
		return nil
	}
	return &model.TableGrid{Rows: rows, Cols: cols}
}

func compactBoundaries(bounds []float64, occupied []bool) []float64 {
	first, last := -1, -1
	for i, occ := range occupied {
		if occ {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	result := []float64{bounds[first]}
	for i := first; i <= last; i++ {
		if occupied[i] {
			result = append(result, bounds[i+1])
		} else {
			result[len(result)-1] = (result[len(result)-1] + bounds[i+1]) / 2
		}
	}
	return result
}

// calculateConfidence scores how table-like a cluster is.
func (d *GeometricDetector) calculateConfidence(cluster []*model.TextItem, grid *model.TableGrid, hGroups, vGroups []BoundaryGroup) float64 {
	regularity := d.calculateGridRegularity(grid)
	alignment := d.calculateAlignmentQuality(cluster, grid)
	lines := d.calculateLineScore(grid, hGroups, vGroups)
	occupancy := d.calculateCellOccupancy(cluster, grid)

	score := regularity*0.3 + alignment*0.3 + lines*0.2 + occupancy*0.2
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// calculateGridRegularity rewards consistent row heights and column widths.
func (d *GeometricDetector) calculateGridRegularity(grid *model.TableGrid) float64 {
	if grid.RowCount() < 1 || grid.ColCount() < 1 {
		return 0
	}

	rowHeights := make([]float64, grid.RowCount())
	for i := range rowHeights {
		rowHeights[i] = grid.Rows[i+1] - grid.Rows[i]
	}
	colWidths := make([]float64, grid.ColCount())
	for i := range colWidths {
		colWidths[i] = grid.Cols[i+1] - grid.Cols[i]
	}

	score := 1 - (coefficientOfVariation(rowHeights)+coefficientOfVariation(colWidths))/2
	if score < 0 {
		score = 0
	}
	return score
}

// calculateAlignmentQuality measures how many items sit flush against grid
// lines. Items in a real table align with at least a row boundary and a
// column boundary.
func (d *GeometricDetector) calculateAlignmentQuality(cluster []*model.TextItem, grid *model.TableGrid) float64 {
	if len(cluster) == 0 {
		return 0
	}

	aligned := 0
	for _, item := range cluster {
		bounds := item.Bounds()
		edges := 0
		if d.isNearGridLine(bounds.Left(), grid.Cols) {
			edges++
		}
		if d.isNearGridLine(bounds.Right(), grid.Cols) {
			edges++
		}
		if d.isNearGridLine(bounds.Top(), grid.Rows) {
			edges++
		}
		if d.isNearGridLine(bounds.Bottom(), grid.Rows) {
			edges++
		}
		if edges >= 2 {
			aligned++
		}
	}

	return float64(aligned) / float64(len(cluster))
}

// isNearGridLine reports whether a coordinate lies within twice the
// alignment tolerance of any grid line.
func (d *GeometricDetector) isNearGridLine(value float64, gridLines []float64) bool {
	for _, line := range gridLines {
		if math.Abs(value-line) <= d.config.AlignmentTolerance*2 {
			return true
		}
	}
	return false
}

// calculateLineScore is the fraction of grid boundaries backed by a ruled
// line on the page.
func (d *GeometricDetector) calculateLineScore(grid *model.TableGrid, hGroups, vGroups []BoundaryGroup) float64 {
	total := len(grid.Rows) + len(grid.Cols)
	if total == 0 {
		return 0
	}

	ruled := 0
	for _, y := range grid.Rows {
		if hasGroupAt(hGroups, y, d.config.AlignmentTolerance) {
			ruled++
		}
	}
	for _, x := range grid.Cols {
		if hasGroupAt(vGroups, x, d.config.AlignmentTolerance) {
			ruled++
		}
	}

	return float64(ruled) / float64(total)
}

// hasGroupAt reports whether any boundary group sits at the position.
func hasGroupAt(groups []BoundaryGroup, position, tolerance float64) bool {
	for _, g := range groups {
		if math.Abs(g.Position-position) <= tolerance {
			return true
		}
	}
	return false
}

// calculateCellOccupancy is the fraction of grid cells containing text.
func (d *GeometricDetector) calculateCellOccupancy(cluster []*model.TextItem, grid *model.TableGrid) float64 {
	rows := grid.RowCount()
	cols := grid.ColCount()
	if rows == 0 || cols == 0 {
		return 0
	}

	occupied := make(map[int]bool)
	for _, item := range cluster {
		row, col := findCell(item.Bounds().Center(), grid)
		if row < 0 || col < 0 {
			continue
		}
		occupied[row*cols+col] = true
	}

	return float64(len(occupied)) / float64(rows*cols)
}

// hasVisibleGrid reports whether at least half of the grid boundaries are
// ruled.
func (d *GeometricDetector) hasVisibleGrid(grid *model.TableGrid, hGroups, vGroups []BoundaryGroup) bool {
	return d.calculateLineScore(grid, hGroups, vGroups) >= 0.5
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance returns the population variance, or 0 for an empty slice.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// coefficientOfVariation returns the standard deviation relative to the
// mean, or 0 when there are fewer than two values or the mean is 0.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	if m == 0 {
		return 0
	}
	return math.Sqrt(variance(values)) / m
}
