package tables

import (
	"github.com/quirepdf/quire/model"
)

// Detector is the interface implemented by table detection strategies.
type Detector interface {
	// Detect finds tables on the given page.
	Detect(page *model.Page) ([]*model.Table, error)

	// Name returns the detector's registry name.
	Name() string

	// Configure applies configuration to the detector.
	Configure(config Config) error
}

// Config holds tuning parameters shared by the table detectors.
type Config struct {
	// MinRows is the minimum number of rows for a valid table
	MinRows int

	// MinCols is the minimum number of columns for a valid table
	MinCols int

	// MinConfidence is the minimum confidence score to report a table
	MinConfidence float64

	// LineTolerance is the maximum orthogonal drift, in points, for a path
	// segment to count as horizontal or vertical
	LineTolerance float64

	// MinLineLength is the minimum ruled segment length considered, in points
	MinLineLength float64

	// AlignmentTolerance is the maximum distance, in points, between
	// coordinates that cluster into the same grid boundary
	AlignmentTolerance float64

	// UseLines enables ruled-line grid detection
	UseLines bool

	// UseWhitespace enables whitespace clustering as a fallback when no
	// ruled grid is found
	UseWhitespace bool

	// DetectMergedCells enables row and column span detection
	DetectMergedCells bool
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		LineTolerance:      2.0,
		MinLineLength:      10.0,
		AlignmentTolerance: 2.0,
		UseLines:           true,
		UseWhitespace:      true,
		DetectMergedCells:  true,
	}
}

// DetectorRegistry manages available table detectors.
type DetectorRegistry struct {
	detectors map[string]Detector
}

// NewRegistry creates an empty detector registry.
func NewRegistry() *DetectorRegistry {
	return &DetectorRegistry{
		detectors: make(map[string]Detector),
	}
}

// Register adds a detector to the registry.
func (r *DetectorRegistry) Register(d Detector) {
	r.detectors[d.Name()] = d
}

// Get returns the named detector, or nil if none is registered.
func (r *DetectorRegistry) Get(name string) Detector {
	return r.detectors[name]
}

// List returns the names of all registered detectors.
func (r *DetectorRegistry) List() []string {
	names := make([]string, 0, len(r.detectors))
	for name := range r.detectors {
		names = append(names, name)
	}
	return names
}

var globalRegistry = NewRegistry()

// RegisterDetector adds a detector to the global registry.
func RegisterDetector(d Detector) {
	globalRegistry.Register(d)
}

// GetDetector returns a detector from the global registry.
func GetDetector(name string) Detector {
	return globalRegistry.Get(name)
}

// ListDetectors returns the names of all globally registered detectors.
func ListDetectors() []string {
	return globalRegistry.List()
}

func init() {
	RegisterDetector(NewGridDetector())
	RegisterDetector(NewGeometricDetector())
}

// Detect finds tables on a page using the default configuration. Ruled-line
// grids take priority; whitespace clustering runs only when the page draws
// no usable grid.
func Detect(page *model.Page) ([]*model.Table, error) {
	return DetectWithConfig(page, DefaultConfig())
}

// DetectWithConfig finds tables on a page with the given configuration.
func DetectWithConfig(page *model.Page, config Config) ([]*model.Table, error) {
	if page == nil {
		return nil, nil
	}

	if config.UseLines {
		grid := NewGridDetector()
		if err := grid.Configure(config); err != nil {
			return nil, err
		}
		tables, err := grid.Detect(page)
		if err != nil {
			return nil, err
		}
		if len(tables) > 0 {
			return tables, nil
		}
	}

	if config.UseWhitespace {
		geo := NewGeometricDetector()
		if err := geo.Configure(config); err != nil {
			return nil, err
		}
		return geo.Detect(page)
	}

	return nil, nil
}
