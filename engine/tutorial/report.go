package tutorial

import (
	"errors"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-compute/common"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ReportFormat selects the encoding of a run report.
type ReportFormat int

const (
	// ReportFormatYAML encodes the report as YAML.
	ReportFormatYAML ReportFormat = iota

	// ReportFormatTOML encodes the report as TOML.
	ReportFormatTOML
)

// ErrUnknownReportFormat is returned by WriteReport for formats other than YAML and TOML.
var ErrUnknownReportFormat = errors.New("unknown report format")

// Report is the serializable summary of a Run.
type Report struct {
	Adapter  string         `yaml:"adapter" toml:"adapter"`
	Backend  string         `yaml:"backend" toml:"backend"`
	DataPair *ReportPair    `yaml:"data_pair,omitempty" toml:"data_pair,omitempty"`
	Copied   int            `yaml:"copied" toml:"copied"`
	Compute  *ReportCompute `yaml:"compute,omitempty" toml:"compute,omitempty"`
	Image    string         `yaml:"image,omitempty" toml:"image,omitempty"`
	Steps    []ReportStep   `yaml:"steps,omitempty" toml:"steps,omitempty"`
}

// ReportPair is the DataPair read back by StepDataPair.
type ReportPair struct {
	A uint32 `yaml:"a" toml:"a"`
	B uint32 `yaml:"b" toml:"b"`
}

// ReportCompute summarizes StepCompute.
type ReportCompute struct {
	Elements int    `yaml:"elements" toml:"elements"`
	Factor   uint32 `yaml:"factor" toml:"factor"`
	Last     uint32 `yaml:"last" toml:"last"`
}

// ReportStep is one profiled step.
type ReportStep struct {
	Name       string `yaml:"name" toml:"name"`
	Duration   string `yaml:"duration" toml:"duration"`
	AllocBytes uint64 `yaml:"alloc_bytes" toml:"alloc_bytes"`
	GCCount    uint32 `yaml:"gc_count" toml:"gc_count"`
}

// Report builds the serializable summary of r. Steps that did not run are omitted.
//
// Returns:
//   - Report: the summary
func (r Result) Report() Report {
	rep := Report{
		Adapter: r.Adapter.Name,
		Backend: r.Adapter.Backend,
		Copied:  len(r.Copied),
		Image:   r.ImagePath,
	}
	if r.DataPair != (common.DataPair{}) {
		rep.DataPair = &ReportPair{A: r.DataPair.A, B: r.DataPair.B}
	}
	if n := len(r.Multiplied); n > 0 {
		rep.Compute = &ReportCompute{Elements: n, Factor: MultiplyFactor, Last: r.Multiplied[n-1]}
	}
	for _, s := range r.Steps {
		rep.Steps = append(rep.Steps, ReportStep{
			Name:       s.Step,
			Duration:   s.Duration.String(),
			AllocBytes: s.AllocBytes,
			GCCount:    s.GCCount,
		})
	}
	return rep
}

// WriteReport encodes the summary of r to w.
//
// Parameters:
//   - w: the destination
//   - format: ReportFormatYAML or ReportFormatTOML
//
// Returns:
//   - error: ErrUnknownReportFormat, or an encoding or write error
func (r Result) WriteReport(w io.Writer, format ReportFormat) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case ReportFormatYAML:
		data, err = yaml.Marshal(r.Report())
	case ReportFormatTOML:
		data, err = toml.Marshal(r.Report())
	default:
		return fmt.Errorf("%w: %d", ErrUnknownReportFormat, int(format))
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = w.Write(data)
	return err
}
