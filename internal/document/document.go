package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/armseq/internal/choreo"
	"github.com/roach88/armseq/internal/tox"
)

//go:embed schema.cue
var schemaCUE string

// Format identifies a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
	FormatTox  Format = "tox"
)

// ErrUnsupportedFormat is returned for unknown file extensions, and for
// encoding into a read-only format.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Document is the portable form of a project.
// Identities and timestamps are not part of it.
type Document struct {
	Name       string  `json:"name" yaml:"name"`
	RemoteSlot *int    `json:"remote_slot,omitempty" yaml:"remote_slot,omitempty"`
	Frames     []Frame `json:"frames" yaml:"frames"`
}

// Frame is one frame of a Document.
//
// Sequence defaults to the frame's index, Duration to
// choreo.DefaultDuration, and missing trailing servos to choreo.DefaultPWM.
type Frame struct {
	Sequence *int  `json:"sequence,omitempty" yaml:"sequence,omitempty"`
	Duration int   `json:"duration,omitempty" yaml:"duration,omitempty"`
	Servos   []int `json:"servos" yaml:"servos,flow"`
	Sound    *int  `json:"sound,omitempty" yaml:"sound,omitempty"`
}

// FormatOf returns the format for path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	case ".tox":
		return FormatTox, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// ReadFile decodes the project file at path.
func ReadFile(path string) (choreo.ProjectWithFrames, error) {
	format, err := FormatOf(path)
	if err != nil {
		return choreo.ProjectWithFrames{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return choreo.ProjectWithFrames{}, fmt.Errorf("failed to read project file: %w", err)
	}
	a, err := Decode(format, filepath.Base(path), data)
	if err != nil {
		return choreo.ProjectWithFrames{}, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Decode parses data in the given format and converts it to a validated
// aggregate. name is used as the file name in CUE positions and as the
// project name for formats that carry none (.tox).
func Decode(format Format, name string, data []byte) (choreo.ProjectWithFrames, error) {
	var (
		doc Document
		err error
	)
	switch format {
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatJSON:
		doc, err = decodeJSON(data)
	case FormatCUE:
		doc, err = decodeCUE(name, data)
	case FormatTox:
		return decodeTox(name, data)
	default:
		return choreo.ProjectWithFrames{}, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		return choreo.ProjectWithFrames{}, err
	}
	return doc.Aggregate()
}

func decodeYAML(data []byte) (Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc, nil
}

func decodeJSON(data []byte) (Document, error) {
	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc, nil
}

// decodeCUE unifies the file with #Project. The definition is closed, so
// unknown fields are rejected the same way as in YAML and JSON.
func decodeCUE(name string, data []byte) (Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Document{}, fmt.Errorf("building CUE schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return Document{}, fmt.Errorf("failed to parse CUE: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Project")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Document{}, fmt.Errorf("invalid CUE project: %w", err)
	}

	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decoding CUE project: %w", err)
	}
	return doc, nil
}

func decodeTox(name string, data []byte) (choreo.ProjectWithFrames, error) {
	frames, err := tox.Parse(string(data))
	if err != nil {
		return choreo.ProjectWithFrames{}, err
	}
	p := choreo.Project{Name: choreo.NormalizeName(strings.TrimSuffix(name, filepath.Ext(name)))}
	a := choreo.Assemble(p, frames)
	if err := a.Validate(); err != nil {
		return choreo.ProjectWithFrames{}, err
	}
	return a, nil
}

// Aggregate converts the document to an aggregate with Unassigned
// identities, filling defaults and validating against the controller
// limits.
func (d Document) Aggregate() (choreo.ProjectWithFrames, error) {
	p := choreo.Project{
		Name:       choreo.NormalizeName(d.Name),
		RemoteSlot: d.RemoteSlot,
	}

	frames := make([]choreo.Frame, 0, len(d.Frames))
	for i, fd := range d.Frames {
		if len(fd.Servos) > choreo.ServoCount {
			return choreo.ProjectWithFrames{}, fmt.Errorf("frame %d: %w: %d servos, at most %d", i, choreo.ErrInvalid, len(fd.Servos), choreo.ServoCount)
		}

		f := choreo.Frame{
			Sequence: i,
			Duration: fd.Duration,
			SoundID:  fd.Sound,
		}
		if fd.Sequence != nil {
			f.Sequence = *fd.Sequence
		}
		if f.Duration == 0 {
			f.Duration = choreo.DefaultDuration
		}
		for ch := range f.Servos {
			f.Servos[ch] = choreo.DefaultPWM
		}
		copy(f.Servos[:], fd.Servos)
		frames = append(frames, f)
	}

	a := choreo.Assemble(p, frames)
	if err := a.Validate(); err != nil {
		return choreo.ProjectWithFrames{}, err
	}
	return a, nil
}

// FromAggregate builds the portable document for a.
func FromAggregate(a choreo.ProjectWithFrames) Document {
	doc := Document{
		Name:       a.Name,
		RemoteSlot: a.RemoteSlot,
		Frames:     make([]Frame, 0, len(a.Frames)),
	}
	for _, f := range a.Frames {
		seq := f.Sequence
		doc.Frames = append(doc.Frames, Frame{
			Sequence: &seq,
			Duration: f.Duration,
			Servos:   append([]int(nil), f.Servos[:]...),
			Sound:    f.SoundID,
		})
	}
	return doc
}

// Encode writes a as a document in the given format.
// Only FormatJSON and FormatYAML can be written.
func Encode(w io.Writer, format Format, a choreo.ProjectWithFrames) error {
	doc := FromAggregate(a)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("encode %q: %w", format, ErrUnsupportedFormat)
	}
}
