package sheet

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const appName = "frames2sprite"

// Index is a TexturePacker-style hash describing where each frame sits on the
// sheet, in the layout most game engines import.
type Index struct {
	Meta   Meta                  `json:"meta" yaml:"meta"`
	Frames map[string]IndexFrame `json:"frames" yaml:"frames"`
}

type Meta struct {
	App    string  `json:"app" yaml:"app"`
	Image  string  `json:"image" yaml:"image"`
	Format string  `json:"format" yaml:"format"`
	Size   Size    `json:"size" yaml:"size"`
	Scale  float64 `json:"scale" yaml:"scale"`
}

type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

type Rect struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

type IndexFrame struct {
	Frame      Rect `json:"frame" yaml:"frame"`
	SourceSize Size `json:"sourceSize" yaml:"sourceSize"`
}

// Index describes the packed sheet stored as imageName. Frame rectangles are
// clipped to the sheet bounds.
func (s *Sheet) Index(imageName string) Index {
	size := s.Layout.Size()
	idx := Index{
		Meta: Meta{
			App:    appName,
			Image:  imageName,
			Format: "RGBA8888",
			Size:   Size{W: size.X, H: size.Y},
			Scale:  1,
		},
		Frames: make(map[string]IndexFrame, len(s.Placed)),
	}
	for _, p := range s.Placed {
		r := p.Rect.Intersect(s.Image.Bounds())
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("frame_%d", p.Index+1)
		}
		if _, dup := idx.Frames[name]; dup {
			name = fmt.Sprintf("%s#%d", name, p.Index+1)
		}
		idx.Frames[name] = IndexFrame{
			Frame:      Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()},
			SourceSize: Size{W: p.Source.X, H: p.Source.Y},
		}
	}
	return idx
}

// Format selects the index encoding.
type Format string

const (
	FormatNone Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "", "none", "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FormatNone, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatNone, fmt.Errorf("unknown sheet index format %q", s)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Marshal encodes the index in the given format.
func (idx Index) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(idx, "", "  ")
	case FormatYAML:
		return yaml.Marshal(idx)
	default:
		return nil, fmt.Errorf("no encoder for sheet index format %q", f)
	}
}
