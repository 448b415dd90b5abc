package imaging

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a saved edit: adjustments, an optional crop and export settings.
//
// Example document:
//
//	adjustments:
//	  brightness: 20
//	  contrast: 10
//	  sharpness: 35
//	aspect_ratio: "16:9"
//	export:
//	  format: jpeg
//	  quality: 90
//	  scale: 0.5
type Preset struct {
	Adjustments Parameters    `yaml:"adjustments"`
	Crop        *Rect         `yaml:"crop,omitempty"`
	AspectRatio string        `yaml:"aspect_ratio,omitempty"`
	Export      ExportOptions `yaml:"export"`
}

// ParsePreset decodes a YAML preset.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if p.Export.Format == "" {
		p.Export.Format = FormatJPEG
	}
	format, err := ParseFormat(string(p.Export.Format))
	if err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	p.Export.Format = format
	if _, err := ParseAspectRatio(p.AspectRatio); err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	return &p, nil
}

// LoadPreset reads and decodes a YAML preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}
	return ParsePreset(data)
}

// Parameters merges the crop settings into the adjustments.
func (p *Preset) Parameters() Parameters {
	params := p.Adjustments
	if p.Crop != nil {
		r := *p.Crop
		params.CropRect = &r
	}
	// ParsePreset already validated the ratio.
	if ratio, _ := ParseAspectRatio(p.AspectRatio); ratio != nil {
		params.AspectRatio = ratio
	}
	return params
}

// Marshal encodes the preset back to YAML.
func (p *Preset) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
