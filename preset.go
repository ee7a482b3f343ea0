package overtone

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
	yaml3 "gopkg.in/yaml.v3"
)

//go:embed presets
var presetFS embed.FS

// Preset is a serializable snapshot of an instrument: the fundamental
// parameters plus one entry per partial. Presets are stored as YAML; user
// preset files are parsed strictly, so unknown fields are reported instead
// of silently dropped.
//
// Note, when non-empty, takes precedence over Fundamental and is resolved
// with NoteFrequency when the preset is applied. All other fields apply
// as stored: a preset without an amplitude is a silent preset.
type Preset struct {
	Name        string          `yaml:"name,omitempty" json:"name,omitempty"`
	Note        string          `yaml:"note,omitempty" json:"note,omitempty"`
	Fundamental float64         `yaml:"fundamental,omitempty" json:"fundamental,omitempty"`
	Amplitude   float64         `yaml:"amplitude" json:"amplitude"`
	Phase       float64         `yaml:"phase,omitempty" json:"phase,omitempty"`
	Partials    []PartialPreset `yaml:"partials,omitempty" json:"partials,omitempty"`
}

// PartialPreset is one partial of a Preset.
type PartialPreset struct {
	Degree    int     `yaml:"degree" json:"degree"`
	Detune    float64 `yaml:"detune,omitempty" json:"detune,omitempty"`
	Amplitude float64 `yaml:"amplitude" json:"amplitude"`
	Phase     float64 `yaml:"phase,omitempty" json:"phase,omitempty"`
}

// Presets is a name-sortable preset collection.
type Presets []Preset

func (p Presets) Len() int      { return len(p) }
func (p Presets) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p Presets) Less(i, j int) bool {
	return strings.ToLower(p[i].Name) < strings.ToLower(p[j].Name)
}

// ParsePreset parses YAML preset data, rejecting unknown fields.
func ParsePreset(data []byte) (Preset, error) {
	var p Preset
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return Preset{}, fmt.Errorf("cannot parse preset: %w", err)
	}
	return p, nil
}

// Bytes serializes the preset as YAML.
func (p Preset) Bytes() ([]byte, error) {
	data, err := yaml3.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("cannot serialize preset: %w", err)
	}
	return data, nil
}

// Frequency returns the preset's fundamental frequency, resolving Note if it
// is set.
func (p Preset) Frequency() (float64, error) {
	if p.Note != "" {
		return NoteFrequency(p.Note)
	}
	return p.Fundamental, nil
}

// Apply replaces the instrument's state with the preset: fundamental
// frequency (resolving Note if set), amplitude and phase, and the partial
// set. Existing partials are removed first. The playing state is kept, so
// applying to a playing instrument switches the sound seamlessly.
func (p Preset) Apply(ins *Instrument) error {
	hz, err := p.Frequency()
	if err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	ins.RemoveAllPartials()
	ins.SetFundamentalFrequency(hz)
	ins.SetFundamentalAmplitude(p.Amplitude)
	ins.SetFundamentalPhase(p.Phase)
	for _, pp := range p.Partials {
		err := ins.AddPartial(pp.Degree,
			WithDetune(pp.Detune), WithAmplitude(pp.Amplitude), WithPhase(pp.Phase))
		if err != nil {
			return fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}
	return nil
}

// Preset snapshots the current state of the instrument under the given
// name. Partials appear in ascending degree order.
func (ins *Instrument) Preset(name string) Preset {
	p := Preset{
		Name:        name,
		Fundamental: ins.frequency,
		Amplitude:   ins.amplitude,
		Phase:       ins.phase,
	}
	for _, d := range ins.PartialDegrees() {
		pt := ins.partials[d]
		p.Partials = append(p.Partials, PartialPreset{
			Degree:    d,
			Detune:    pt.detune,
			Amplitude: pt.amplitude,
			Phase:     pt.phase,
		})
	}
	return p
}

// LoadPresets returns the factory presets merged with user presets found
// under <user config dir>/overtone/presets. A user preset with the same
// name as a factory preset replaces it. The result is sorted by name.
func LoadPresets() Presets {
	var presets Presets
	seen := make(map[string]int)
	loadPresetsFromFS(presetFS, &presets, seen)
	if configDir, err := os.UserConfigDir(); err == nil {
		userDir := filepath.Join(configDir, "overtone")
		loadPresetsFromFS(os.DirFS(userDir), &presets, seen)
	}
	sort.Sort(presets)
	return presets
}

func loadPresetsFromFS(fsys fs.FS, presets *Presets, seen map[string]int) {
	fs.WalkDir(fsys, "presets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil
		}
		p, err := ParsePreset(data)
		if err != nil {
			return nil
		}
		if p.Name == "" {
			base := filepath.Base(path)
			p.Name = nameFromFilename(strings.TrimSuffix(base, filepath.Ext(base)))
		}
		if i, ok := seen[strings.ToLower(p.Name)]; ok {
			(*presets)[i] = p
			return nil
		}
		seen[strings.ToLower(p.Name)] = len(*presets)
		*presets = append(*presets, p)
		return nil
	})
}

// FindPreset looks up a preset by case-insensitive name among the loaded
// presets.
func FindPreset(name string) (Preset, bool) {
	for _, p := range LoadPresets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// SaveUser writes the preset as a user preset file under
// <user config dir>/overtone/presets, from where LoadPresets picks it up,
// shadowing any factory preset with the same name.
func (p Preset) SaveUser() error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("cannot locate user config dir: %w", err)
	}
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	dir := filepath.Join(configDir, "overtone", "presets")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create preset dir: %w", err)
	}
	fileName := filepath.Join(dir, nameToFilename(p.Name)+".yml")
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("cannot write preset: %w", err)
	}
	return nil
}

func nameFromFilename(filename string) string {
	return strings.ReplaceAll(filename, "_", " ")
}

func nameToFilename(name string) string {
	// remove all special characters
	reg := regexp.MustCompile("[^a-zA-Z0-9 _]+")
	name = reg.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, " ", "_")
}
