package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	DefaultQuality  = 75
	DefaultResample = "lanczos"
	DefaultMetadata = "passthrough"
)

var ErrUnknownProfile = errors.New("config: unknown profile")

// Config describes one resize operation.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Crop is the centering anchor of a fit-crop: a name such as "center"
	// or "top-left", or "x,y" fractions. Empty means thumbnail.
	Crop string `yaml:"crop,omitempty"`

	// Box is an explicit "x0,y0,x1,y1" crop rectangle. It takes precedence
	// over Crop, and Width/Height are then ignored.
	Box string `yaml:"box,omitempty"`

	// Format is the target codec. Empty keeps the source format.
	Format   string            `yaml:"format,omitempty"`
	Quality  int               `yaml:"quality,omitempty"`
	Resample string            `yaml:"resample,omitempty"`
	Dither   bool              `yaml:"dither,omitempty"`
	Metadata string            `yaml:"metadata,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
}

// Default returns a thumbnail configuration bounded by width x height.
func Default(width, height int) Config {
	return Config{
		Width:    width,
		Height:   height,
		Quality:  DefaultQuality,
		Resample: DefaultResample,
		Metadata: DefaultMetadata,
	}
}

// Validate fills unset fields with defaults and rejects values that can
// never be processed. Option values are checked later by the components
// that interpret them.
func (c *Config) Validate() error {
	if c.Quality == 0 {
		c.Quality = DefaultQuality
	}
	if c.Resample == "" {
		c.Resample = DefaultResample
	}
	if c.Metadata == "" {
		c.Metadata = DefaultMetadata
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("config: quality %d outside [1,100]", c.Quality)
	}
	if c.Box == "" && (c.Width <= 0 || c.Height <= 0) {
		return fmt.Errorf("config: size %dx%d must be positive", c.Width, c.Height)
	}
	return nil
}

// Profiles maps names to configurations, e.g. "avatar" or "preview".
type Profiles map[string]Config

type profileFile struct {
	Profiles Profiles `yaml:"profiles"`
}

// Load reads a YAML document of the form
//
//	profiles:
//	  avatar: {width: 64, height: 64, crop: center}
func Load(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a profile document.
func Parse(data []byte) (Profiles, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return f.Profiles, nil
}

// Profile returns the validated configuration stored under name.
func (p Profiles) Profile(name string) (Config, error) {
	c, ok := p[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownProfile, name, p.Names())
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("profile %q: %w", name, err)
	}
	return c, nil
}

// Names returns the profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Write stores profiles at path.
func Write(p Profiles, path string) error {
	data, err := yaml.Marshal(profileFile{Profiles: p})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
