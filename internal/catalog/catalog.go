// Package catalog holds the static option sets for the inspection form:
// platforms, modules, sectors, equipment types with their validity periods,
// the classification value sets, and the TAG generation rule. A Catalog is
// built once at startup and passed explicitly; it is never mutated.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type EquipmentType struct {
	Name         string `yaml:"name"`
	TagPrefix    string `yaml:"tag_prefix"`
	ValidityDays int    `yaml:"validity_days"`
}

type Catalog struct {
	Platforms       []string        `yaml:"platforms"`
	Modules         []string        `yaml:"modules"`
	Sectors         []string        `yaml:"sectors"`
	EquipmentTypes  []EquipmentType `yaml:"equipment_types"`
	Defects         []string        `yaml:"defects"`
	Causes          []string        `yaml:"causes"`
	RTICategories   []string        `yaml:"rti_categories"`
	Recommendations []string        `yaml:"recommendations"`
	DamageTypes     []string        `yaml:"damage_types"`

	typeByName map[string]EquipmentType
}

// Default returns the built-in catalog matching the field operation's form.
func Default() *Catalog {
	c := &Catalog{
		Platforms: []string{"P-1", "P-2", "P-3", "P-4"},
		Modules:   []string{"M01", "M02", "M03", "M04", "M05", "M06", "M07", "M08", "M09", "M10"},
		Sectors:   []string{"S01", "S02", "S03"},
		EquipmentTypes: []EquipmentType{
			{Name: "Vaso de Pressão", TagPrefix: "VP", ValidityDays: 180},
			{Name: "Tanque", TagPrefix: "TQ", ValidityDays: 365},
			{Name: "Permutador", TagPrefix: "PM", ValidityDays: 270},
			{Name: "Filtro", TagPrefix: "FT", ValidityDays: 90},
		},
		Defects:         []string{"Redução de espessura", "Vazamento", "Trinca", "Desgaste anormal", "Outro"},
		Causes:          []string{"Corrosão externa", "Corrosão interna", "Vibração excessiva", "Impacto", "Outro"},
		RTICategories:   []string{"I", "II", "III", "IV"},
		Recommendations: []string{"Reparar imediatamente", "Estender prazo de execução", "Interromper o serviço", "Pintura", "Outra"},
		DamageTypes:     []string{"Localizado", "Disperso", "Generalizado"},
	}
	c.index()
	return c
}

// Load reads a YAML override file. Sections present in the file replace the
// corresponding default sets; omitted sections keep the defaults.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if len(c.EquipmentTypes) == 0 {
		return nil, fmt.Errorf("catalog file %s defines no equipment types", path)
	}
	seenNames := make(map[string]bool, len(c.EquipmentTypes))
	seenPrefixes := make(map[string]bool, len(c.EquipmentTypes))
	for _, et := range c.EquipmentTypes {
		if et.Name == "" || et.TagPrefix == "" {
			return nil, fmt.Errorf("catalog file %s has an equipment type without name or tag_prefix", path)
		}
		if et.ValidityDays <= 0 {
			return nil, fmt.Errorf("equipment type %q has non-positive validity_days", et.Name)
		}
		if seenNames[et.Name] {
			return nil, fmt.Errorf("duplicate equipment type %q", et.Name)
		}
		// Shared prefixes would make distinct types produce the same tag.
		if seenPrefixes[et.TagPrefix] {
			return nil, fmt.Errorf("equipment types share tag_prefix %q", et.TagPrefix)
		}
		seenNames[et.Name] = true
		seenPrefixes[et.TagPrefix] = true
	}
	c.index()
	return c, nil
}

func (c *Catalog) index() {
	c.typeByName = make(map[string]EquipmentType, len(c.EquipmentTypes))
	for _, et := range c.EquipmentTypes {
		c.typeByName[et.Name] = et
	}
}

func (c *Catalog) ValidityDays(equipmentType string) (int, error) {
	et, ok := c.typeByName[equipmentType]
	if !ok {
		return 0, fmt.Errorf("unknown equipment type %q", equipmentType)
	}
	return et.ValidityDays, nil
}

// Tag derives the equipment identity string. Deterministic and injective over
// distinct (platform, module, sector, type, seq) tuples since every component
// comes from a fixed enumerated set.
func (c *Catalog) Tag(platform, module, sector, equipmentType string, seq int) (string, error) {
	if !contains(c.Platforms, platform) {
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	if !contains(c.Modules, module) {
		return "", fmt.Errorf("unknown module %q", module)
	}
	if !contains(c.Sectors, sector) {
		return "", fmt.Errorf("unknown sector %q", sector)
	}
	et, ok := c.typeByName[equipmentType]
	if !ok {
		return "", fmt.Errorf("unknown equipment type %q", equipmentType)
	}
	if seq <= 0 {
		return "", fmt.Errorf("equipment sequence must be positive, got %d", seq)
	}
	return fmt.Sprintf("%s-%s-%s-%s-%03d", platform, module, sector, et.TagPrefix, seq), nil
}

func (c *Catalog) HasPlatform(v string) bool       { return contains(c.Platforms, v) }
func (c *Catalog) HasModule(v string) bool         { return contains(c.Modules, v) }
func (c *Catalog) HasSector(v string) bool         { return contains(c.Sectors, v) }
func (c *Catalog) HasDefect(v string) bool         { return contains(c.Defects, v) }
func (c *Catalog) HasCause(v string) bool          { return contains(c.Causes, v) }
func (c *Catalog) HasRTICategory(v string) bool    { return contains(c.RTICategories, v) }
func (c *Catalog) HasRecommendation(v string) bool { return contains(c.Recommendations, v) }
func (c *Catalog) HasDamageType(v string) bool     { return contains(c.DamageTypes, v) }

func (c *Catalog) HasEquipmentType(v string) bool {
	_, ok := c.typeByName[v]
	return ok
}

func (c *Catalog) EquipmentTypeNames() []string {
	names := make([]string, 0, len(c.EquipmentTypes))
	for _, et := range c.EquipmentTypes {
		names = append(names, et.Name)
	}
	return names
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
