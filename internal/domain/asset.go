package domain

import (
	"slices"
	"strings"
)

// LocationTag identifies where a SUDS asset type is installed.
type LocationTag string

// LocationTag values, stored by their canonical ids.
const (
	LocationSidewalk       LocationTag = "acera"
	LocationGreenZone      LocationTag = "zona_verde"
	LocationRoadway        LocationTag = "viario"
	LocationInfrastructure LocationTag = "infraestructura"
)

// infrastructureIcon is the pipe image shown for infrastructure tags.
const infrastructureIcon = "https://img.freepik.com/vector-premium/icono-tuberia-fontanero-vector-simple-servicio-agua-tubo-aguas-residuales_98396-55465.jpg"

// LocationInfo describes one location tag for display.
type LocationInfo struct {
	Tag   LocationTag `json:"id"`
	Label string      `json:"name"`
	Icon  string      `json:"icon"`
}

// locationCatalog lists the closed set of tags in display order.
var locationCatalog = []LocationInfo{
	{Tag: LocationSidewalk, Label: "Acera", Icon: "🚶‍♀️"},
	{Tag: LocationGreenZone, Label: "Zona Verde", Icon: "🌳"},
	{Tag: LocationRoadway, Label: "Viario", Icon: "🚗"},
	{Tag: LocationInfrastructure, Label: "Infraestructura", Icon: infrastructureIcon},
}

// LocationTags returns the tag catalog in display order.
func LocationTags() []LocationInfo {
	return slices.Clone(locationCatalog)
}

// ParseLocationTag accepts stored ids and the english aliases.
func ParseLocationTag(raw string) (LocationTag, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "acera", "sidewalk":
		return LocationSidewalk, nil
	case "zona_verde", "green-zone", "green_zone":
		return LocationGreenZone, nil
	case "viario", "roadway":
		return LocationRoadway, nil
	case "infraestructura", "infrastructure":
		return LocationInfrastructure, nil
	default:
		return "", ErrInvalidLocation
	}
}

// ParseLocationTags parses and de-duplicates a tag list.
func ParseLocationTags(raw []string) ([]LocationTag, error) {
	out := make([]LocationTag, 0, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item) == "" {
			continue
		}
		tag, err := ParseLocationTag(item)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out, nil
}

// Info returns display metadata for the tag.
func (t LocationTag) Info() LocationInfo {
	for _, info := range locationCatalog {
		if info.Tag == t {
			return info
		}
	}
	return LocationInfo{Tag: t, Label: string(t)}
}

// AssetType represents one SUDS asset type.
type AssetType struct {
	ID            string
	Name          string
	Description   string
	ImageURLs     []string
	LocationTypes []LocationTag
	Order         int
}

// AssetInput holds the editable asset-type fields.
type AssetInput struct {
	Name          string
	Description   string
	ImageURLs     []string
	LocationTypes []LocationTag
}

// NewAssetType validates input and builds an asset type at order.
func NewAssetType(id string, in AssetInput, order int) (AssetType, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return AssetType{}, ValidationInputError{Field: "name"}
	}
	if order < 0 {
		return AssetType{}, ErrInvalidPosition
	}
	return AssetType{
		ID:            strings.TrimSpace(id),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		ImageURLs:     compactStrings(in.ImageURLs),
		LocationTypes: slices.Clone(in.LocationTypes),
		Order:         order,
	}, nil
}

// AssetPatch carries optional asset-type field updates.
type AssetPatch struct {
	Name          *string
	Description   *string
	ImageURLs     *[]string
	LocationTypes *[]LocationTag
	Order         *int
}

// Apply merges the non-nil patch fields.
func (a *AssetType) Apply(p AssetPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ValidationInputError{Field: "name"}
		}
		a.Name = name
	}
	if p.Description != nil {
		a.Description = strings.TrimSpace(*p.Description)
	}
	if p.ImageURLs != nil {
		a.ImageURLs = compactStrings(*p.ImageURLs)
	}
	if p.LocationTypes != nil {
		a.LocationTypes = slices.Clone(*p.LocationTypes)
	}
	if p.Order != nil {
		if *p.Order < 0 {
			return ErrInvalidPosition
		}
		a.Order = *p.Order
	}
	return nil
}

// HasAnyLocation reports whether the asset carries at least one of tags.
// An empty filter matches every asset.
func (a AssetType) HasAnyLocation(tags []LocationTag) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if slices.Contains(a.LocationTypes, tag) {
			return true
		}
	}
	return false
}

// compactStrings trims values, drops blanks and duplicates, and keeps order.
func compactStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
