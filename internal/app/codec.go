package app

import (
	"strings"
	"time"

	"github.com/hylla/sudsboard/internal/domain"
)

// assetDoc is the stored shape of an asset type. Order is nil for legacy documents.
type assetDoc struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ImageURLs     []string `json:"imageUrls"`
	LocationTypes []string `json:"locationTypes"`
	Order         *int     `json:"order,omitempty"`
}

// contractDoc is the stored shape of a contract.
type contractDoc struct {
	Name        string `json:"name"`
	Responsible string `json:"responsible"`
	Summary     string `json:"summary"`
	LogoURL     string `json:"logoUrl"`
}

// recordDoc is the stored shape of an activity record.
type recordDoc struct {
	AssetTypeID         string   `json:"assetTypeId"`
	Category            string   `json:"category"`
	ActivityName        string   `json:"activityName"`
	Applies             bool     `json:"applies"`
	Status              string   `json:"status"`
	Comment             string   `json:"comment"`
	Frequency           string   `json:"frequency"`
	InvolvedContracts   []string `json:"involvedContracts"`
	DependentActivities []string `json:"dependentActivities"`
	ValidationStatus    string   `json:"validationStatus"`
	ValidatorComment    string   `json:"validatorComment"`
	ValidatedBy         string   `json:"validatedBy"`
	LastUpdatedBy       string   `json:"lastUpdatedBy"`
	Timestamp           string   `json:"timestamp"`
}

// categoriesDoc is the stored shape of the category order.
type categoriesDoc struct {
	Categories []string `json:"categories"`
}

// storedAsset pairs a decoded asset with whether its order was persisted.
type storedAsset struct {
	asset    domain.AssetType
	hasOrder bool
}

// decodeAsset maps a stored document to an asset type.
func decodeAsset(doc Document) (storedAsset, error) {
	var raw assetDoc
	if err := doc.Decode(&raw); err != nil {
		return storedAsset{}, err
	}
	tags := make([]domain.LocationTag, 0, len(raw.LocationTypes))
	for _, item := range raw.LocationTypes {
		if tag, err := domain.ParseLocationTag(item); err == nil {
			tags = append(tags, tag)
			continue
		}
		tags = append(tags, domain.LocationTag(strings.TrimSpace(item)))
	}
	out := storedAsset{
		asset: domain.AssetType{
			ID:            doc.ID,
			Name:          raw.Name,
			Description:   raw.Description,
			ImageURLs:     append([]string(nil), raw.ImageURLs...),
			LocationTypes: tags,
		},
	}
	if raw.Order != nil {
		out.asset.Order = *raw.Order
		out.hasOrder = true
	}
	return out, nil
}

// assetFields maps an asset type to its stored fields.
func assetFields(a domain.AssetType) Fields {
	return Fields{
		"name":          a.Name,
		"description":   a.Description,
		"imageUrls":     nonNilStrings(a.ImageURLs),
		"locationTypes": locationStrings(a.LocationTypes),
		"order":         a.Order,
	}
}

// assetPatchFields maps only the patched fields.
func assetPatchFields(a domain.AssetType, p domain.AssetPatch) Fields {
	out := Fields{}
	if p.Name != nil {
		out["name"] = a.Name
	}
	if p.Description != nil {
		out["description"] = a.Description
	}
	if p.ImageURLs != nil {
		out["imageUrls"] = nonNilStrings(a.ImageURLs)
	}
	if p.LocationTypes != nil {
		out["locationTypes"] = locationStrings(a.LocationTypes)
	}
	if p.Order != nil {
		out["order"] = a.Order
	}
	return out
}

// decodeContract maps a stored document to a contract.
func decodeContract(doc Document) (domain.Contract, error) {
	var raw contractDoc
	if err := doc.Decode(&raw); err != nil {
		return domain.Contract{}, err
	}
	return domain.Contract{
		ID:          doc.ID,
		Name:        raw.Name,
		Responsible: raw.Responsible,
		Summary:     raw.Summary,
		LogoURL:     raw.LogoURL,
	}, nil
}

// contractFields maps a contract to its stored fields.
func contractFields(c domain.Contract) Fields {
	return Fields{
		"name":        c.Name,
		"responsible": c.Responsible,
		"summary":     c.Summary,
		"logoUrl":     c.LogoURL,
	}
}

// decodeRecord maps a stored document to an activity record.
func decodeRecord(doc Document) (domain.ActivityRecord, error) {
	var raw recordDoc
	if err := doc.Decode(&raw); err != nil {
		return domain.ActivityRecord{}, err
	}
	status, err := domain.ParseStatus(raw.Status)
	if err != nil {
		status = domain.Status(strings.TrimSpace(raw.Status))
	}
	validation, err := domain.ParseValidationStatus(raw.ValidationStatus)
	if err != nil {
		validation = domain.ValidationPending
	}
	return domain.ActivityRecord{
		ID:                  doc.ID,
		AssetTypeID:         raw.AssetTypeID,
		Category:            raw.Category,
		ActivityName:        raw.ActivityName,
		Applies:             raw.Applies,
		Status:              status,
		Comment:             raw.Comment,
		Frequency:           raw.Frequency,
		InvolvedContracts:   nonNilStrings(raw.InvolvedContracts),
		DependentActivities: nonNilStrings(raw.DependentActivities),
		ValidationStatus:    validation,
		ValidatorComment:    raw.ValidatorComment,
		ValidatedBy:         raw.ValidatedBy,
		LastUpdatedBy:       raw.LastUpdatedBy,
		Timestamp:           parseTS(raw.Timestamp),
	}, nil
}

// recordFields maps an activity record to its stored fields.
func recordFields(r domain.ActivityRecord) Fields {
	return Fields{
		"assetTypeId":         r.AssetTypeID,
		"category":            r.Category,
		"activityName":        r.ActivityName,
		"applies":             r.Applies,
		"status":              string(r.Status),
		"comment":             r.Comment,
		"frequency":           r.Frequency,
		"involvedContracts":   nonNilStrings(r.InvolvedContracts),
		"dependentActivities": nonNilStrings(r.DependentActivities),
		"validationStatus":    string(r.ValidationStatus),
		"validatorComment":    r.ValidatorComment,
		"validatedBy":         r.ValidatedBy,
		"lastUpdatedBy":       r.LastUpdatedBy,
		"timestamp":           ts(r.Timestamp),
	}
}

// decodeTaxonomy builds a taxonomy from the two settings documents.
func decodeTaxonomy(categories, names *Document) (domain.Taxonomy, error) {
	tax := domain.Taxonomy{Categories: []string{}, Activities: map[string][]string{}}
	if categories != nil {
		var raw categoriesDoc
		if err := categories.Decode(&raw); err != nil {
			return domain.Taxonomy{}, err
		}
		tax.Categories = nonNilStrings(raw.Categories)
	}
	if names != nil {
		raw := map[string][]string{}
		if err := names.Decode(&raw); err != nil {
			return domain.Taxonomy{}, err
		}
		for category, list := range raw {
			tax.Activities[category] = nonNilStrings(list)
		}
	}
	return tax, nil
}

// activityNamesFields maps the whole per-category name map to stored fields.
func activityNamesFields(tax domain.Taxonomy) Fields {
	out := make(Fields, len(tax.Activities))
	for category, names := range tax.Activities {
		out[category] = nonNilStrings(names)
	}
	return out
}

// nonNilStrings keeps empty lists encoded as [] rather than null.
func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

// locationStrings maps tags to their stored ids.
func locationStrings(tags []domain.LocationTag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, string(tag))
	}
	return out
}

// ts formats a timestamp for storage.
func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses a stored timestamp.
func parseTS(v string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}
