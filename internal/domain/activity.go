package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status is the proposed contractual classification of one activity.
// Values are stored as the dashboard's traffic-light codes.
type Status string

// Status values.
const (
	StatusUnset         Status = ""
	StatusIncluded      Status = "verde"
	StatusIntegrable    Status = "amarillo"
	StatusSpecific      Status = "rojo"
	StatusNotApplicable Status = "no_aplica"
)

// Statuses returns every status in tally order, unset last.
func Statuses() []Status {
	return []Status{StatusIncluded, StatusIntegrable, StatusSpecific, StatusNotApplicable, StatusUnset}
}

// ParseStatus accepts stored codes and semantic names.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "unset", "sin_definir":
		return StatusUnset, nil
	case "verde", "included", "incluida":
		return StatusIncluded, nil
	case "amarillo", "integrable":
		return StatusIntegrable, nil
	case "rojo", "specific", "especifica", "específica":
		return StatusSpecific, nil
	case "no_aplica", "not-applicable", "not_applicable", "gris":
		return StatusNotApplicable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Label returns a display label.
func (s Status) Label() string {
	switch s {
	case StatusIncluded:
		return "Incluida"
	case StatusIntegrable:
		return "Integrable"
	case StatusSpecific:
		return "Específica"
	case StatusNotApplicable:
		return "No aplica"
	default:
		return "Sin definir"
	}
}

// Key returns a non-empty map key for tallies.
func (s Status) Key() string {
	if s == StatusUnset {
		return "unset"
	}
	return string(s)
}

// ValidationStatus is the reviewer's acceptance state of a proposal.
type ValidationStatus string

// ValidationStatus values.
const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationRejected  ValidationStatus = "rejected"
)

// ValidationStatuses returns every validation status in tally order.
func ValidationStatuses() []ValidationStatus {
	return []ValidationStatus{ValidationPending, ValidationValidated, ValidationRejected}
}

// ParseValidationStatus normalizes raw input.
func ParseValidationStatus(raw string) (ValidationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "pending", "pendiente":
		return ValidationPending, nil
	case "validated", "validada", "validado":
		return ValidationValidated, nil
	case "rejected", "rechazada", "rechazado":
		return ValidationRejected, nil
	default:
		return "", fmt.Errorf("%w: validation %q", ErrInvalidStatus, raw)
	}
}

// Label returns a display label.
func (v ValidationStatus) Label() string {
	switch v {
	case ValidationValidated:
		return "Validada"
	case ValidationRejected:
		return "Rechazada"
	default:
		return "Pendiente"
	}
}

// Field names one editable proposal field of an activity record.
type Field string

// Field values, matching stored field names.
const (
	FieldStatus              Field = "status"
	FieldComment             Field = "comment"
	FieldFrequency           Field = "frequency"
	FieldInvolvedContracts   Field = "involvedContracts"
	FieldDependentActivities Field = "dependentActivities"
)

// ParseField accepts stored names and snake_case aliases.
func ParseField(raw string) (Field, error) {
	switch strings.TrimSpace(raw) {
	case "status":
		return FieldStatus, nil
	case "comment":
		return FieldComment, nil
	case "frequency":
		return FieldFrequency, nil
	case "involvedContracts", "involved_contracts", "contracts":
		return FieldInvolvedContracts, nil
	case "dependentActivities", "dependent_activities", "dependents":
		return FieldDependentActivities, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, raw)
	}
}

// ActivityKey is the logical key of an activity record.
type ActivityKey struct {
	AssetTypeID  string
	Category     string
	ActivityName string
}

// Normalize trims every key part.
func (k ActivityKey) Normalize() ActivityKey {
	return ActivityKey{
		AssetTypeID:  strings.TrimSpace(k.AssetTypeID),
		Category:     strings.TrimSpace(k.Category),
		ActivityName: strings.TrimSpace(k.ActivityName),
	}
}

// Validate reports the first blank key part.
func (k ActivityKey) Validate() error {
	switch {
	case k.AssetTypeID == "":
		return ValidationInputError{Field: "asset_type_id"}
	case k.Category == "":
		return ValidationInputError{Field: "category"}
	case k.ActivityName == "":
		return ValidationInputError{Field: "activity_name"}
	}
	return nil
}

// ActivityRecord holds the proposal and validation state for one (asset, category, activity).
type ActivityRecord struct {
	ID                  string
	AssetTypeID         string
	Category            string
	ActivityName        string
	Applies             bool
	Status              Status
	Comment             string
	Frequency           string
	InvolvedContracts   []string
	DependentActivities []string
	ValidationStatus    ValidationStatus
	ValidatorComment    string
	ValidatedBy         string
	LastUpdatedBy       string
	Timestamp           time.Time
}

// NewActivityRecord builds an applicable record with default fields.
func NewActivityRecord(id string, key ActivityKey, actorID string, now time.Time) (ActivityRecord, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return ActivityRecord{}, err
	}
	return ActivityRecord{
		ID:                  strings.TrimSpace(id),
		AssetTypeID:         key.AssetTypeID,
		Category:            key.Category,
		ActivityName:        key.ActivityName,
		Applies:             true,
		Status:              StatusUnset,
		InvolvedContracts:   []string{},
		DependentActivities: []string{},
		ValidationStatus:    ValidationPending,
		LastUpdatedBy:       strings.TrimSpace(actorID),
		Timestamp:           now.UTC(),
	}, nil
}

// Key returns the logical key.
func (r ActivityRecord) Key() ActivityKey {
	return ActivityKey{AssetTypeID: r.AssetTypeID, Category: r.Category, ActivityName: r.ActivityName}
}

// InvolvesContract reports whether name is listed in InvolvedContracts.
func (r ActivityRecord) InvolvesContract(name string) bool {
	return slices.Contains(r.InvolvedContracts, strings.TrimSpace(name))
}

// SetField sets one proposal field and resets validation to pending.
// Text fields take a string; list fields take []string or []any of strings.
func (r *ActivityRecord) SetField(field Field, value any, actorID string, now time.Time) error {
	switch field {
	case FieldStatus:
		raw, err := textValue(field, value)
		if err != nil {
			return err
		}
		status, err := ParseStatus(raw)
		if err != nil {
			return err
		}
		r.Status = status
	case FieldComment:
		raw, err := textValue(field, value)
		if err != nil {
			return err
		}
		r.Comment = strings.TrimSpace(raw)
	case FieldFrequency:
		raw, err := textValue(field, value)
		if err != nil {
			return err
		}
		r.Frequency = strings.TrimSpace(raw)
	case FieldInvolvedContracts:
		list, err := listValue(field, value)
		if err != nil {
			return err
		}
		r.InvolvedContracts = list
	case FieldDependentActivities:
		list, err := listValue(field, value)
		if err != nil {
			return err
		}
		r.DependentActivities = list
	default:
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	r.ValidationStatus = ValidationPending
	r.LastUpdatedBy = strings.TrimSpace(actorID)
	r.Timestamp = now.UTC()
	return nil
}

// FieldValue returns the stored representation of one proposal field.
func (r ActivityRecord) FieldValue(field Field) any {
	switch field {
	case FieldStatus:
		return string(r.Status)
	case FieldComment:
		return r.Comment
	case FieldFrequency:
		return r.Frequency
	case FieldInvolvedContracts:
		return slices.Clone(r.InvolvedContracts)
	case FieldDependentActivities:
		return slices.Clone(r.DependentActivities)
	default:
		return nil
	}
}

// SetValidation records a reviewer decision. It never resets itself.
func (r *ActivityRecord) SetValidation(status ValidationStatus, comment, validatorID string) {
	r.ValidationStatus = status
	r.ValidatorComment = strings.TrimSpace(comment)
	r.ValidatedBy = strings.TrimSpace(validatorID)
}

// textValue coerces a field value to a string.
func textValue(field Field, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case Status:
		return string(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: %s expects text, got %T", ErrInvalidField, field, value)
	}
}

// listValue coerces a field value to a de-duplicated string list.
func listValue(field Field, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return compactStrings(v), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a list of text, got %T", ErrInvalidField, field, item)
			}
			items = append(items, s)
		}
		return compactStrings(items), nil
	case string:
		return compactStrings(strings.Split(v, ",")), nil
	case nil:
		return []string{}, nil
	default:
		return nil, fmt.Errorf("%w: %s expects a list, got %T", ErrInvalidField, field, value)
	}
}
