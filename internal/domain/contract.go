package domain

import "strings"

// Contract represents one maintenance contract. Activity records reference it by name.
type Contract struct {
	ID          string
	Name        string
	Responsible string
	Summary     string
	LogoURL     string
}

// ContractInput holds the editable contract fields.
type ContractInput struct {
	Name        string
	Responsible string
	Summary     string
	LogoURL     string
}

// NewContract validates input and builds a contract.
func NewContract(id string, in ContractInput) (Contract, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Contract{}, ValidationInputError{Field: "name"}
	}
	return Contract{
		ID:          strings.TrimSpace(id),
		Name:        name,
		Responsible: strings.TrimSpace(in.Responsible),
		Summary:     strings.TrimSpace(in.Summary),
		LogoURL:     strings.TrimSpace(in.LogoURL),
	}, nil
}

// ContractPatch carries optional contract field updates.
type ContractPatch struct {
	Name        *string
	Responsible *string
	Summary     *string
	LogoURL     *string
}

// Apply merges the non-nil patch fields.
func (c *Contract) Apply(p ContractPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ValidationInputError{Field: "name"}
		}
		c.Name = name
	}
	if p.Responsible != nil {
		c.Responsible = strings.TrimSpace(*p.Responsible)
	}
	if p.Summary != nil {
		c.Summary = strings.TrimSpace(*p.Summary)
	}
	if p.LogoURL != nil {
		c.LogoURL = strings.TrimSpace(*p.LogoURL)
	}
	return nil
}
