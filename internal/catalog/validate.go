package catalog

// Validation describes whether a code is well-formed and known
type Validation struct {
	Code          string   `json:"code"`
	Valid         bool     `json:"valid"`
	FormatCorrect bool     `json:"format_correct"`
	Exists        bool     `json:"exists"`
	Billable      bool     `json:"billable"`
	Description   string   `json:"description,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Validate checks a code's format and its presence in the index
func (ix *Index) Validate(code string) Validation {
	normalized := NormalizeCode(code)
	v := Validation{Code: normalized}

	if ValidFormat(normalized) {
		v.FormatCorrect = true
	} else {
		v.Warnings = append(v.Warnings, "Invalid ICD-10 code format")
	}

	if e, ok := ix.Lookup(normalized); ok {
		v.Exists = true
		v.Billable = e.Billable
		v.Description = e.Description
		if !e.Billable {
			v.Warnings = append(v.Warnings, "Code is a category header and not billable")
		}
	} else {
		v.Warnings = append(v.Warnings, "Code not found in catalog")
	}

	v.Valid = v.FormatCorrect && v.Exists
	return v
}
