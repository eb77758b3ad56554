package catalog

import (
	"regexp"
	"strings"
)

// Entry is one immutable catalog row. Entries are owned by the Index;
// callers must treat returned pointers as read-only.
type Entry struct {
	Code        string
	Description string // as loaded
	Normalized  string // textnorm.Normalize(Description)
	Category    string
	Billable    bool
	Tokens      []string // sorted content token set, cached at load
}

// Family returns the hierarchical category prefix of the entry's code
func (e *Entry) Family() string {
	return FamilyPrefix(e.Code)
}

var icdCodePattern = regexp.MustCompile(`^[A-Z][0-9][0-9A-Z](\.[0-9A-Z]{1,4})?$`)

// NormalizeCode upper-cases a code and inserts the ICD-10 dot after the
// three-character category when the source omitted it ("r519" -> "R51.9").
// Codes that do not start with a letter are only trimmed and upper-cased.
func NormalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) <= 3 || strings.Contains(code, ".") {
		return code
	}
	if code[0] < 'A' || code[0] > 'Z' {
		return code
	}
	return code[:3] + "." + code[3:]
}

// ValidFormat reports whether code is a well-formed ICD-10-CM code
func ValidFormat(code string) bool {
	return icdCodePattern.MatchString(code)
}

// FamilyPrefix returns the part of a code before the dot. Codes that differ
// only in laterality or complication detail share a family prefix.
func FamilyPrefix(code string) string {
	if i := strings.IndexByte(code, '.'); i >= 0 {
		return code[:i]
	}
	if len(code) > 3 && code[0] >= 'A' && code[0] <= 'Z' {
		return code[:3]
	}
	return code
}

// Chapter returns the ICD-10-CM chapter title for a code
func Chapter(code string) string {
	if code == "" {
		return "Unknown"
	}
	first := code[0]
	if first >= 'a' && first <= 'z' {
		first -= 'a' - 'A'
	}
	second := byte('0')
	if len(code) > 1 {
		second = code[1]
	}

	switch first {
	case 'A', 'B':
		return "Infectious and Parasitic Diseases"
	case 'C':
		return "Neoplasms"
	case 'D':
		if second < '5' {
			return "Neoplasms"
		}
		return "Diseases of Blood and Immune System"
	case 'E':
		return "Endocrine, Nutritional and Metabolic Diseases"
	case 'F':
		return "Mental, Behavioral and Neurodevelopmental Disorders"
	case 'G':
		return "Diseases of the Nervous System"
	case 'H':
		if second < '6' {
			return "Diseases of the Eye and Adnexa"
		}
		return "Diseases of the Ear and Mastoid Process"
	case 'I':
		return "Diseases of the Circulatory System"
	case 'J':
		return "Diseases of the Respiratory System"
	case 'K':
		return "Diseases of the Digestive System"
	case 'L':
		return "Diseases of the Skin and Subcutaneous Tissue"
	case 'M':
		return "Diseases of the Musculoskeletal System"
	case 'N':
		return "Diseases of the Genitourinary System"
	case 'O':
		return "Pregnancy, Childbirth and the Puerperium"
	case 'P':
		return "Perinatal Period Conditions"
	case 'Q':
		return "Congenital Malformations and Chromosomal Abnormalities"
	case 'R':
		return "Symptoms, Signs and Abnormal Clinical Findings"
	case 'S', 'T':
		return "Injury, Poisoning and External Causes"
	case 'U':
		return "Codes for Special Purposes"
	case 'V', 'W', 'X', 'Y':
		return "External Causes of Morbidity"
	case 'Z':
		return "Factors Influencing Health Status"
	default:
		return "Unknown"
	}
}

// aliasSuffixes are trailing qualifiers stripped to build exact-match aliases,
// so "headache" resolves to "Headache, unspecified".
var aliasSuffixes = []string{
	" not elsewhere classified",
	" unspecified",
	" nec",
	" nos",
}

// descriptionAlias returns the normalized description with one trailing
// qualifier removed, or "" when none applies.
func descriptionAlias(normalized string) string {
	for _, suffix := range aliasSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			alias := strings.TrimSpace(strings.TrimSuffix(normalized, suffix))
			if alias != "" {
				return alias
			}
		}
	}
	return ""
}
