package models

import "fmt"

// Subtype is one of the fixed dyslexia categories a subject can be assigned.
type Subtype string

const (
	SubtypeDevelopmental Subtype = "Developmental dyslexia"
	SubtypeAcquired      Subtype = "Acquired dyslexia"
	SubtypePhonological  Subtype = "Phonological dyslexia"
	SubtypeSurface       Subtype = "Surface dyslexia"
	SubtypeRapidNaming   Subtype = "Rapid naming deficit"
	SubtypeVisual        Subtype = "Visual dyslexia"
)

// AllSubtypes lists the subtypes in the order they are offered for selection.
var AllSubtypes = []Subtype{
	SubtypeDevelopmental,
	SubtypeAcquired,
	SubtypePhonological,
	SubtypeSurface,
	SubtypeRapidNaming,
	SubtypeVisual,
}

func (s Subtype) IsValid() bool {
	for _, candidate := range AllSubtypes {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s Subtype) String() string {
	return string(s)
}

// ParseSubtype validates a display name against the enumerated set.
func ParseSubtype(value string) (Subtype, error) {
	subtype := Subtype(value)
	if !subtype.IsValid() {
		return "", fmt.Errorf("unknown dyslexia subtype %q", value)
	}
	return subtype, nil
}

// SubtypeNames returns the display names of all subtypes.
func SubtypeNames() []string {
	names := make([]string, len(AllSubtypes))
	for i, s := range AllSubtypes {
		names[i] = string(s)
	}
	return names
}
