package models

// Prefix is the honorific stored on a user
type Prefix string

const (
	PrefixMr  Prefix = "Mr"
	PrefixMrs Prefix = "Mrs"
	PrefixMs  Prefix = "Ms"
)

// Gender values derived from a prefix
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// prefixCases keeps the declaration order of the enumeration
var prefixCases = []struct {
	Name  string
	Value Prefix
}{
	{"MR", PrefixMr},
	{"MRS", PrefixMrs},
	{"MS", PrefixMs},
}

// PrefixValues returns the prefixes keyed by case name, e.g. {"MR": "Mr"}
func PrefixValues() map[string]string {
	values := make(map[string]string, len(prefixCases))
	for _, c := range prefixCases {
		values[c.Name] = string(c.Value)
	}
	return values
}

// PrefixList returns the prefix values in declaration order
func PrefixList() []string {
	list := make([]string, 0, len(prefixCases))
	for _, c := range prefixCases {
		list = append(list, string(c.Value))
	}
	return list
}

// ParsePrefix returns the matching prefix and whether it is known
func ParsePrefix(value string) (Prefix, bool) {
	for _, c := range prefixCases {
		if string(c.Value) == value {
			return c.Value, true
		}
	}
	return "", false
}

// Gender returns "male" for Mr and "female" for every other known prefix
func (p Prefix) Gender() string {
	if p == PrefixMr {
		return GenderMale
	}
	return GenderFemale
}
