package domain

import "strings"

// Descriptor is an immutable API descriptor loaded from api_config.json,
// keyed by data field name against a trigger node's last path segment
// (spec.md §3 "Data descriptor").
type Descriptor struct {
	APIName                 string
	DataFieldName           string
	DataFieldDescription    string
	SubsystemIndex          int
	MajorIndex              int
	MinorIndex              int
	Subscript               int
	StyleCode               int
	HasStyleCode            bool
	DataType                DataType
	CollectionIntervalMs    int
	Enabled                 bool
	MinimumChangeThreshold  float64
}

// JoinKey is the name this descriptor is matched against when resolving a
// trigger's <Field> segment: DataFieldName, falling back to ApiName.
func (d Descriptor) JoinKey() string {
	if d.DataFieldName != "" {
		return d.DataFieldName
	}
	return d.APIName
}

func (d Descriptor) matches(field string) bool {
	return strings.EqualFold(d.DataFieldName, field) || strings.EqualFold(d.APIName, field)
}

// DefaultDescriptor is substituted when the registry fails to load,
// per spec.md §7 "Configuration absent/invalid".
func DefaultDescriptor() Descriptor {
	return Descriptor{
		APIName:       "WorkCounterA_Counted",
		DataFieldName: "WorkCounterA_Counted",
		StyleCode:     8,
		HasStyleCode:  true,
		DataType:      TypeFloat,
		CollectionIntervalMs: 5000,
		Enabled:       true,
	}
}
