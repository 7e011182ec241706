package config

import (
	"encoding/json"
	"os"

	"github.com/okuma-coupler/bridge/internal/domain"
)

// apiConfigItem mirrors one JSON item under Configurations.<kind>.<series>.
// {General,Custom}, per spec.md §6.3.
type apiConfigItem struct {
	APIName                string   `json:"ApiName"`
	Type                   string   `json:"Type"`
	SubsystemIndex         int      `json:"SubsystemIndex"`
	MajorIndex             int      `json:"MajorIndex"`
	MinorIndex             int      `json:"MinorIndex"`
	StyleCode              *int     `json:"StyleCode"`
	Subscript              int      `json:"Subscript"`
	DataFieldName          string   `json:"DataFieldName"`
	DataFieldDescription   string   `json:"DataFieldDescription"`
	DataType               string   `json:"DataType"`
	CollectionIntervalMs   int      `json:"CollectionIntervalMs"`
	Enabled                bool     `json:"Enabled"`
	MinimumChangeThreshold float64  `json:"MinimumChangeThreshold"`
}

type apiConfigLists struct {
	General []apiConfigItem `json:"General"`
	Custom  []apiConfigItem `json:"Custom"`
}

// apiConfigFile is the root shape of api_config.json:
// { "Configurations": { "<kind>": { "<series>": { "General": [...], "Custom": [...] } } } }
type apiConfigFile struct {
	Configurations map[string]map[string]apiConfigLists `json:"Configurations"`
}

// LoadAPIConfig parses api_config.json into a flat slice of descriptors.
// Within each series the General items come before the Custom items (per
// spec.md §4.4 step 2); kinds and series are decoded into maps, so their
// relative order in the result is not defined and may differ between calls.
func LoadAPIConfig(path string) ([]domain.Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file apiConfigFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	var out []domain.Descriptor
	for _, series := range file.Configurations {
		for _, lists := range series {
			out = append(out, convertItems(lists.General)...)
			out = append(out, convertItems(lists.Custom)...)
		}
	}
	return out, nil
}

func convertItems(items []apiConfigItem) []domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(items))
	for _, it := range items {
		d := domain.Descriptor{
			APIName:                it.APIName,
			DataFieldName:          it.DataFieldName,
			DataFieldDescription:   it.DataFieldDescription,
			SubsystemIndex:         it.SubsystemIndex,
			MajorIndex:             it.MajorIndex,
			MinorIndex:             it.MinorIndex,
			Subscript:              it.Subscript,
			DataType:               domain.NormalizeDataType(it.DataType),
			CollectionIntervalMs:   it.CollectionIntervalMs,
			Enabled:                it.Enabled,
			MinimumChangeThreshold: it.MinimumChangeThreshold,
		}
		if it.StyleCode != nil {
			d.StyleCode = *it.StyleCode
			d.HasStyleCode = true
		}
		out = append(out, d)
	}
	return out
}
