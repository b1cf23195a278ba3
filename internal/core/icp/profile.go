// Package icp loads and validates the Ideal Customer Profile descriptor that
// parameterizes buyer-group discovery. The descriptor is produced by an
// external interview tool and treated as immutable input for a run
package icp

import (
	"encoding/json"
	"os"

	perr "quorum/internal/platform/errors"
)

// SalesCycle describes the expected length of a deal
type SalesCycle string

// Supported sales cycle values
const (
	SalesCycleShort  SalesCycle = "short"
	SalesCycleMedium SalesCycle = "medium"
	SalesCycleLong   SalesCycle = "long"
)

// Sizing bounds the assembled buyer group
type Sizing struct {
	Min   int `json:"min" validate:"gte=1"`
	Ideal int `json:"ideal" validate:"gtefield=Min"`
	Max   int `json:"max" validate:"gtefield=Ideal"`
}

// TitleFiltering lists title preferences and exclusions
type TitleFiltering struct {
	PrimaryTitles   []string `json:"primaryTitles"`
	SecondaryTitles []string `json:"secondaryTitles"`
	ExcludedTitles  []string `json:"excludedTitles"`
}

// DepartmentFiltering lists department preferences and exclusions
type DepartmentFiltering struct {
	PrimaryDepartments   []string `json:"primaryDepartments"`
	SecondaryDepartments []string `json:"secondaryDepartments"`
	ExcludedDepartments  []string `json:"excludedDepartments"`
}

// DealSizeRange brackets the expected contract value in USD
type DealSizeRange struct {
	Low  int `json:"low" validate:"gte=0"`
	High int `json:"high" validate:"gtefield=Low"`
}

// Profile is the full ICP descriptor for one workspace
type Profile struct {
	WorkspaceID     string              `json:"workspaceId" validate:"required"`
	DealSizeRange   DealSizeRange       `json:"dealSizeRange"`
	ProductCategory string              `json:"productCategory" validate:"required"`
	Sizing          Sizing              `json:"buyerGroupSizing"`
	Titles          TitleFiltering      `json:"titleFiltering"`
	Departments     DepartmentFiltering `json:"departmentFiltering"`

	// RolePriorities maps a role name (decision_maker, champion, stakeholder,
	// blocker, introducer) to an ordered title list
	RolePriorities map[string][]string `json:"rolePriorities"`

	USAOnly    bool       `json:"usaOnly"`
	SalesCycle SalesCycle `json:"salesCycle" validate:"oneof=short medium long"`
}

// Default returns a profile with documented defaults, suitable as a fallback
// when a workspace has not completed the configuration interview
func Default(workspaceID string) Profile {
	return Profile{
		WorkspaceID:     workspaceID,
		DealSizeRange:   DealSizeRange{Low: 10_000, High: 100_000},
		ProductCategory: "b2b-software",
		Sizing:          Sizing{Min: 3, Ideal: 6, Max: 10},
		Titles: TitleFiltering{
			PrimaryTitles:   []string{"CEO", "CTO", "VP of Engineering", "VP of Sales"},
			SecondaryTitles: []string{"Director of Engineering", "Head of Product"},
			ExcludedTitles:  []string{"Intern", "Student", "Volunteer"},
		},
		Departments: DepartmentFiltering{
			PrimaryDepartments:   []string{"Engineering", "Product"},
			SecondaryDepartments: []string{"Operations", "Finance"},
			ExcludedDepartments:  []string{"Recruiting"},
		},
		RolePriorities: map[string][]string{
			"decision_maker": {"Chief Executive Officer", "Chief Technology Officer", "President"},
			"champion":       {"Director", "Head of"},
			"blocker":        {"General Counsel", "Procurement Manager", "Chief Information Security Officer"},
			"introducer":     {"Executive Assistant", "Chief of Staff"},
		},
		SalesCycle: SalesCycleMedium,
	}
}

// Load reads and validates a profile from a JSON file
func Load(path string) (Profile, error) {
	var p Profile
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, perr.Wrapf(err, perr.ErrorCodeConfig, "icp profile read failed")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, perr.Wrapf(err, perr.ErrorCodeJSON, "icp profile parse failed")
	}
	if err := Validate(&p); err != nil {
		return p, err
	}
	return p, nil
}
