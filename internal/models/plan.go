package models

// PlanPolicy is the single source of truth for what a billing tier allows.
// Components ask for booleans/limits here instead of comparing plan strings.
type PlanPolicy struct {
	Name              string `json:"name"`
	PhotoCap          *int   `json:"photo_cap"` // nil = unlimited
	AICredits         int    `json:"ai_credits"`
	BackgroundRemoval bool   `json:"background_removal"`
	PhotographerMode  bool   `json:"photographer_mode"`
	Watermark         bool   `json:"watermark"`
	AllowedSelections int    `json:"allowed_selections"`
}

func intPtr(v int) *int { return &v }

// planPolicies folds the three-tier and five-tier variants into one table.
var planPolicies = map[string]PlanPolicy{
	"free": {
		Name:              "free",
		PhotoCap:          intPtr(25),
		AICredits:         0,
		BackgroundRemoval: false,
		PhotographerMode:  false,
		Watermark:         true,
		AllowedSelections: 3,
	},
	"starter": {
		Name:              "starter",
		PhotoCap:          intPtr(100),
		AICredits:         5,
		BackgroundRemoval: true,
		PhotographerMode:  false,
		Watermark:         true,
		AllowedSelections: 3,
	},
	"plus": {
		Name:              "plus",
		PhotoCap:          intPtr(250),
		AICredits:         25,
		BackgroundRemoval: true,
		PhotographerMode:  false,
		Watermark:         false,
		AllowedSelections: 5,
	},
	"pro": {
		Name:              "pro",
		PhotoCap:          intPtr(1000),
		AICredits:         100,
		BackgroundRemoval: true,
		PhotographerMode:  true,
		Watermark:         false,
		AllowedSelections: 5,
	},
	"studio": {
		Name:              "studio",
		PhotoCap:          nil,
		AICredits:         250,
		BackgroundRemoval: true,
		PhotographerMode:  true,
		Watermark:         false,
		AllowedSelections: 10,
	},
}

// PolicyFor returns the policy for a plan name, falling back to the free tier
// for unknown plans.
func PolicyFor(plan string) PlanPolicy {
	if p, ok := planPolicies[plan]; ok {
		return p
	}
	return planPolicies["free"]
}
