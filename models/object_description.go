package models

// ObjectDescription carries the backend's condition/risk assessment for one
// detected object. The schema is loosely specified server-side: every field
// is optional and a missing value means "not determined", nothing stronger.
type ObjectDescription struct {
	Scene       *Scene       `json:"scene,omitempty"`
	Object      *ObjectInfo  `json:"object,omitempty"`
	DataQuality *DataQuality `json:"data_quality,omitempty"`
}

type Scene struct {
	SeasonInferred *string `json:"season_inferred,omitempty"`
	Note           *string `json:"note,omitempty"`
}

type ObjectInfo struct {
	Type      *string    `json:"type,omitempty"`
	Species   *Species   `json:"species,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
	Risk      *Risk      `json:"risk,omitempty"`
}

type Species struct {
	Label      *string `json:"label_ru,omitempty"`
	Confidence *int    `json:"confidence,omitempty"`
}

// Condition is a flat set of named boolean-presence findings plus a few
// scalar details.
type Condition struct {
	TrunkDecay      *ConditionDetail `json:"trunk_decay,omitempty"`
	Cavities        *ConditionDetail `json:"cavities,omitempty"`
	Cracks          *ConditionDetail `json:"cracks,omitempty"`
	BarkDetachment  *ConditionDetail `json:"bark_detachment,omitempty"`
	TrunkDamage     *ConditionDetail `json:"trunk_damage,omitempty"`
	CrownDamage     *ConditionDetail `json:"crown_damage,omitempty"`
	FruitingBodies  *ConditionDetail `json:"fruiting_bodies,omitempty"`
	RootDamage      *ConditionDetail `json:"root_damage,omitempty"`
	RootCollarDecay *ConditionDetail `json:"root_collar_decay,omitempty"`
	TreeStatus      *string          `json:"tree_status,omitempty"`
	Leaning         *LeaningDetail   `json:"leaning,omitempty"`
	Diseases        []DiseaseOrPest  `json:"diseases,omitempty"`
	Pests           []DiseaseOrPest  `json:"pests,omitempty"`
	DryBranchesPct  *int             `json:"dry_branches_pct,omitempty"`
	Other           []string         `json:"other,omitempty"`
}

type ConditionDetail struct {
	Present    *bool    `json:"present,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	Confidence *int     `json:"confidence,omitempty"`
}

type LeaningDetail struct {
	Present    *bool `json:"present,omitempty"`
	Angle      *int  `json:"angle,omitempty"`
	Confidence *int  `json:"confidence,omitempty"`
}

type DiseaseOrPest struct {
	Name       *string  `json:"name_ru,omitempty"`
	Type       *string  `json:"type,omitempty"`
	Likelihood *int     `json:"likelihood,omitempty"` // 0-100
	Evidence   []string `json:"evidence,omitempty"`
	Severity   *string  `json:"severity,omitempty"`
}

type DataQuality struct {
	Issues            []string `json:"issues,omitempty"`
	OverallConfidence *int     `json:"overall_confidence,omitempty"`
}

type Risk struct {
	Level               *string  `json:"level,omitempty"`
	Drivers             []string `json:"drivers,omitempty"`
	ImminentFailureRisk *bool    `json:"imminent_failure_risk,omitempty"`
}
