package model

import "strings"

// Stage is the evolution-stage ordinal of an entity.
// Zero means the stage is unknown (metadata refill never ran or the
// infobox carried no recognizable stage).
type Stage int

// Evolution stages in ascending order. Armor and Hybrid forms are
// folded into Adult because they occupy the same slot in an evolution
// line even though the wiki labels them separately.
const (
	StageUnknown Stage = 0
	StageBabyI   Stage = 1
	StageBabyII  Stage = 2
	StageChild   Stage = 3
	StageAdult   Stage = 4
	StagePerfect Stage = 5
	StageUlt     Stage = 6
)

// stageByLabel maps normalized infobox labels to stage ordinals.
var stageByLabel = map[string]Stage{
	"baby i":   StageBabyI,
	"baby ii":  StageBabyII,
	"child":    StageChild,
	"adult":    StageAdult,
	"perfect":  StagePerfect,
	"ultimate": StageUlt,
	"armor":    StageAdult,
	"hybrid":   StageAdult,
}

// stageNames holds the display name for each canonical stage.
var stageNames = map[Stage]string{
	StageBabyI:   "Baby I",
	StageBabyII:  "Baby II",
	StageChild:   "Child",
	StageAdult:   "Adult",
	StagePerfect: "Perfect",
	StageUlt:     "Ultimate",
}

// ParseStage resolves an infobox stage label to its ordinal.
// Matching is case-insensitive and ignores surrounding whitespace.
// Unrecognized labels map to StageUnknown.
func ParseStage(label string) Stage {
	if s, ok := stageByLabel[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s
	}
	return StageUnknown
}

// String returns the display name of the stage, or "Unknown" for
// unrecognized ordinals.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}
