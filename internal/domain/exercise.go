// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseType describes how an exercise is dosed.
type ExerciseType string

const (
	TypeRepetitions   ExerciseType = "repetitions"
	TypeTimed         ExerciseType = "timed"
	TypeIsometricHold ExerciseType = "isometric_hold"
)

// BodySide indicates which side of the body the exercise targets.
type BodySide string

const (
	SideLeft  BodySide = "left"
	SideRight BodySide = "right"
	SideBoth  BodySide = "both"
	SideNone  BodySide = "none"
)

// Difficulty is an ordered scale; use Rank to compare two levels.
type Difficulty string

const (
	DifficultyBeginner Difficulty = "beginner"
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyExpert   Difficulty = "expert"
)

var difficultyRanks = map[Difficulty]int{
	DifficultyBeginner: 1,
	DifficultyEasy:     2,
	DifficultyMedium:   3,
	DifficultyHard:     4,
	DifficultyExpert:   5,
}

// Rank returns the position of the difficulty on the ordered scale,
// or 0 when the difficulty is unset/unknown.
func (d Difficulty) Rank() int {
	return difficultyRanks[d]
}

// ExerciseStatus is the moderation workflow state of an exercise.
type ExerciseStatus string

const (
	StatusDraft            ExerciseStatus = "draft"
	StatusPendingReview    ExerciseStatus = "pending_review"
	StatusChangesRequested ExerciseStatus = "changes_requested"
	// StatusApproved is accepted when reading stored records; approve
	// itself transitions straight to StatusPublished.
	StatusApproved  ExerciseStatus = "approved"
	StatusPublished ExerciseStatus = "published"
	StatusRejected  ExerciseStatus = "rejected"
	StatusArchived  ExerciseStatus = "archived"
)

// ExerciseScope controls catalog visibility and the read-only rules.
type ExerciseScope string

const (
	ScopePersonal     ExerciseScope = "personal"
	ScopeOrganization ExerciseScope = "organization"
	ScopeGlobal       ExerciseScope = "global"
)

// TrainingParams holds the numeric dosing parameters of an exercise.
type TrainingParams struct {
	Sets        int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps        int    `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationSec int    `bson:"durationSec,omitempty" json:"durationSec,omitempty"`
	RestSec     int    `bson:"restSec,omitempty" json:"restSec,omitempty"`
	Tempo       string `bson:"tempo,omitempty" json:"tempo,omitempty"`
	AudioCue    string `bson:"audioCue,omitempty" json:"audioCue,omitempty"`
}

// ExerciseMedia references the exercise's objects in media storage.
type ExerciseMedia struct {
	ImageKeys []string `bson:"imageKeys,omitempty" json:"imageKeys,omitempty"`
	VideoKey  string   `bson:"videoKey,omitempty" json:"videoKey,omitempty"`
	LoopKey   string   `bson:"loopKey,omitempty" json:"loopKey,omitempty"`
}

// HasAny reports whether at least one media asset is attached.
func (m ExerciseMedia) HasAny() bool {
	return len(m.ImageKeys) > 0 || m.VideoKey != "" || m.LoopKey != ""
}

// Exercise is the unit under review in the verification workbench.
type Exercise struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	AuthorID       primitive.ObjectID `bson:"authorId" json:"authorId"`

	Name                 string         `bson:"name" json:"name"`
	PatientDescription   string         `bson:"patientDescription,omitempty" json:"patientDescription,omitempty"`
	ClinicianDescription string         `bson:"clinicianDescription,omitempty" json:"clinicianDescription,omitempty"`
	Type                 ExerciseType   `bson:"type,omitempty" json:"type,omitempty"`
	BodySide             BodySide       `bson:"bodySide,omitempty" json:"bodySide,omitempty"`
	Params               TrainingParams `bson:"params,omitempty" json:"params"`
	MainTags             []string       `bson:"mainTags,omitempty" json:"mainTags,omitempty"`
	AdditionalTags       []string       `bson:"additionalTags,omitempty" json:"additionalTags,omitempty"`
	Media                ExerciseMedia  `bson:"media,omitempty" json:"media"`
	Difficulty           Difficulty     `bson:"difficulty,omitempty" json:"difficulty,omitempty"`

	Status      ExerciseStatus `bson:"status" json:"status"`
	Scope       ExerciseScope  `bson:"scope" json:"scope"`
	ReviewNotes string         `bson:"reviewNotes,omitempty" json:"reviewNotes,omitempty"`
	// GlobalSubmissionID links to the unresolved promotion request, if any.
	// While set, the owning organization's copy is read-only.
	GlobalSubmissionID *primitive.ObjectID `bson:"globalSubmissionId,omitempty" json:"globalSubmissionId,omitempty"`

	// ChangedSinceReview flips when the author edits a field after
	// changes were requested; resubmit requires it to be true.
	ChangedSinceReview bool `bson:"changedSinceReview,omitempty" json:"changedSinceReview,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Locked reports whether the record is read-only for its owning
// organization because a global submission is unresolved.
func (e *Exercise) Locked() bool {
	return e.GlobalSubmissionID != nil
}
