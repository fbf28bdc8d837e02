package service

import (
	"context"
	"testing"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type exerciseFixture struct {
	exerciseRepo   *fakeExerciseRepo
	relationRepo   *fakeRelationRepo
	submissionRepo *fakeSubmissionRepo
	notifier       *fakeNotifier
	indexer        *fakeIndexer
	review         ReviewService
	exercises      ExerciseService

	org      primitive.ObjectID
	author   Actor
	reviewer Actor
}

func newExerciseFixture(t *testing.T) *exerciseFixture {
	t.Helper()
	f := &exerciseFixture{
		exerciseRepo:   newFakeExerciseRepo(),
		relationRepo:   newFakeRelationRepo(),
		submissionRepo: newFakeSubmissionRepo(),
		notifier:       &fakeNotifier{},
		indexer:        &fakeIndexer{},
		org:            primitive.NewObjectID(),
	}
	f.author = Actor{ID: primitive.NewObjectID(), Role: domain.RoleAuthor, OrganizationID: f.org}
	f.reviewer = Actor{ID: primitive.NewObjectID(), Role: domain.RoleReviewer, OrganizationID: primitive.NewObjectID()}
	f.review = NewReviewService(f.exerciseRepo, f.submissionRepo, defaultEngine(), f.notifier, f.indexer, nil, ReviewPolicy{})
	f.exercises = NewExerciseService(f.exerciseRepo, f.relationRepo, f.submissionRepo, f.review)
	return f
}

func (f *exerciseFixture) seedOwned(status domain.ExerciseStatus) domain.Exercise {
	ex := *publishableExercise()
	ex.OrganizationID = f.org
	ex.AuthorID = f.author.ID
	ex.Scope = domain.ScopeOrganization
	ex.Status = status
	return f.exerciseRepo.seed(ex)
}

func TestCreateDraftForcesStatusAndScope(t *testing.T) {
	f := newExerciseFixture(t)

	created, err := f.exercises.CreateDraft(context.Background(), f.author, &domain.Exercise{
		Name:   "Heel raise",
		Status: domain.StatusPublished, // must be ignored
		Scope:  domain.ScopeGlobal,     // must be demoted
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, created.Status)
	assert.Equal(t, domain.ScopeOrganization, created.Scope, "records are never born global")
	assert.Equal(t, f.org, created.OrganizationID)
	assert.Equal(t, f.author.ID, created.AuthorID)
}

func TestCreateDraftRequiresName(t *testing.T) {
	f := newExerciseFixture(t)

	_, err := f.exercises.CreateDraft(context.Background(), f.author, &domain.Exercise{})
	assert.Error(t, err)
}

func TestCommitFieldPersistsSingleField(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)

	err := f.exercises.CommitField(context.Background(), f.author, ex.ID, "name", "Heel raise, supported")
	require.NoError(t, err)

	stored := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, "Heel raise, supported", stored.Name)
	assert.False(t, stored.ChangedSinceReview, "draft edits do not arm the resubmit flag")

	require.Len(t, f.exerciseRepo.fieldWrites, 1)
	assert.Equal(t, "name", f.exerciseRepo.fieldWrites[0].field)
}

func TestCommitFieldInChangesRequestedArmsResubmit(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusChangesRequested)

	err := f.exercises.CommitField(context.Background(), f.author, ex.ID, "patientDescription", "A longer, simpler description for the patient app.")
	require.NoError(t, err)

	assert.True(t, f.exerciseRepo.get(ex.ID).ChangedSinceReview)
}

func TestReviewerEditDoesNotArmResubmit(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusChangesRequested)

	err := f.exercises.CommitField(context.Background(), f.reviewer, ex.ID, "name", "Renamed by reviewer")
	require.NoError(t, err)

	assert.False(t, f.exerciseRepo.get(ex.ID).ChangedSinceReview)
}

func TestCommitFieldRejectsUnknownField(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)

	err := f.exercises.CommitField(context.Background(), f.author, ex.ID, "status", domain.StatusPublished)
	assert.ErrorIs(t, err, ErrUnknownField, "workflow status is not an editable field")
	assert.Empty(t, f.exerciseRepo.fieldWrites)
}

func TestCommitFieldBlockedWhileLocked(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)
	lock := primitive.NewObjectID()
	f.exerciseRepo.exercises[ex.ID].GlobalSubmissionID = &lock

	err := f.exercises.CommitField(context.Background(), f.author, ex.ID, "name", "nope")
	assert.ErrorIs(t, err, ErrExerciseLocked)
	assert.Equal(t, ex.Name, f.exerciseRepo.get(ex.ID).Name)
}

func TestDeleteDraftCascadesRelationEdges(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)
	other := f.seedOwned(domain.StatusDraft)
	bystander := f.seedOwned(domain.StatusDraft)
	f.relationRepo.link(ex.ID, other.ID, domain.RelationProgression)
	f.relationRepo.link(other.ID, bystander.ID, domain.RelationProgression)

	require.NoError(t, f.exercises.DeleteDraft(context.Background(), f.author, ex.ID))

	_, err := f.exercises.GetExerciseByID(context.Background(), ex.ID)
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	assert.Nil(t, f.relationRepo.slot(other.ID, domain.RelationRegression),
		"edges pointing at the deleted exercise must go with it")
	assert.NotNil(t, f.relationRepo.slot(other.ID, domain.RelationProgression),
		"edges between surviving exercises stay")
}

func TestDeleteNonDraftIsRejected(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusPublished)

	err := f.exercises.DeleteDraft(context.Background(), f.author, ex.ID)
	assert.True(t, IsGuardViolation(err))
	_, getErr := f.exercises.GetExerciseByID(context.Background(), ex.ID)
	assert.NoError(t, getErr)
}

func TestSubmitForGlobalLocksAndMovesToReview(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)

	sub, err := f.exercises.SubmitForGlobal(context.Background(), f.author, ex.ID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, domain.StatusPendingReview, sub.Status)

	stored := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, domain.StatusPendingReview, stored.Status)
	require.NotNil(t, stored.GlobalSubmissionID)
	assert.Equal(t, sub.ID, *stored.GlobalSubmissionID)
	assert.False(t, stored.ChangedSinceReview)
}

func TestSubmitForGlobalRejectsSecondOpenSubmission(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)

	_, err := f.exercises.SubmitForGlobal(context.Background(), f.author, ex.ID)
	require.NoError(t, err)

	_, err = f.exercises.SubmitForGlobal(context.Background(), f.author, ex.ID)
	assert.ErrorIs(t, err, ErrExerciseLocked)
}

func TestSubmitForGlobalRollsBackWhenTransitionFails(t *testing.T) {
	f := newExerciseFixture(t)
	// submit is not legal from published, so Dispatch will refuse after
	// the lock was taken.
	ex := f.seedOwned(domain.StatusPublished)

	_, err := f.exercises.SubmitForGlobal(context.Background(), f.author, ex.ID)
	assert.True(t, IsGuardViolation(err))

	stored := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, domain.StatusPublished, stored.Status)
	assert.Nil(t, stored.GlobalSubmissionID, "the lock must be released when the transition fails")

	// The abandoned submission stays as archived history.
	open, openErr := f.submissionRepo.GetOpenByExercise(context.Background(), ex.ID)
	assert.Nil(t, open)
	assert.Error(t, openErr)
}

func TestSubmitForGlobalDeniedForForeignOrganization(t *testing.T) {
	f := newExerciseFixture(t)
	ex := f.seedOwned(domain.StatusDraft)
	outsider := Actor{ID: primitive.NewObjectID(), Role: domain.RoleAuthor, OrganizationID: primitive.NewObjectID()}

	_, err := f.exercises.SubmitForGlobal(context.Background(), outsider, ex.ID)
	assert.ErrorIs(t, err, ErrExerciseAccessDenied)
}

func TestReviewQueueListsPendingOnly(t *testing.T) {
	f := newExerciseFixture(t)
	f.seedOwned(domain.StatusDraft)
	pending := f.seedOwned(domain.StatusPendingReview)
	f.seedOwned(domain.StatusPublished)

	queue, err := f.exercises.GetReviewQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, pending.ID, queue[0].ID)
}
