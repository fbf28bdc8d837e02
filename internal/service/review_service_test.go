package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewFixture struct {
	exerciseRepo   *fakeExerciseRepo
	submissionRepo *fakeSubmissionRepo
	notifier       *fakeNotifier
	indexer        *fakeIndexer
	review         ReviewService

	org      primitive.ObjectID
	author   Actor
	reviewer Actor
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	f := &reviewFixture{
		exerciseRepo:   newFakeExerciseRepo(),
		submissionRepo: newFakeSubmissionRepo(),
		notifier:       &fakeNotifier{},
		indexer:        &fakeIndexer{},
		org:            primitive.NewObjectID(),
	}
	f.author = Actor{ID: primitive.NewObjectID(), Role: domain.RoleAuthor, OrganizationID: f.org}
	f.reviewer = Actor{ID: primitive.NewObjectID(), Role: domain.RoleReviewer, OrganizationID: primitive.NewObjectID()}
	f.review = NewReviewService(
		f.exerciseRepo,
		f.submissionRepo,
		defaultEngine(),
		f.notifier,
		f.indexer,
		nil,
		ReviewPolicy{MinNotesLength: 10},
	)
	return f
}

// seedExercise stores a publishable exercise owned by the fixture's
// author in the given status.
func (f *reviewFixture) seedExercise(status domain.ExerciseStatus) domain.Exercise {
	ex := *publishableExercise()
	ex.OrganizationID = f.org
	ex.AuthorID = f.author.ID
	ex.Scope = domain.ScopeOrganization
	ex.Status = status
	return f.exerciseRepo.seed(ex)
}

func TestApproveBlockedByReadinessFailures(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)
	f.exerciseRepo.exercises[ex.ID].Media = domain.ExerciseMedia{} // strip all media

	_, err := f.review.Dispatch(context.Background(), EventApprove, ex.ID, f.reviewer, DispatchPayload{})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Results)
	for _, r := range ve.Results {
		assert.Equal(t, domain.SeverityError, r.Severity)
		assert.False(t, r.Passed)
	}

	stored := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, domain.StatusPendingReview, stored.Status, "a blocked approve must not move the record")
	assert.Empty(t, f.indexer.indexed)
	assert.Empty(t, f.notifier.sent)
}

func TestApprovePublishesWithWarningsOutstanding(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)
	stored := f.exerciseRepo.exercises[ex.ID]
	stored.ClinicianDescription = "" // warning only
	stored.Media.VideoKey = ""       // warning only
	stored.ReviewNotes = "tighten the cue text"

	updated, err := f.review.Dispatch(context.Background(), EventApprove, ex.ID, f.reviewer, DispatchPayload{})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPublished, updated.Status)
	assert.Equal(t, domain.ScopeGlobal, updated.Scope)
	assert.Empty(t, updated.ReviewNotes, "publishing clears the feedback banner")

	persisted := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, domain.StatusPublished, persisted.Status)
	assert.Equal(t, domain.ScopeGlobal, persisted.Scope)

	require.Len(t, f.indexer.indexed, 1)
	assert.Equal(t, ex.ID, f.indexer.indexed[0])
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.author.ID, f.notifier.sent[0].recipientID)
	assert.Equal(t, string(EventApprove), f.notifier.sent[0].event)
}

func TestApproveAcceptsLegacyApprovedStatus(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusApproved)

	updated, err := f.review.Dispatch(context.Background(), EventApprove, ex.ID, f.reviewer, DispatchPayload{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, updated.Status)
}

func TestSubmitFromPublishedIsGuardViolation(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPublished)

	_, err := f.review.Dispatch(context.Background(), EventSubmit, ex.ID, f.author, DispatchPayload{})

	var gv *GuardViolationError
	require.ErrorAs(t, err, &gv)
	assert.Equal(t, string(EventSubmit), gv.Event)
	assert.Equal(t, domain.StatusPublished, gv.State)

	stored := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, domain.StatusPublished, stored.Status)
}

func TestUnknownEventIsGuardViolation(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusDraft)

	_, err := f.review.Dispatch(context.Background(), ReviewEvent("promote"), ex.ID, f.reviewer, DispatchPayload{})
	assert.True(t, IsGuardViolation(err))
}

func TestDispatchOnMissingExercise(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.review.Dispatch(context.Background(), EventSubmit, primitive.NewObjectID(), f.author, DispatchPayload{})
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestRequestChangesRequiresSubstantiveNotes(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)

	_, err := f.review.Dispatch(context.Background(), EventRequestChanges, ex.ID, f.reviewer, DispatchPayload{Notes: "fix it"})
	assert.ErrorIs(t, err, ErrNotesTooShort)
	assert.Equal(t, domain.StatusPendingReview, f.exerciseRepo.get(ex.ID).Status)

	notes := "The patient description needs simpler language."
	updated, err := f.review.Dispatch(context.Background(), EventRequestChanges, ex.ID, f.reviewer, DispatchPayload{Notes: notes})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusChangesRequested, updated.Status)
	assert.Equal(t, notes, updated.ReviewNotes)
	assert.False(t, updated.ChangedSinceReview)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notes, f.notifier.sent[0].message, "the author must receive the reviewer's notes")
}

func TestRejectRequiresReasonCodeAndNotes(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)

	_, err := f.review.Dispatch(context.Background(), EventReject, ex.ID, f.reviewer, DispatchPayload{Notes: "This duplicates an existing catalog entry."})
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = f.review.Dispatch(context.Background(), EventReject, ex.ID, f.reviewer, DispatchPayload{Reason: domain.ReasonDuplicate, Notes: "too short"})
	assert.ErrorIs(t, err, ErrNotesTooShort)

	updated, err := f.review.Dispatch(context.Background(), EventReject, ex.ID, f.reviewer, DispatchPayload{
		Reason: domain.ReasonDuplicate,
		Notes:  "This duplicates an existing catalog entry.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, updated.Status)
}

func TestRejectResolvesOpenSubmission(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)

	subID, err := f.submissionRepo.Create(context.Background(), &domain.GlobalSubmission{
		ExerciseID:     ex.ID,
		OrganizationID: f.org,
		SubmittedBy:    f.author.ID,
		Status:         domain.StatusPendingReview,
	})
	require.NoError(t, err)
	f.exerciseRepo.exercises[ex.ID].GlobalSubmissionID = &subID

	_, err = f.review.Dispatch(context.Background(), EventReject, ex.ID, f.reviewer, DispatchPayload{
		Reason: domain.ReasonUnsafe,
		Notes:  "Unsafe loading for the target population.",
	})
	require.NoError(t, err)

	sub := f.submissionRepo.get(subID)
	assert.Equal(t, domain.StatusRejected, sub.Status)
	assert.Equal(t, domain.ReasonUnsafe, sub.ReasonCode)
	require.NotNil(t, sub.ReviewerID)
	assert.Equal(t, f.reviewer.ID, *sub.ReviewerID)
	assert.NotNil(t, sub.DecidedAt)

	stored := f.exerciseRepo.get(ex.ID)
	assert.Nil(t, stored.GlobalSubmissionID, "resolution releases the read-only lock")
}

func TestResubmitRequiresChangesSinceReview(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusChangesRequested)
	f.exerciseRepo.exercises[ex.ID].ReviewNotes = "simplify the cue text"

	_, err := f.review.Dispatch(context.Background(), EventResubmit, ex.ID, f.author, DispatchPayload{})
	assert.ErrorIs(t, err, ErrNoChangesSinceReview)
	assert.Equal(t, domain.StatusChangesRequested, f.exerciseRepo.get(ex.ID).Status)

	f.exerciseRepo.exercises[ex.ID].ChangedSinceReview = true

	updated, err := f.review.Dispatch(context.Background(), EventResubmit, ex.ID, f.author, DispatchPayload{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingReview, updated.Status)
	assert.Empty(t, updated.ReviewNotes, "resubmit clears the previous round's feedback")
	assert.False(t, updated.ChangedSinceReview)
}

func TestUnpublishArchivesAndDeindexes(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPublished)

	updated, err := f.review.Dispatch(context.Background(), EventUnpublish, ex.ID, f.reviewer, DispatchPayload{Notes: "superseded by a newer variant"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, updated.Status)

	require.Len(t, f.indexer.removed, 1)
	assert.Equal(t, ex.ID, f.indexer.removed[0])
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, string(EventUnpublish), f.notifier.sent[0].event)
}

func TestConcurrentTransitionSurfacesConflict(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)
	f.exerciseRepo.updateStatusErr = repository.ErrConflict

	_, err := f.review.Dispatch(context.Background(), EventApprove, ex.ID, f.reviewer, DispatchPayload{})
	require.ErrorIs(t, err, repository.ErrConflict)

	stored := f.exerciseRepo.get(ex.ID)
	assert.Equal(t, domain.StatusPendingReview, stored.Status)
	assert.Equal(t, domain.ScopeOrganization, stored.Scope, "no staged writes may land on conflict")
	assert.Empty(t, f.indexer.indexed, "side effects run only after a committed transition")
	assert.Empty(t, f.notifier.sent)
}

func TestAllowedEventsPerStatus(t *testing.T) {
	f := newReviewFixture(t)

	tests := []struct {
		status domain.ExerciseStatus
		want   []ReviewEvent
	}{
		{domain.StatusDraft, []ReviewEvent{EventSubmit}},
		{domain.StatusPendingReview, []ReviewEvent{EventApprove, EventRequestChanges, EventReject}},
		{domain.StatusChangesRequested, []ReviewEvent{EventSubmit, EventResubmit}},
		{domain.StatusApproved, []ReviewEvent{EventApprove}},
		{domain.StatusPublished, []ReviewEvent{EventUnpublish}},
		{domain.StatusRejected, nil},
		{domain.StatusArchived, nil},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, f.review.AllowedEvents(tt.status), "status %s", tt.status)
	}
}

func TestEditGuard(t *testing.T) {
	f := newReviewFixture(t)
	lock := primitive.NewObjectID()

	tests := []struct {
		name  string
		ex    domain.Exercise
		actor Actor
		check func(t *testing.T, err error)
	}{
		{
			name:  "author edits own draft",
			ex:    domain.Exercise{Status: domain.StatusDraft, Scope: domain.ScopeOrganization, OrganizationID: f.org},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:  "author edits own record in changes_requested",
			ex:    domain.Exercise{Status: domain.StatusChangesRequested, Scope: domain.ScopeOrganization, OrganizationID: f.org},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:  "author cannot edit while pending review",
			ex:    domain.Exercise{Status: domain.StatusPendingReview, Scope: domain.ScopeOrganization, OrganizationID: f.org},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.True(t, IsGuardViolation(err)) },
		},
		{
			name:  "author cannot edit a published record",
			ex:    domain.Exercise{Status: domain.StatusPublished, Scope: domain.ScopeOrganization, OrganizationID: f.org},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.True(t, IsGuardViolation(err)) },
		},
		{
			name:  "global records are read-only for authors",
			ex:    domain.Exercise{Status: domain.StatusDraft, Scope: domain.ScopeGlobal, OrganizationID: f.org},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrExerciseAccessDenied) },
		},
		{
			name:  "submission lock freezes the organization's copy",
			ex:    domain.Exercise{Status: domain.StatusDraft, Scope: domain.ScopeOrganization, OrganizationID: f.org, GlobalSubmissionID: &lock},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrExerciseLocked) },
		},
		{
			name:  "foreign organization is denied",
			ex:    domain.Exercise{Status: domain.StatusDraft, Scope: domain.ScopeOrganization, OrganizationID: primitive.NewObjectID()},
			actor: f.author,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrExerciseAccessDenied) },
		},
		{
			name:  "reviewer edits anything",
			ex:    domain.Exercise{Status: domain.StatusPendingReview, Scope: domain.ScopeGlobal, OrganizationID: f.org, GlobalSubmissionID: &lock},
			actor: f.reviewer,
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := tt.ex
			tt.check(t, f.review.CanEdit(&ex, tt.actor))
		})
	}
}

func TestReadinessReportIncludesScore(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusDraft)
	f.exerciseRepo.exercises[ex.ID].ClinicianDescription = ""

	results, score, err := f.review.Readiness(context.Background(), ex.ID)
	require.NoError(t, err)
	require.Len(t, results, 12)
	assert.Equal(t, 92, score, "11 of 12 rules pass")
}

func TestAuthorizeHookIsConsulted(t *testing.T) {
	f := newReviewFixture(t)
	denied := errors.New("actor is not assigned to this queue")

	review := NewReviewService(
		f.exerciseRepo,
		f.submissionRepo,
		defaultEngine(),
		f.notifier,
		f.indexer,
		func(ctx context.Context, actor Actor, event ReviewEvent, ex *domain.Exercise) error {
			if actor.Role != domain.RoleReviewer {
				return denied
			}
			return nil
		},
		ReviewPolicy{},
	)
	ex := f.seedExercise(domain.StatusPendingReview)

	_, err := review.Dispatch(context.Background(), EventApprove, ex.ID, f.author, DispatchPayload{})
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, domain.StatusPendingReview, f.exerciseRepo.get(ex.ID).Status)
}

func TestNotesAreTrimmedBeforeLengthCheck(t *testing.T) {
	f := newReviewFixture(t)
	ex := f.seedExercise(domain.StatusPendingReview)

	padded := "   " + strings.Repeat(" ", 20) + "no"
	_, err := f.review.Dispatch(context.Background(), EventRequestChanges, ex.ID, f.reviewer, DispatchPayload{Notes: padded})
	assert.ErrorIs(t, err, ErrNotesTooShort, "surrounding whitespace does not count toward the minimum")
}
