package service

import (
	"context"
	"sync"
	"time"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/domain"
	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- User repository fake ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	stored := *user
	r.users[user.ID] = &stored
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// --- Exercise repository fake ---

type fieldWrite struct {
	id          primitive.ObjectID
	field       string
	value       interface{}
	markChanged bool
}

type fakeExerciseRepo struct {
	mu        sync.Mutex
	exercises map[primitive.ObjectID]*domain.Exercise

	fieldWrites     []fieldWrite
	updateStatusErr error
	updateFieldErr  error
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
}

// seed stores the exercise (assigning an ID when unset) and returns it.
func (r *fakeExerciseRepo) seed(ex domain.Exercise) domain.Exercise {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ex.ID.IsZero() {
		ex.ID = primitive.NewObjectID()
	}
	stored := ex
	r.exercises[ex.ID] = &stored
	return ex
}

func (r *fakeExerciseRepo) get(id primitive.ObjectID) domain.Exercise {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.exercises[id]
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise.ID = primitive.NewObjectID()
	exercise.CreatedAt = time.Now().UTC()
	exercise.UpdatedAt = exercise.CreatedAt
	stored := *exercise
	r.exercises[exercise.ID] = &stored
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ex
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByOrganization(ctx context.Context, orgID primitive.ObjectID, status domain.ExerciseStatus) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Exercise
	for _, ex := range r.exercises {
		if ex.OrganizationID != orgID {
			continue
		}
		if status != "" && ex.Status != status {
			continue
		}
		out = append(out, *ex)
	}
	return out, nil
}

func (r *fakeExerciseRepo) GetByStatus(ctx context.Context, status domain.ExerciseStatus) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Exercise
	for _, ex := range r.exercises {
		if ex.Status == status {
			out = append(out, *ex)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *exercise
	r.exercises[exercise.ID] = &stored
	return nil
}

func (r *fakeExerciseRepo) UpdateField(ctx context.Context, id primitive.ObjectID, field string, value interface{}, markChanged bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateFieldErr != nil {
		return r.updateFieldErr
	}
	ex, ok := r.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.fieldWrites = append(r.fieldWrites, fieldWrite{id: id, field: field, value: value, markChanged: markChanged})

	switch field {
	case "name":
		ex.Name = value.(string)
	case "patientDescription":
		ex.PatientDescription = value.(string)
	case "clinicianDescription":
		ex.ClinicianDescription = value.(string)
	case "difficulty":
		ex.Difficulty = domain.Difficulty(value.(string))
	case "mainTags":
		ex.MainTags = value.([]string)
	case "media.imageKeys":
		ex.Media.ImageKeys = value.([]string)
	case "media.videoKey":
		ex.Media.VideoKey = value.(string)
	case "media.loopKey":
		ex.Media.LoopKey = value.(string)
	case "globalSubmissionId":
		if value == nil {
			ex.GlobalSubmissionID = nil
		} else {
			subID := value.(primitive.ObjectID)
			ex.GlobalSubmissionID = &subID
		}
	}
	if markChanged {
		ex.ChangedSinceReview = true
	}
	ex.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeExerciseRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.ExerciseStatus, set map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	ex, ok := r.exercises[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ex.Status != from {
		return repository.ErrConflict
	}
	ex.Status = to
	for k, v := range set {
		switch k {
		case "reviewNotes":
			ex.ReviewNotes = v.(string)
		case "changedSinceReview":
			ex.ChangedSinceReview = v.(bool)
		case "scope":
			ex.Scope = v.(domain.ExerciseScope)
		}
	}
	ex.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeExerciseRepo) Delete(ctx context.Context, id primitive.ObjectID, orgID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ex, ok := r.exercises[id]
	if !ok || ex.OrganizationID != orgID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

// --- Relation repository fake ---

// fakeRelationRepo mirrors the transactional slot semantics of the
// mongo implementation over in-memory maps.
type fakeRelationRepo struct {
	mu    sync.Mutex
	edges map[primitive.ObjectID]map[domain.RelationType]domain.RelationEdge

	failNext error
}

func newFakeRelationRepo() *fakeRelationRepo {
	return &fakeRelationRepo{edges: make(map[primitive.ObjectID]map[domain.RelationType]domain.RelationEdge)}
}

func (r *fakeRelationRepo) slot(id primitive.ObjectID, t domain.RelationType) *domain.RelationEdge {
	r.mu.Lock()
	defer r.mu.Unlock()
	edge, ok := r.edges[id][t]
	if !ok {
		return nil
	}
	copied := edge
	return &copied
}

func (r *fakeRelationRepo) edgeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, slots := range r.edges {
		n += len(slots)
	}
	return n
}

func (r *fakeRelationRepo) put(edge domain.RelationEdge) {
	if r.edges[edge.SourceID] == nil {
		r.edges[edge.SourceID] = make(map[domain.RelationType]domain.RelationEdge)
	}
	edge.ID = primitive.NewObjectID()
	r.edges[edge.SourceID][edge.Type] = edge
}

// link seeds a confirmed forward+inverse pair, bypassing the guards.
func (r *fakeRelationRepo) link(sourceID, targetID primitive.ObjectID, relType domain.RelationType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(domain.RelationEdge{SourceID: sourceID, TargetID: targetID, Type: relType, Provenance: domain.ProvenanceHuman, Confirmed: true})
	r.put(domain.RelationEdge{SourceID: targetID, TargetID: sourceID, Type: relType.Inverse(), Provenance: domain.ProvenanceHuman, Confirmed: true})
}

func (r *fakeRelationRepo) GetBySource(ctx context.Context, sourceID primitive.ObjectID) (domain.RelationPair, error) {
	var pair domain.RelationPair
	if reg := r.slot(sourceID, domain.RelationRegression); reg != nil {
		pair.Regression = reg
	}
	if pro := r.slot(sourceID, domain.RelationProgression); pro != nil {
		pair.Progression = pro
	}
	return pair, nil
}

func (r *fakeRelationRepo) ReplacePair(ctx context.Context, sourceID, targetID primitive.ObjectID, relType domain.RelationType, provenance domain.RelationProvenance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	inv := relType.Inverse()

	// Retire the source's old forward edge and its inverse.
	if old, ok := r.edges[sourceID][relType]; ok {
		delete(r.edges[sourceID], relType)
		if back, ok := r.edges[old.TargetID][inv]; ok && back.TargetID == sourceID {
			delete(r.edges[old.TargetID], inv)
		}
	}
	// Retire whatever held the target's inverse slot, plus its forward
	// counterpart.
	if displaced, ok := r.edges[targetID][inv]; ok {
		delete(r.edges[targetID], inv)
		if fwd, ok := r.edges[displaced.TargetID][relType]; ok && fwd.TargetID == targetID {
			delete(r.edges[displaced.TargetID], relType)
		}
	}

	confirmed := provenance == domain.ProvenanceHuman
	r.put(domain.RelationEdge{SourceID: sourceID, TargetID: targetID, Type: relType, Provenance: provenance, Confirmed: confirmed})
	r.put(domain.RelationEdge{SourceID: targetID, TargetID: sourceID, Type: inv, Provenance: provenance, Confirmed: confirmed})
	return nil
}

func (r *fakeRelationRepo) RemovePair(ctx context.Context, sourceID primitive.ObjectID, relType domain.RelationType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	edge, ok := r.edges[sourceID][relType]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.edges[sourceID], relType)
	inv := relType.Inverse()
	if back, ok := r.edges[edge.TargetID][inv]; ok && back.TargetID == sourceID {
		delete(r.edges[edge.TargetID], inv)
	}
	return nil
}

func (r *fakeRelationRepo) DeleteAllFor(ctx context.Context, exerciseID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.edges, exerciseID)
	for src, slots := range r.edges {
		for t, edge := range slots {
			if edge.TargetID == exerciseID {
				delete(r.edges[src], t)
			}
		}
	}
	return nil
}

// --- Submission repository fake ---

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[primitive.ObjectID]*domain.GlobalSubmission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[primitive.ObjectID]*domain.GlobalSubmission)}
}

func (r *fakeSubmissionRepo) get(id primitive.ObjectID) domain.GlobalSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.submissions[id]
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, sub *domain.GlobalSubmission) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.ID = primitive.NewObjectID()
	sub.SubmittedAt = time.Now().UTC()
	sub.UpdatedAt = sub.SubmittedAt
	stored := *sub
	r.submissions[sub.ID] = &stored
	return sub.ID, nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GlobalSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) GetOpenByExercise(ctx context.Context, exerciseID primitive.ObjectID) (*domain.GlobalSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.submissions {
		if sub.ExerciseID == exerciseID && !sub.Resolved() {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSubmissionRepo) Update(ctx context.Context, sub *domain.GlobalSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[sub.ID]; !ok {
		return repository.ErrNotFound
	}
	sub.UpdatedAt = time.Now().UTC()
	stored := *sub
	r.submissions[sub.ID] = &stored
	return nil
}

// --- Upload repository fake ---

type fakeUploadRepo struct {
	mu      sync.Mutex
	uploads map[primitive.ObjectID]*domain.MediaUpload
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{uploads: make(map[primitive.ObjectID]*domain.MediaUpload)}
}

func (r *fakeUploadRepo) Create(ctx context.Context, upload *domain.MediaUpload) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	upload.ID = primitive.NewObjectID()
	upload.UploadedAt = time.Now().UTC()
	stored := *upload
	r.uploads[upload.ID] = &stored
	return upload.ID, nil
}

func (r *fakeUploadRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MediaUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	upload, ok := r.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *upload
	return &copied, nil
}

func (r *fakeUploadRepo) GetByExercise(ctx context.Context, exerciseID primitive.ObjectID) ([]domain.MediaUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MediaUpload
	for _, upload := range r.uploads {
		if upload.ExerciseID == exerciseID {
			out = append(out, *upload)
		}
	}
	return out, nil
}

func (r *fakeUploadRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.uploads, id)
	return nil
}

// --- Collaborator fakes ---

type sentNotification struct {
	recipientID primitive.ObjectID
	exerciseID  primitive.ObjectID
	event       string
	message     string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(ctx context.Context, recipientID, exerciseID primitive.ObjectID, event, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{recipientID: recipientID, exerciseID: exerciseID, event: event, message: message})
	return nil
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []primitive.ObjectID
	removed []primitive.ObjectID
}

func (i *fakeIndexer) Index(ctx context.Context, ex *domain.Exercise) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexed = append(i.indexed, ex.ID)
	return nil
}

func (i *fakeIndexer) Remove(ctx context.Context, exerciseID primitive.ObjectID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.removed = append(i.removed, exerciseID)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (s *fakeStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expiry time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, objectKey)
	return nil
}
