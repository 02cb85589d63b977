package service

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/domain/repository"
	"kaab_hub/internal/domain/voting"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

// memStore backs the in-memory repositories below so services see one consistent state.
type memStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	questions map[string]*model.Question
	answers   map[string]*model.Answer
	votes     map[string][]vote
	writes    int
}

type vote struct {
	userID string
	dir    voting.Direction
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*model.User{},
		questions: map[string]*model.Question{},
		answers:   map[string]*model.Answer{},
		votes:     map[string][]vote{},
	}
}

func voteKey(target voting.Target, id string) string { return string(target) + ":" + id }

func (s *memStore) voteSets(target voting.Target, id string) (up, down []string) {
	up, down = []string{}, []string{}
	for _, v := range s.votes[voteKey(target, id)] {
		if v.dir == voting.Up {
			up = append(up, v.userID)
		} else {
			down = append(down, v.userID)
		}
	}
	return up, down
}

func (s *memStore) addUser(id, name string) *model.User {
	u := model.NewUser(id, name, id+"@example.com", "", "", "", nil)
	s.users[id] = u
	return u
}

func (s *memStore) addQuestion(id, authorID string) *model.Question {
	q, err := model.NewQuestion(id, authorID, "Title "+id, "Body", "General", "", nil)
	if err != nil {
		panic(err)
	}
	s.questions[id] = q
	return q
}

func (s *memStore) addAnswer(id, questionID, authorID string) *model.Answer {
	a, err := model.NewAnswer(id, questionID, authorID, "Answer "+id)
	if err != nil {
		panic(err)
	}
	s.answers[id] = a
	return a
}

// users

type memUserRepo struct{ s *memStore }

var _ repository.UserRepository = memUserRepo{}

func (r memUserRepo) Create(_ context.Context, _ *sql.Tx, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return common.ErrConflict
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	r.s.writes++
	return nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUserRepo) update(id string, fn func(u *model.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(u)
	r.s.writes++
	return nil
}

func (r memUserRepo) UpdateProfile(_ context.Context, user *model.User) error {
	return r.update(user.ID, func(u *model.User) { *u = *user })
}

func (r memUserRepo) UpdateSettings(_ context.Context, id string, prefs model.NotificationPreferences, privacy model.PrivacySettings) error {
	return r.update(id, func(u *model.User) {
		u.NotificationPreferences = prefs
		u.PrivacySettings = privacy
	})
}

func (r memUserRepo) UpdatePassword(_ context.Context, id, hashed string) error {
	return r.update(id, func(u *model.User) { u.HashedPassword = hashed })
}

func (r memUserRepo) UpdateProfilePicture(_ context.Context, id, url string) error {
	return r.update(id, func(u *model.User) { u.ProfilePicture = url })
}

func (r memUserRepo) IncrementReputation(_ context.Context, _ *sql.Tx, id string, delta int) error {
	return r.update(id, func(u *model.User) { u.Reputation += delta })
}

// questions

type memQuestionRepo struct{ s *memStore }

var _ repository.QuestionRepository = memQuestionRepo{}

func (r memQuestionRepo) load(q *model.Question) model.Question {
	cp := *q
	cp.Upvotes, cp.Downvotes = r.s.voteSets(voting.TargetQuestion, q.ID)
	cp.AnswerIDs = []string{}
	for _, a := range r.s.answers {
		if a.QuestionID == q.ID {
			cp.AnswerIDs = append(cp.AnswerIDs, a.ID)
		}
	}
	if u, ok := r.s.users[q.AuthorID]; ok {
		sum := u.Summary()
		cp.Author = &sum
	}
	return cp
}

func (r memQuestionRepo) Create(_ context.Context, _ *sql.Tx, q *model.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *q
	r.s.questions[q.ID] = &cp
	r.s.writes++
	return nil
}

func (r memQuestionRepo) FindByID(_ context.Context, id string) (*model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := r.load(q)
	return &cp, nil
}

func (r memQuestionRepo) LockForUpdate(_ context.Context, _ *sql.Tx, id string) (voting.QuestionState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return voting.QuestionState{}, common.ErrNotFound
	}
	return voting.QuestionState{ID: q.ID, AuthorID: q.AuthorID, SolvedBy: q.SolvedBy}, nil
}

func (r memQuestionRepo) List(_ context.Context, f model.QuestionFilter) ([]model.Question, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Question{}
	for _, q := range r.s.questions {
		if f.Tag != "" && !containsString(q.Tags, f.Tag) {
			continue
		}
		if f.Category != "" && q.Category != f.Category {
			continue
		}
		out = append(out, r.load(q))
	}
	total := len(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r memQuestionRepo) ListByAuthor(_ context.Context, authorID string) ([]model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Question{}
	for _, q := range r.s.questions {
		if q.AuthorID == authorID {
			out = append(out, r.load(q))
		}
	}
	return out, nil
}

func (r memQuestionRepo) Update(_ context.Context, _ *sql.Tx, q *model.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.questions[q.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *q
	r.s.questions[q.ID] = &cp
	r.s.writes++
	return nil
}

func (r memQuestionRepo) IncrementViews(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	q.Views++
	return q.Views, nil
}

func (r memQuestionRepo) MarkSolved(_ context.Context, _ *sql.Tx, questionID, answerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[questionID]
	if !ok {
		return common.ErrNotFound
	}
	id := answerID
	q.IsSolved, q.SolvedBy = true, &id
	r.s.writes++
	return nil
}

func (r memQuestionRepo) ClearSolved(_ context.Context, _ *sql.Tx, questionID, answerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if q, ok := r.s.questions[questionID]; ok && q.SolvedBy != nil && *q.SolvedBy == answerID {
		q.IsSolved, q.SolvedBy = false, nil
		r.s.writes++
	}
	return nil
}

func (r memQuestionRepo) Delete(_ context.Context, _ *sql.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.questions[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.questions, id)
	for aid, a := range r.s.answers {
		if a.QuestionID == id {
			delete(r.s.answers, aid)
		}
	}
	r.s.writes++
	return nil
}

func (r memQuestionRepo) Search(_ context.Context, f model.SearchFilter) ([]model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Question{}
	term := strings.ToLower(f.Query)
	for _, q := range r.s.questions {
		if strings.Contains(strings.ToLower(q.Title+" "+q.Content), term) {
			out = append(out, r.load(q))
		}
	}
	return out, nil
}

// answers

type memAnswerRepo struct{ s *memStore }

var _ repository.AnswerRepository = memAnswerRepo{}

func (r memAnswerRepo) load(a *model.Answer) model.Answer {
	cp := *a
	cp.Upvotes, cp.Downvotes = r.s.voteSets(voting.TargetAnswer, a.ID)
	cp.Comments = append([]model.Comment{}, a.Comments...)
	if u, ok := r.s.users[a.AuthorID]; ok {
		sum := u.Summary()
		cp.Author = &sum
	}
	for i := range cp.Comments {
		if u, ok := r.s.users[cp.Comments[i].AuthorID]; ok {
			sum := u.Summary()
			cp.Comments[i].Author = &sum
		}
	}
	return cp
}

func (r memAnswerRepo) Create(_ context.Context, _ *sql.Tx, a *model.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	r.s.answers[a.ID] = &cp
	r.s.writes++
	return nil
}

func (r memAnswerRepo) FindByID(_ context.Context, id string) (*model.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.answers[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := r.load(a)
	return &cp, nil
}

func (r memAnswerRepo) LockForUpdate(_ context.Context, _ *sql.Tx, id string) (voting.AnswerState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.answers[id]
	if !ok {
		return voting.AnswerState{}, common.ErrNotFound
	}
	return voting.AnswerState{ID: a.ID, QuestionID: a.QuestionID, AuthorID: a.AuthorID, IsAccepted: a.IsAccepted}, nil
}

func (r memAnswerRepo) list(match func(a *model.Answer) bool) []model.Answer {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Answer{}
	for _, a := range r.s.answers {
		if match(a) {
			out = append(out, r.load(a))
		}
	}
	return out
}

func (r memAnswerRepo) ListByQuestion(_ context.Context, questionID string, _ bool) ([]model.Answer, error) {
	return r.list(func(a *model.Answer) bool { return a.QuestionID == questionID }), nil
}

func (r memAnswerRepo) ListByAuthor(_ context.Context, authorID string) ([]model.Answer, error) {
	return r.list(func(a *model.Answer) bool { return a.AuthorID == authorID }), nil
}

func (r memAnswerRepo) UpdateContent(_ context.Context, _ *sql.Tx, a *model.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.answers[a.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Content = a.Content
	r.s.writes++
	return nil
}

func (r memAnswerRepo) SetAccepted(_ context.Context, _ *sql.Tx, id string, accepted bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.answers[id]
	if !ok {
		return common.ErrNotFound
	}
	a.IsAccepted = accepted
	r.s.writes++
	return nil
}

func (r memAnswerRepo) Delete(_ context.Context, _ *sql.Tx, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.answers[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.answers, id)
	r.s.writes++
	return nil
}

func (r memAnswerRepo) AddComment(_ context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.answers[c.AnswerID]
	if !ok {
		return common.ErrNotFound
	}
	a.Comments = append(a.Comments, *c)
	r.s.writes++
	return nil
}

func (r memAnswerRepo) Search(_ context.Context, term string, _ int) ([]model.Answer, error) {
	term = strings.ToLower(term)
	return r.list(func(a *model.Answer) bool { return strings.Contains(strings.ToLower(a.Content), term) }), nil
}

// votes

type memVoteRepo struct{ s *memStore }

var _ repository.VoteRepository = memVoteRepo{}

func (r memVoteRepo) Load(_ context.Context, _ *sql.Tx, target voting.Target, id string) ([]string, []string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	up, down := r.s.voteSets(target, id)
	return up, down, nil
}

func (r memVoteRepo) Set(_ context.Context, _ *sql.Tx, target voting.Target, id, userID string, dir voting.Direction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := voteKey(target, id)
	kept := []vote{}
	for _, v := range r.s.votes[key] {
		if v.userID != userID {
			kept = append(kept, v)
		}
	}
	if dir != voting.None {
		kept = append(kept, vote{userID: userID, dir: dir})
	}
	r.s.votes[key] = kept
	r.s.writes++
	return nil
}

// side effects

type fakeNotifier struct {
	mu   sync.Mutex
	jobs []model.NotificationJob
}

func (f *fakeNotifier) Dispatch(_ context.Context, job model.NotificationJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type publishedEvent struct {
	questionID string
	event      string
	payload    interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, questionID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{questionID: questionID, event: event, payload: payload})
	return nil
}

type fakeRecorder struct{ results []string }

func (f *fakeRecorder) RecordVote(target, direction, result string) {
	f.results = append(f.results, target+"/"+direction+"/"+result)
}

// newTxDB returns a sqlmock database for services that open transactions.
// The repositories above ignore the *sql.Tx they are handed.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func containsString(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}

// tags

type tagRepoStub struct {
	store     *memStore
	tags      map[string]*model.Tag
	followers map[string][]string
}

var _ repository.TagRepository = (*tagRepoStub)(nil)

func (r *tagRepoStub) init() {
	if r.tags == nil {
		r.tags = map[string]*model.Tag{}
		r.followers = map[string][]string{}
	}
}

func (r *tagRepoStub) Ensure(_ context.Context, _ *sql.Tx, names []string) error {
	r.init()
	for _, n := range names {
		if _, ok := r.tags[n]; !ok {
			r.tags[n] = &model.Tag{Name: n}
		}
	}
	return nil
}

func (r *tagRepoStub) List(_ context.Context) ([]model.Tag, error) {
	r.init()
	out := []model.Tag{}
	for _, t := range r.tags {
		cp := *t
		cp.FollowersCount = len(r.followers[t.Name])
		out = append(out, cp)
	}
	return out, nil
}

func (r *tagRepoStub) FindByName(_ context.Context, name string) (*model.Tag, error) {
	r.init()
	t, ok := r.tags[name]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	cp.FollowersCount = len(r.followers[name])
	cp.Followers = []model.UserSummary{}
	for _, id := range r.followers[name] {
		cp.Followers = append(cp.Followers, model.UserSummary{ID: id})
	}
	return &cp, nil
}

func (r *tagRepoStub) Follow(_ context.Context, name, userID string) error {
	r.init()
	if !containsString(r.followers[name], userID) {
		r.followers[name] = append(r.followers[name], userID)
	}
	return nil
}

func (r *tagRepoStub) Unfollow(_ context.Context, name, userID string) error {
	r.init()
	kept := []string{}
	for _, id := range r.followers[name] {
		if id != userID {
			kept = append(kept, id)
		}
	}
	r.followers[name] = kept
	return nil
}
