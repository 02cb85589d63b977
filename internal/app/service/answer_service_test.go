package service

import (
	"context"
	"testing"

	"kaab_hub/internal/common"
	"kaab_hub/internal/domain/model"
	"kaab_hub/internal/platform/realtime"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerFixture struct {
	store     *memStore
	mock      sqlmock.Sqlmock
	notifier  *fakeNotifier
	publisher *fakePublisher
	svc       *AnswerService
}

func newAnswerFixture(t *testing.T) *answerFixture {
	db, mock := newTxDB(t)
	f := &answerFixture{store: newMemStore(), mock: mock, notifier: &fakeNotifier{}, publisher: &fakePublisher{}}
	f.svc = NewAnswerService(db, memAnswerRepo{f.store}, memQuestionRepo{f.store}, f.notifier, f.publisher, nil)
	return f
}

func TestAnswerCreate_NotifiesQuestionAuthor(t *testing.T) {
	f := newAnswerFixture(t)
	asker := f.store.addUser("asker", "Asker")
	helper := f.store.addUser("helper", "Helper")
	f.store.addQuestion("q1", asker.ID)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, helper, "q1", "Use a map")
	require.NoError(t, err)
	assert.Equal(t, "q1", a.QuestionID)
	require.NotNil(t, a.Author)
	assert.Equal(t, "Helper", a.Author.Name)

	require.Len(t, f.notifier.jobs, 1)
	job := f.notifier.jobs[0]
	assert.Equal(t, model.NotificationAnswer, job.Type)
	assert.Equal(t, "asker", job.RecipientID)
	assert.Equal(t, "Helper", job.ActorName)
	assert.Equal(t, a.ID, job.AnswerID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, realtime.EventAnswer, f.publisher.events[0].event)
	assert.Equal(t, "q1", f.publisher.events[0].questionID)

	// Answering your own question is published but not notified.
	_, err = f.svc.Create(ctx, asker, "q1", "Never mind, solved it")
	require.NoError(t, err)
	assert.Len(t, f.notifier.jobs, 1)
	assert.Len(t, f.publisher.events, 2)
}

func TestAnswerCreate_Errors(t *testing.T) {
	f := newAnswerFixture(t)
	u := f.store.addUser("u1", "U")
	f.store.addQuestion("q1", u.ID)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, u, "missing", "text")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.Create(ctx, u, "q1", "   ")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, f.store.answers)
}

func TestAnswerUpdate_AuthorOnly(t *testing.T) {
	f := newAnswerFixture(t)
	f.store.addQuestion("q1", "asker")
	f.store.addAnswer("a1", "q1", "helper")
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "asker", "a1", "changed")
	assert.ErrorIs(t, err, common.ErrForbidden)

	a, err := f.svc.Update(ctx, "helper", "a1", "changed")
	require.NoError(t, err)
	assert.Equal(t, "changed", a.Content)
	assert.Equal(t, "changed", f.store.answers["a1"].Content)
}

func TestAnswerDelete_ReopensQuestion(t *testing.T) {
	f := newAnswerFixture(t)
	helper := f.store.addUser("helper", "Helper")
	stranger := f.store.addUser("stranger", "Stranger")
	q := f.store.addQuestion("q1", "asker")
	a := f.store.addAnswer("a1", "q1", helper.ID)
	a.IsAccepted = true
	solved := "a1"
	q.IsSolved, q.SolvedBy = true, &solved
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Delete(ctx, stranger, "a1"), common.ErrForbidden)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	require.NoError(t, f.svc.Delete(ctx, helper, "a1"))
	assert.NotContains(t, f.store.answers, "a1")
	assert.False(t, f.store.questions["q1"].IsSolved)
	assert.Nil(t, f.store.questions["q1"].SolvedBy)
}

func TestAnswerAddComment(t *testing.T) {
	f := newAnswerFixture(t)
	u := f.store.addUser("u1", "U")
	f.store.addQuestion("q1", u.ID)
	f.store.addAnswer("a1", "q1", u.ID)
	ctx := context.Background()

	a, err := f.svc.AddComment(ctx, u, "a1", " Nice ")
	require.NoError(t, err)
	require.Len(t, a.Comments, 1)
	assert.Equal(t, "Nice", a.Comments[0].Content)

	_, err = f.svc.AddComment(ctx, u, "nope", "x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAnswerListByQuestion(t *testing.T) {
	f := newAnswerFixture(t)
	f.store.addQuestion("q1", "u1")
	f.store.addAnswer("a1", "q1", "u2")
	f.store.addAnswer("a2", "q1", "u3")

	answers, err := f.svc.ListByQuestion(context.Background(), "q1")
	require.NoError(t, err)
	assert.Len(t, answers, 2)

	_, err = f.svc.ListByQuestion(context.Background(), "q9")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func mentionJobs(jobs []model.NotificationJob) []string {
	var out []string
	for _, j := range jobs {
		if j.Type == model.NotificationMention {
			out = append(out, j.RecipientID)
		}
	}
	return out
}

func TestAnswerCreate_NotifiesMentionedParticipants(t *testing.T) {
	f := newAnswerFixture(t)
	asker := f.store.addUser("asker", "Asker")
	amina := f.store.addUser("amina", "Amina Yusuf")
	helper := f.store.addUser("helper", "Helper")
	f.store.users["outsider"] = model.NewUser("outsider", "Omar", "omar@example.com", "", "", "", nil)
	f.store.addQuestion("q1", asker.ID)
	f.store.addAnswer("a1", "q1", amina.ID)

	_, err := f.svc.Create(context.Background(), helper, "q1",
		"Agree with @AminaYusuf. @asker see above, @omar too. Mail me at helper@example.com")
	require.NoError(t, err)

	// The asker already gets the answer notice and Omar is not in the thread.
	assert.Equal(t, []string{"amina"}, mentionJobs(f.notifier.jobs))
	for _, j := range f.notifier.jobs {
		if j.Type == model.NotificationMention {
			assert.Equal(t, "q1", j.QuestionID)
			assert.Equal(t, "Helper", j.ActorName)
		}
	}
}

func TestAnswerAddComment_NotifiesMentions(t *testing.T) {
	f := newAnswerFixture(t)
	asker := f.store.addUser("asker", "Asker")
	helper := f.store.addUser("helper", "Helper")
	f.store.addQuestion("q1", asker.ID)
	f.store.addAnswer("a1", "q1", helper.ID)
	ctx := context.Background()

	_, err := f.svc.AddComment(ctx, asker, "a1", "@helper thanks! (cc @asker)")
	require.NoError(t, err)
	require.Equal(t, []string{"helper"}, mentionJobs(f.notifier.jobs))
	assert.Equal(t, "a1", f.notifier.jobs[0].AnswerID)

	// Ambiguous handles are skipped.
	f.store.addUser("twin1", "Sam")
	f.store.addUser("twin2", "Sam")
	f.store.addAnswer("a2", "q1", "twin1")
	f.store.addAnswer("a3", "q1", "twin2")
	_, err = f.svc.AddComment(ctx, asker, "a1", "@sam which one of you?")
	require.NoError(t, err)
	assert.Len(t, mentionJobs(f.notifier.jobs), 1)
}
