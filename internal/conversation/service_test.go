package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"rehearse-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type countingGenerator struct {
	calls  atomic.Int32
	report Report
	err    error
}

func (c *countingGenerator) Generate(ctx context.Context, messages []database.Message) (Report, error) {
	c.calls.Add(1)
	return c.report, c.err
}

func TestCloseConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	gen := &countingGenerator{report: Report{Content: "great job", Items: []database.FeedbackItem{{MessageID: 1, AgentMessage: "hi", Feedback: "ok"}}}}
	service := NewService(db, gen)

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)
	require.NoError(t, service.AddMessage(ctx, id, database.SenderAgent, "hi"))

	first, err := service.CloseConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "great job", first.Feedback)
	assert.False(t, first.Existing)

	second, err := service.CloseConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Feedback, second.Feedback)
	assert.True(t, second.Existing)
	assert.Equal(t, first.Items, second.Items)

	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestCloseConversationNotFound(t *testing.T) {
	db := createDB(t)
	gen := &countingGenerator{report: Report{Content: "x"}}
	service := NewService(db, gen)

	_, err := service.CloseConversation(context.Background(), 999)
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, int32(0), gen.calls.Load())

	var count int64
	require.NoError(t, db.Model(&database.Feedback{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCloseConversationUpstreamErrorStoresNothing(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	gen := &countingGenerator{err: ErrUpstream}
	service := NewService(db, gen)

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)

	_, err = service.CloseConversation(ctx, id)
	assert.ErrorIs(t, err, ErrUpstream)

	feedback, err := database.GetFeedback(ctx, db, id)
	require.NoError(t, err)
	assert.Nil(t, feedback)

	// A later close retries generation.
	gen.err = nil
	gen.report = Report{Content: "recovered"}
	result, err := service.CloseConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Feedback)
}

func TestCloseConversationConcurrent(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	gen := &countingGenerator{report: Report{Content: "only once"}}
	service := NewService(db, gen)

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := service.CloseConversation(ctx, id)
			assert.NoError(t, err)
			results[i] = result.Feedback
		}(i)
	}
	wg.Wait()

	for _, feedback := range results {
		assert.Equal(t, "only once", feedback)
	}
	assert.Equal(t, int32(1), gen.calls.Load())

	var count int64
	require.NoError(t, db.Model(&database.Feedback{}).Where("conversation_id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// racingGenerator stores feedback for the conversation while generating, the way
// a second server process closing the same conversation would.
type racingGenerator struct {
	db             *gorm.DB
	conversationID uint
}

func (r *racingGenerator) Generate(ctx context.Context, messages []database.Message) (Report, error) {
	err := database.SaveFeedback(ctx, r.db, &database.Feedback{ConversationID: r.conversationID, Content: "stored elsewhere"})
	return Report{Content: "generated here"}, err
}

func TestCloseConversationLosesRaceToOtherProcess(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	gen := &racingGenerator{db: db}
	service := NewService(db, gen)

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)
	gen.conversationID = id

	result, err := service.CloseConversation(ctx, id)
	require.NoError(t, err)
	assert.True(t, result.Existing)
	assert.Equal(t, "stored elsewhere", result.Feedback)

	var count int64
	require.NoError(t, db.Model(&database.Feedback{}).Where("conversation_id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEndToEndFeedback(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	profile, err := LoadProfile(ProfileBilingual, "")
	require.NoError(t, err)
	model := &fakeLLM{respond: scriptedFeedback}
	service := NewService(db, NewGenerator(model, nil, FeedbackOptions{Profile: profile, Concurrency: 2}))

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)
	require.NoError(t, service.AddMessage(ctx, id, database.SenderAgent, "Hello"))

	result, err := service.CloseConversation(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Feedback)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Hello", result.Items[0].AgentMessage)

	stored, err := database.GetFeedback(ctx, db, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, stored.ConversationID)
	assert.Equal(t, result.Feedback, stored.Content)

	var items []database.FeedbackItem
	require.NoError(t, json.Unmarshal(stored.Items, &items))
	assert.Equal(t, result.Items, items)
}

func TestCloseConversationWithoutMessages(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	profile, err := LoadProfile(ProfileBilingual, "")
	require.NoError(t, err)
	model := &fakeLLM{respond: scriptedFeedback}
	service := NewService(db, NewGenerator(model, nil, FeedbackOptions{Profile: profile}))

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)

	result, err := service.CloseConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, MissingConversationFeedback, result.Feedback)
	assert.Equal(t, 0, model.calls())
}

func TestPastConversations(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)

	gen := &countingGenerator{report: Report{Content: "done"}}
	service := NewService(db, gen)

	first, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)
	require.NoError(t, service.AddMessage(ctx, first, database.SenderAgent, "Namaste"))
	require.NoError(t, service.AddMessage(ctx, first, database.SenderCustomer, "Haan ji"))
	_, err = service.CloseConversation(ctx, first)
	require.NoError(t, err)

	second, err := service.StartConversation(ctx, user.ID, "Meera")
	require.NoError(t, err)

	past, err := service.PastConversations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, past, 2)

	assert.Equal(t, first, past[0].ID)
	assert.Equal(t, "Ravi Sharma", past[0].Persona)
	assert.Equal(t, "done", past[0].Feedback)
	require.Len(t, past[0].Messages, 2)
	assert.Equal(t, "Namaste", past[0].Messages[0].Content)
	assert.Equal(t, database.SenderCustomer, past[0].Messages[1].Sender)

	assert.Equal(t, second, past[1].ID)
	assert.Equal(t, NoFeedbackAvailable, past[1].Feedback)
	assert.Empty(t, past[1].Messages)

	other, err := service.PastConversations(ctx, user.ID+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCheckOwner(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)
	user := createUser(t, db)
	service := NewService(db, &countingGenerator{})

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)

	assert.NoError(t, service.CheckOwner(ctx, id, user.ID))
	assert.ErrorIs(t, service.CheckOwner(ctx, id, user.ID+1), ErrConversationNotFound)
	assert.ErrorIs(t, service.CheckOwner(ctx, id+100, user.ID), ErrConversationNotFound)
}
