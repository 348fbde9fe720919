package integrationtests

import (
	"context"
	"sync"
	"testing"
	"time"

	"rehearse-backend/internal/conversation"
	"rehearse-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type onceFeedback struct {
	mu    sync.Mutex
	calls int
}

func (f *onceFeedback) Generate(ctx context.Context, messages []database.Message) (conversation.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return conversation.Report{Content: "Overall Feedback:\nbahut accha"}, nil
}

func TestConversationLifecycleOnPostgres(t *testing.T) {
	requireDocker(t)
	ctx := context.Background()
	db := createDB(t)

	user := database.User{Username: "agent", Email: "agent@example.com", PasswordHash: "x"}
	require.NoError(t, database.CreateUser(ctx, db, &user))

	feedback := &onceFeedback{}
	service := conversation.NewService(db, feedback)

	id, err := service.StartConversation(ctx, user.ID, "Ravi Sharma")
	require.NoError(t, err)
	require.NoError(t, service.AddMessage(ctx, id, database.SenderAgent, "Namaste"))
	require.NoError(t, service.AddMessage(ctx, id, database.SenderCustomer, "Haan ji"))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := service.CloseConversation(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, "Overall Feedback:\nbahut accha", result.Feedback)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, feedback.calls)

	past, err := service.PastConversations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Len(t, past[0].Messages, 2)
	assert.Equal(t, "Overall Feedback:\nbahut accha", past[0].Feedback)

	_, err = service.CloseConversation(ctx, id+100)
	assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
}

func TestProductUserwiseReportOnPostgres(t *testing.T) {
	requireDocker(t)
	ctx := context.Background()
	db := createDB(t)

	user := database.User{Username: "agent", Email: "agent@example.com", PasswordHash: "x"}
	require.NoError(t, database.CreateUser(ctx, db, &user))
	product := database.Product{Name: "Child Plan"}
	require.NoError(t, db.Create(&product).Error)

	require.NoError(t, db.Create(&database.ReferFeedback{
		UserID: user.ID, ProductID: product.ID, Score: 6, Category: "objections",
		Timestamp: time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC),
	}).Error)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	rows, err := database.ProductUserwiseReport(ctx, db, &start, &end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Child Plan", rows[0].ProductName)
	assert.Equal(t, 6, rows[0].Score)
}
