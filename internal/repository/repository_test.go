package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

func TestEscapeLike(t *testing.T) {
	require.Equal(t, "alice", escapeLike("alice"))
	require.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

// Интеграционные тесты требуют живой Postgres: TEST_DATABASE_DSN=postgres://...
func newTestRepositories(t *testing.T) (*Repositories, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := logger.Nop()
	require.NoError(t, Migrate(ctx, pool, log))
	// Повторный прогон миграций не должен падать.
	require.NoError(t, Migrate(ctx, pool, log))

	_, err = pool.Exec(ctx, `TRUNCATE audit_log, messages, participants, conversations, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewRepositories(pool, nil, 5*time.Second, log), pool
}

func createTestUser(t *testing.T, repos *Repositories, name string) *domain.User {
	t.Helper()
	user := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, repos.User.Create(context.Background(), user))
	return user
}

func TestUserRepository_Integration(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()
	req := require.New(t)

	alice := createTestUser(t, repos, "alice")
	createTestUser(t, repos, "alina")
	bob := createTestUser(t, repos, "bob")

	err := repos.User.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	req.ErrorIs(err, ErrAlreadyExists)

	got, err := repos.User.GetByEmail(ctx, "ALICE@example.com")
	req.NoError(err)
	req.Equal(alice.ID, got.ID)

	_, err = repos.User.GetByID(ctx, 999999)
	req.ErrorIs(err, ErrNotFound)

	found, err := repos.User.Search(ctx, alice.ID, "ali", 20)
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("alina", found[0].Username)

	found, err = repos.User.Search(ctx, alice.ID, "%", 20)
	req.NoError(err)
	req.Empty(found)

	ids, err := repos.User.ExistingIDs(ctx, []int64{alice.ID, bob.ID, 424242})
	req.NoError(err)
	req.ElementsMatch([]int64{alice.ID, bob.ID}, ids)
}

func TestConversationRepository_DirectIsUnique(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()
	req := require.New(t)

	alice := createTestUser(t, repos, "alice")
	bob := createTestUser(t, repos, "bob")

	conv, err := repos.Conversation.CreateDirect(ctx, alice.ID, bob.ID)
	req.NoError(err)
	req.False(conv.IsGroup)

	_, err = repos.Conversation.CreateDirect(ctx, bob.ID, alice.ID)
	req.ErrorIs(err, ErrAlreadyExists)

	found, err := repos.Conversation.FindDirect(ctx, bob.ID, alice.ID)
	req.NoError(err)
	req.Equal(conv.ID, found.ID)

	members, err := repos.Participant.UsersByConversation(ctx, []int64{conv.ID})
	req.NoError(err)
	req.Len(members[conv.ID], 2)

	_, err = repos.Participant.Get(ctx, alice.ID, conv.ID)
	req.NoError(err)
}

func TestConversationRepository_Groups(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()
	req := require.New(t)

	alice := createTestUser(t, repos, "alice")
	bob := createTestUser(t, repos, "bob")
	carol := createTestUser(t, repos, "carol")

	group, err := repos.Conversation.CreateGroup(ctx, "Team", []int64{alice.ID, bob.ID})
	req.NoError(err)
	req.True(group.IsGroup)
	req.Equal("Team", *group.Name)

	_, err = repos.Conversation.CreateDirect(ctx, alice.ID, carol.ID)
	req.NoError(err)

	all, err := repos.Conversation.ListForUser(ctx, alice.ID, false)
	req.NoError(err)
	req.Len(all, 2)

	groups, err := repos.Conversation.ListForUser(ctx, alice.ID, true)
	req.NoError(err)
	req.Len(groups, 1)
	req.Equal(group.ID, groups[0].ID)

	_, err = repos.Participant.Get(ctx, carol.ID, group.ID)
	req.ErrorIs(err, ErrNotFound)
}

func TestMessageRepository_ConcurrentAppendKeepsOrder(t *testing.T) {
	repos, _ := newTestRepositories(t)
	ctx := context.Background()
	req := require.New(t)

	alice := createTestUser(t, repos, "alice")
	bob := createTestUser(t, repos, "bob")
	conv, err := repos.Conversation.CreateDirect(ctx, alice.ID, bob.ID)
	req.NoError(err)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := alice.ID
			if i%2 == 0 {
				sender = bob.ID
			}
			errs <- repos.Message.Append(ctx, &domain.Message{
				SenderID:       sender,
				ConversationID: conv.ID,
				Content:        fmt.Sprintf("message %d", i),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	messages, err := repos.Message.List(ctx, conv.ID, 0, 1000)
	req.NoError(err)
	req.Len(messages, writers)
	for i := 1; i < len(messages); i++ {
		req.Greater(messages[i].ID, messages[i-1].ID)
		req.False(messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}

	tail, err := repos.Message.List(ctx, conv.ID, 0, 5)
	req.NoError(err)
	req.Len(tail, 5)
	req.Equal(messages[writers-5].ID, tail[0].ID)
	req.Equal(messages[writers-1].ID, tail[4].ID)

	page, err := repos.Message.List(ctx, conv.ID, messages[9].ID, 5)
	req.NoError(err)
	req.Len(page, 5)
	req.Equal(messages[10].ID, page[0].ID)

	latest, err := repos.Message.LatestByConversation(ctx, []int64{conv.ID})
	req.NoError(err)
	req.Equal(messages[writers-1].ID, latest[conv.ID].ID)
}
