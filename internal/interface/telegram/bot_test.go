package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcourse/course-watch/internal/application/command"
	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/infrastructure/external/telegram"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/coursestore"
)

const ownerID = 1001

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeAPI struct {
	mu      sync.Mutex
	updates []telegram.Update
	sent    []sentMessage
}

func (f *fakeAPI) GetMe(context.Context) (*telegram.User, error) {
	return &telegram.User{ID: 1, IsBot: true, Username: "course_bot"}, nil
}

func (f *fakeAPI) SendHTML(_ context.Context, chatID int64, html string) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: html})
	return &telegram.Message{}, nil
}

func (f *fakeAPI) StartPolling(ctx context.Context, h telegram.UpdateHandler) error {
	for i := range f.updates {
		h(ctx, &f.updates[i])
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeTerms struct{}

var winter23 = course.Term{Code: "1231", Name: "W23"}

func (fakeTerms) TermWithName(_ context.Context, name string) (course.Term, error) {
	if winter23.MatchesName(name) {
		return winter23, nil
	}
	return course.Term{}, course.ErrTermNotFound
}

func (fakeTerms) DefaultTerm(context.Context) (course.Term, error) { return winter23, nil }

type fakeSource map[string]course.Sections

func (f fakeSource) Sections(_ context.Context, termCode, courseCode string) (course.Sections, error) {
	if ss, ok := f[termCode+"/"+courseCode]; ok {
		return ss.Clone(), nil
	}
	return nil, course.ErrNoSchedules
}

func message(updateID, from int64, text string) telegram.Update {
	msg := &telegram.Message{
		MessageID: updateID,
		From:      &telegram.User{ID: from},
		Chat:      &telegram.Chat{ID: from},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		n := len(text)
		for i, r := range text {
			if r == ' ' {
				n = i
				break
			}
		}
		msg.Entities = []telegram.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return telegram.Update{UpdateID: updateID, Message: msg}
}

func newTestBot(t *testing.T, api *fakeAPI) *Bot {
	t.Helper()
	store := coursestore.New(coursestore.NewMemoryBackend(), coursestore.Config{})
	require.NoError(t, store.Init(context.Background()))

	source := fakeSource{"1231/MATH 237": {{SectionName: "LEC 001", Enrolled: 75, Capacity: 90}}}
	deps := BotDependencies{
		AddCourse:    command.NewAddCourseHandler(store, fakeTerms{}, source, nil),
		RemoveCourse: command.NewRemoveCourseHandler(store, fakeTerms{}, nil),
		ListCourses:  command.NewListCoursesHandler(store),
		ClearCourses: command.NewClearCoursesHandler(store, nil),
	}

	cfg := DefaultBotConfig(ownerID)
	cfg.MaxConcurrentUpdates = 1
	bot, err := NewBot(api, cfg, deps)
	require.NoError(t, err)
	return bot
}

func runBot(t *testing.T, bot *Bot, api *fakeAPI, wantReplies int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Start(ctx) }()

	assert.Eventually(t, func() bool { return len(api.texts()) >= wantReplies }, 2*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestBot_CommandConversation(t *testing.T) {
	api := &fakeAPI{updates: []telegram.Update{
		message(1, ownerID, "/start"),
		message(2, ownerID, "/list"),
		message(3, ownerID, "/add"),
		message(4, ownerID, "/add W23 MATH 237"),
		message(5, ownerID, "/add math237"),
		message(6, ownerID, "/add W23 PHIL 999"),
		message(7, ownerID, "/list"),
		message(8, ownerID, "/remove X99 MATH 237"),
		message(9, ownerID, "/remove MATH 237"),
		message(10, ownerID, "/remove MATH 237"),
		message(11, ownerID, "/clear"),
	}}
	bot := newTestBot(t, api)

	runBot(t, bot, api, 11)

	assert.Equal(t, []string{
		"Hi there!",
		"Course list is empty!",
		"Usage example: /add W23 MATH 237",
		"W23 MATH 237 added to list!",
		"W23 MATH 237 is already in list!",
		"W23 PHIL 999 has no schedules.",
		"<b>W23 MATH 237</b>\nLEC 001 75/90",
		"Usage example: /remove W23 MATH 237",
		"Removed W23 MATH 237 from list.",
		"W23 MATH 237 is not in list!",
		"List cleared!",
	}, api.texts())
	assert.False(t, bot.IsRunning())
}

func TestBot_IgnoresStrangersAndUnknownCommands(t *testing.T) {
	api := &fakeAPI{updates: []telegram.Update{
		message(1, 42, "/start"),
		message(2, ownerID, "/frobnicate"),
		message(3, ownerID, "just chatting"),
		message(4, ownerID, "/help"),
	}}
	bot := newTestBot(t, api)

	runBot(t, bot, api, 1)

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "<code>/list</code>")
	assert.Equal(t, int64(1), bot.Stats()["rejected"])
}

func TestNewBot_RequiresOwner(t *testing.T) {
	_, err := NewBot(&fakeAPI{}, BotConfig{}, BotDependencies{})
	assert.Error(t, err)
}
