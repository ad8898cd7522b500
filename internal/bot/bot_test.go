package bot

import (
	"context"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/board"
	"github.com/maxaizer/jobboard-bot/internal/clients/jobboard"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"github.com/maxaizer/jobboard-bot/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
	"time"
)

const testChatID int64 = 42

var testJobs = []models.Job{
	{ID: 1, Title: "Backend Engineer", Company: "Acme", Location: "Berlin", JobType: "Full-time",
		Tags: models.Tags{"go", "remote"}, PostingDate: "2024-05-01"},
	{ID: 2, Title: "Data Analyst", Company: "Globex", Location: "Paris", JobType: "Contract",
		PostingDate: "2024-04-20"},
}

type mockApi struct {
	mu           sync.Mutex
	SentMessages []botApi.Chattable
}

func (m *mockApi) Send(chattable botApi.Chattable) (botApi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, chattable)
	return botApi.Message{}, nil
}

func (m *mockApi) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, 0, len(m.SentMessages))
	for _, chattable := range m.SentMessages {
		if msg, ok := chattable.(botApi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (m *mockApi) LastText() string {
	texts := m.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type mockJobsClient struct {
	mu        sync.Mutex
	jobs      []models.Job
	listErr   error
	createErr error
	deleteErr error
	listGate  chan struct{}
	listCalls []jobboard.ListParameters
	created   []models.Job
	updated   []models.Job
	deleted   []int
}

func (m *mockJobsClient) ListJobs(_ context.Context, params jobboard.ListParameters) ([]models.Job, error) {
	m.mu.Lock()
	gate := m.listGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls = append(m.listCalls, params)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.Job(nil), m.jobs...), nil
}

func (m *mockJobsClient) CreateJob(_ context.Context, job models.Job) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return models.Job{}, m.createErr
	}
	job.ID = 10 + len(m.created)
	m.created = append(m.created, job)
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *mockJobsClient) UpdateJob(_ context.Context, job models.Job) (models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, job)
	return job, nil
}

func (m *mockJobsClient) DeleteJob(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockJobsClient) Created() []models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Job(nil), m.created...)
}

func (m *mockJobsClient) Deleted() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.deleted...)
}

func (m *mockJobsClient) SetCreateErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

func (m *mockJobsClient) LastListCall() jobboard.ListParameters {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.listCalls) == 0 {
		return jobboard.ListParameters{}
	}
	return m.listCalls[len(m.listCalls)-1]
}

func newTestBot(t *testing.T, client *mockJobsClient) (*Bot, *mockApi) {
	t.Helper()

	api := &mockApi{}
	bus := EventBus.New()
	factory := func(sessionID string) (*board.Board, error) {
		return board.NewBoard(sessionID, client, bus)
	}

	createdBot, err := newBot(api, bus, factory, time.Minute)
	require.NoError(t, err)
	return createdBot, api
}

func textMessage(text string) *botApi.Message {
	return chatMessage(testChatID, text)
}

func chatMessage(chatID int64, text string) *botApi.Message {
	msg := &botApi.Message{
		Chat: &botApi.Chat{ID: chatID, Type: "private"},
		Text: text,
	}
	if !strings.HasPrefix(text, "/") {
		return msg
	}
	length := len(text)
	if i := strings.Index(text, " "); i >= 0 {
		length = i
	}
	msg.Entities = []botApi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return msg
}

func commandMessage(command string) *botApi.Message {
	msg := textMessage(command)
	length := len(command)
	if i := strings.Index(command, " "); i >= 0 {
		length = i
	}
	msg.Entities = []botApi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	return msg
}

func send(b *Bot, inputs ...string) {
	for _, input := range inputs {
		if strings.HasPrefix(input, "/") {
			b.handleMessage(commandMessage(input))
		} else {
			b.handleMessage(textMessage(input))
		}
		b.bus.WaitAsync()
	}
}

func sendFrom(b *Bot, chatID int64, inputs ...string) {
	for _, input := range inputs {
		b.handleMessage(chatMessage(chatID, input))
	}
}

func Test_NewBot_RejectsMissingDependencies(t *testing.T) {
	bus := EventBus.New()
	factory := func(string) (*board.Board, error) { return nil, nil }

	_, err := newBot(nil, bus, factory, time.Minute)
	assert.Error(t, err)

	_, err = newBot(&mockApi{}, nil, factory, time.Minute)
	assert.Error(t, err)

	_, err = newBot(&mockApi{}, bus, nil, time.Minute)
	assert.Error(t, err)

	_, err = newBot(&mockApi{}, bus, factory, 0)
	assert.Error(t, err)
}

func Test_ListCommand_RendersJobs(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, listCommandName)

	text := api.LastText()
	assert.Contains(t, text, "Filters: no filters")
	assert.Contains(t, text, "Backend Engineer")
	assert.Contains(t, text, "Tags: go, remote")
	assert.Contains(t, text, "/edit_2   /delete_2")
}

func Test_ListCommand_FetchErrorIsShown(t *testing.T) {
	client := &mockJobsClient{listErr: errors.New("connection refused")}
	b, api := newTestBot(t, client)

	send(b, "/list")

	assert.Contains(t, api.LastText(), board.MessageFetchFailed)
}

func Test_ListCommand_EmptyResult(t *testing.T) {
	b, api := newTestBot(t, &mockJobsClient{})

	send(b, listCommandName)

	assert.Contains(t, api.LastText(), board.MessageNoJobs)
}

func Test_FilterCommand_MergesEnteredValues(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, listCommandName, filterCommandName, "Full-time", "-", "go, remote", "-")

	params := client.LastListCall()
	// the last call rebuilds suggestions from the whole collection
	assert.Empty(t, params.JobType)

	s, err := b.session(testChatID)
	require.NoError(t, err)
	filters := s.board.State().Filters
	assert.Equal(t, "Full-time", filters.JobType)
	assert.Empty(t, filters.Location)
	assert.Equal(t, []string{"go", "remote"}, filters.Tags)
	assert.Contains(t, api.LastText(), "Filters: type: Full-time; tags: go, remote")
	assert.False(t, s.HasRunningCommand())
}

func Test_SortCommand_ValidatesOption(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, sortCommandName, "by salary")
	assert.Equal(t, "Choose one of the options below.", api.LastText())

	send(b, sortNewestOption)

	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.Equal(t, models.SortNewestFirst, s.board.State().Filters.Sort)
	assert.Equal(t, models.SortNewestFirst, client.LastListCall().Sort)
}

func Test_ResetCommand_ClearsFilters(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, filterCommandName, "Contract", "-", "-", "-", resetCommandName)

	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.True(t, s.board.State().Filters.IsEmpty())
	assert.Contains(t, api.LastText(), "Filters: no filters")
}

func Test_AddJob_CreatesAndRefreshes(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, addJobCommandName, "Go Developer", "Initech", "Remote", "Full-time", "go, grpc", "2024-06-01")

	require.Len(t, client.Created(), 1)
	created := client.Created()[0]
	assert.Equal(t, "Go Developer", created.Title)
	assert.Equal(t, models.Tags{"go", "grpc"}, created.Tags)
	assert.Equal(t, "2024-06-01", created.PostingDate)

	text := api.LastText()
	assert.True(t, strings.HasPrefix(text, "Job saved."))
	assert.Contains(t, text, "Go Developer")

	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.False(t, s.HasRunningCommand())
}

func Test_AddJob_MissingFieldKeepsFormOpen(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, addJobCommandName, "Go Developer", "-", "Remote", "Full-time", "-", "2024-06-01")

	assert.Empty(t, client.Created())
	texts := api.Texts()
	assert.Contains(t, texts, board.MessageFieldsRequired)
	assert.Contains(t, api.LastText(), "Enter the job company.")

	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.True(t, s.HasRunningCommand())

	send(b, "Initech")

	created := client.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "Initech", created[0].Company)
	assert.Equal(t, "Remote", created[0].Location)
	assert.Equal(t, "2024-06-01", created[0].PostingDate)
	assert.False(t, s.HasRunningCommand())
}

func Test_AddJob_OnlyMissingFieldsAreAskedAgain(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, addJobCommandName, "-", "Initech", "-", "Full-time", "-", "2024-06-01")
	assert.Contains(t, api.LastText(), "Enter the job title.")

	send(b, "Go Developer")
	assert.Contains(t, api.LastText(), "Enter the job location.")

	send(b, "Remote")

	created := client.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "Go Developer", created[0].Title)
	assert.Equal(t, "Remote", created[0].Location)
}

func Test_AddJob_BackendFailureKeepsEnteredValues(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs, createErr: errors.New("500 Internal Server Error")}
	b, api := newTestBot(t, client)

	send(b, addJobCommandName, "Go Developer", "Initech", "Remote", "Full-time", "go", "2024-06-01")

	assert.Contains(t, api.Texts(), board.MessageCreateFailed)
	assert.Contains(t, api.LastText(), "Send \""+retryOption+"\" to submit again")

	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.True(t, s.HasRunningCommand())

	send(b, "later")
	assert.Equal(t, "Send \""+retryOption+"\" or \""+cancelCommandName+"\".", api.LastText())

	client.SetCreateErr(nil)
	send(b, retryOption)

	created := client.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "Go Developer", created[0].Title)
	assert.Equal(t, models.Tags{"go"}, created[0].Tags)
	assert.False(t, s.HasRunningCommand())
	assert.True(t, strings.HasPrefix(api.LastText(), "Job saved."))
}

func Test_EditJob_KeepsUntouchedFields(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, _ := newTestBot(t, client)

	send(b, listCommandName, "/edit_1", "Lead Engineer", "-", "-", "-", "-", "-")

	require.Len(t, client.updated, 1)
	updated := client.updated[0]
	assert.Equal(t, 1, updated.ID)
	assert.Equal(t, "Lead Engineer", updated.Title)
	assert.Equal(t, "Acme", updated.Company)
	assert.Equal(t, models.Tags{"go", "remote"}, updated.Tags)
	assert.Empty(t, client.created)
}

func Test_EditJob_UnknownID(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, listCommandName, "/edit_99")

	assert.Contains(t, api.LastText(), "Job #99 is not in the current list")
	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.False(t, s.HasRunningCommand())
}

func Test_DeleteJob_Confirmed(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, listCommandName, "/delete_2")
	assert.Contains(t, api.LastText(), "\"Data Analyst\"")

	send(b, "maybe")
	assert.Equal(t, "Answer \"Yes\" or \"No\".", api.LastText())

	send(b, confirmYes)
	assert.Equal(t, []int{2}, client.deleted)
	assert.True(t, strings.HasPrefix(api.LastText(), "Job deleted."))
}

func Test_DeleteJob_Declined(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, api := newTestBot(t, client)

	send(b, "/delete 1", confirmNo)

	assert.Empty(t, client.deleted)
	assert.Equal(t, "Deletion cancelled.", api.LastText())
}

func Test_DeleteJob_FailureIsReported(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs, deleteErr: errors.New("500 Internal Server Error")}
	b, api := newTestBot(t, client)

	send(b, "/delete_1", confirmYes)

	assert.Equal(t, board.MessageDeleteFailed, api.LastText())
	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.False(t, s.HasRunningCommand())
}

func Test_CancelStopsRunningCommand(t *testing.T) {
	b, api := newTestBot(t, &mockJobsClient{jobs: testJobs})

	send(b, addJobCommandName, "Go Developer", cancelCommandName)

	s, err := b.session(testChatID)
	require.NoError(t, err)
	assert.False(t, s.HasRunningCommand())
	assert.Equal(t, "Back to the main menu.", api.LastText())

	send(b, "hello")
	assert.Equal(t, "Choose an action from the menu.", api.LastText())
}

func Test_UnknownCommand(t *testing.T) {
	b, api := newTestBot(t, &mockJobsClient{})

	send(b, "/salary")

	assert.Equal(t, "Unknown command!", api.LastText())
}

func Test_SessionsAreIsolated(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, _ := newTestBot(t, client)

	send(b, filterCommandName, "Contract", "-", "-", "-")

	other, err := b.session(testChatID + 1)
	require.NoError(t, err)
	assert.True(t, other.board.State().Filters.IsEmpty())
}

func Test_RefreshOfOneChatDoesNotBlockAnother(t *testing.T) {
	gate := make(chan struct{})
	client := &mockJobsClient{jobs: testJobs, listGate: gate}
	b, _ := newTestBot(t, client)

	// the refresh following this delete waits on the gate
	sendFrom(b, testChatID, "/delete_1", confirmYes)

	done := make(chan struct{})
	go func() {
		sendFrom(b, testChatID+1, "/delete_2", confirmYes)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second chat is blocked by the refresh of the first one")
	}

	close(gate)
	b.bus.WaitAsync()
	assert.ElementsMatch(t, []int{1, 2}, client.Deleted())
}

func Test_QueuedMessagesAreHandledInOrder(t *testing.T) {
	client := &mockJobsClient{jobs: testJobs}
	b, _ := newTestBot(t, client)
	defer b.Stop()

	for _, input := range []string{addJobCommandName, "Go Developer", "Initech", "Remote", "Full-time", "go",
		"2024-06-01"} {
		b.enqueueMessage(textMessage(input))
	}

	assert.Eventually(t, func() bool { return len(client.Created()) == 1 }, time.Second, 10*time.Millisecond)
	created := client.Created()[0]
	assert.Equal(t, "Go Developer", created.Title)
	assert.Equal(t, "Initech", created.Company)
	assert.Equal(t, "Remote", created.Location)
	assert.Equal(t, "2024-06-01", created.PostingDate)
}

func Test_ExpiredSessionIsReplacedOnce(t *testing.T) {
	client := &mockJobsClient{}
	bus := EventBus.New()
	factory := func(sessionID string) (*board.Board, error) {
		return board.NewBoard(sessionID, client, bus)
	}
	b, err := newBot(&mockApi{}, bus, factory, 20*time.Millisecond)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.ActiveSessions)

	first, err := b.session(testChatID)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	second, err := b.session(testChatID)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.False(t, first.Enqueue(textMessage("hello")))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ActiveSessions))
}
