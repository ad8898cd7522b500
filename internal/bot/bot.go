package bot

import (
	"context"
	"github.com/asaskevich/EventBus"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/board"
	"github.com/maxaizer/jobboard-bot/internal/domain/events"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"github.com/maxaizer/jobboard-bot/internal/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

type jobBoard interface {
	State() board.State
	Refresh(ctx context.Context) board.State
	ApplyFilters(ctx context.Context, change models.FilterCriteria) board.State
	SetSort(ctx context.Context, sort models.SortOrder) board.State
	ResetFilters(ctx context.Context) board.State
	StartEdit(id int) (models.Job, error)
	CancelEdit()
	Save(ctx context.Context, job models.Job) error
	Delete(ctx context.Context, id int) error
}

// BoardFactory creates the board of a new chat session.
type BoardFactory func(sessionID string) (*board.Board, error)

type Bot struct {
	api        *botApi.BotAPI
	sender     apiInterface
	bus        EventBus.Bus
	newBoard   BoardFactory
	sessions   *gocache.Cache
	sessionsMu sync.Mutex
}

const greeting = "Job board. Browse postings with \"" + listCommandName + "\", narrow them with \"" +
	filterCommandName + "\" and \"" + sortCommandName + "\", publish one with \"" + addJobCommandName + "\"."

func NewBot(token string, bus EventBus.Bus, newBoard BoardFactory, sessionTTL time.Duration) (*Bot, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	createdBot, err := newBot(api, bus, newBoard, sessionTTL)
	if err != nil {
		return nil, err
	}
	createdBot.api = api
	return createdBot, nil
}

func newBot(sender apiInterface, bus EventBus.Bus, newBoard BoardFactory, sessionTTL time.Duration) (*Bot, error) {

	if sender == nil {
		return nil, errors.New("sender is nil")
	}

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	if newBoard == nil {
		return nil, errors.New("board factory is nil")
	}

	if sessionTTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	sessions := gocache.New(sessionTTL, sessionTTL)
	sessions.OnEvicted(func(key string, item interface{}) {
		item.(*session).Close()
		metrics.ActiveSessions.Dec()
		log.Debugf("session %v expired", key)
	})

	createdBot := &Bot{sender: sender, bus: bus, newBoard: newBoard, sessions: sessions}

	err := bus.SubscribeAsync(events.JobsChangedTopic, createdBot.onJobsChanged, false)
	if err != nil {
		return nil, err
	}
	return createdBot, nil
}

func (b *Bot) Run() {

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.api.GetUpdatesChan(updateConfig)

	for update := range updates {

		if update.Message == nil {
			continue
		}

		if !update.Message.Chat.IsPrivate() {
			continue
		}

		b.enqueueMessage(update.Message)
	}
}

func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	for _, item := range b.sessions.Items() {
		item.Object.(*session).Close()
	}
	b.sessions.Flush()
	b.bus.WaitAsync()
}

func (b *Bot) enqueueMessage(message *botApi.Message) {

	s, err := b.session(message.Chat.ID)
	if err != nil {
		b.replySessionError(message.Chat.ID, err)
		return
	}

	if !s.Enqueue(message) {
		log.Warnf("dropped message for closed session of chat %v", message.Chat.ID)
	}
}

// handleMessage processes a message synchronously on the caller's goroutine.
func (b *Bot) handleMessage(message *botApi.Message) {

	s, err := b.session(message.Chat.ID)
	if err != nil {
		b.replySessionError(message.Chat.ID, err)
		return
	}

	b.processMessage(s, message)
}

func (b *Bot) replySessionError(chatID int64, err error) {
	log.Errorf("couldn't create session for chat %v: %v", chatID, err)
	_, _ = sendWithLogError(b.sender, botApi.NewMessage(chatID, "Internal error!"))
}

func (b *Bot) processMessage(s *session, message *botApi.Message) {

	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := message.Command()
	if cmd == "" && slices.Contains(globalCommands, strings.TrimSpace(message.Text)) {
		cmd = strings.TrimSpace(message.Text)
	}

	if cmd != "" {
		b.handleCommand(s, cmd, message.CommandArguments())
	} else {
		b.handleInput(s, message.Text)
	}
}

func (b *Bot) handleCommand(s *session, command string, args string) {

	ctx := context.Background()
	name, arg := splitCommand(command, args)

	switch name {
	case "start", "help":
		s.CancelCommand()
		b.reply(s.chatID, greeting)
	case "list", listCommandName:
		s.CancelCommand()
		b.replyLong(s.chatID, renderJobList(s.board.Refresh(ctx)))
	case "filter", filterCommandName:
		s.RunCommand(newFilterCommand(b.sender, s.chatID, s.board))
	case "sort", sortCommandName:
		s.RunCommand(newSortCommand(b.sender, s.chatID, s.board))
	case "reset", resetCommandName:
		s.CancelCommand()
		b.replyLong(s.chatID, renderJobList(s.board.ResetFilters(ctx)))
	case "add", addJobCommandName:
		s.CancelCommand()
		s.RunCommand(newJobFormCommand(b.sender, s.chatID, s.board, nil))
	case "edit":
		id, ok := b.parseJobID(s.chatID, arg)
		if !ok {
			return
		}
		job, err := s.board.StartEdit(id)
		if err != nil {
			b.reply(s.chatID, "Job #"+renderID(id)+" is not in the current list. Open \""+listCommandName+"\" first.")
			return
		}
		s.RunCommand(newJobFormCommand(b.sender, s.chatID, s.board, &job))
	case "delete":
		id, ok := b.parseJobID(s.chatID, arg)
		if !ok {
			return
		}
		s.RunCommand(newDeleteJobCommand(b.sender, s.chatID, s.board, id))
	case "cancel", cancelCommandName:
		s.CancelCommand()
		b.reply(s.chatID, "Back to the main menu.")
	default:
		b.reply(s.chatID, "Unknown command!")
	}
}

func (b *Bot) handleInput(s *session, input string) {

	if !s.HasRunningCommand() {
		b.reply(s.chatID, "Choose an action from the menu.")
		return
	}

	s.OnUserInput(input)
}

// onJobsChanged refreshes the list and the suggestions of the session that mutated a job.
// It runs after the message that caused the mutation has been handled.
func (b *Bot) onJobsChanged(event events.JobsChanged) {

	item, found := b.sessions.Get(event.SessionID)
	if !found {
		return
	}
	s := item.(*session)

	s.mu.Lock()
	defer s.mu.Unlock()

	header := "Job saved."
	if event.Kind == events.JobDeleted {
		header = "Job deleted."
	}

	state := s.board.Refresh(context.Background())
	b.replyLong(s.chatID, header+"\n\n"+renderJobList(state))
}

func (b *Bot) session(chatID int64) (*session, error) {

	key := sessionKey(chatID)

	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	if item, found := b.sessions.Get(key); found {
		s := item.(*session)
		b.sessions.SetDefault(key, s)
		return s, nil
	}

	// drops an expired entry the janitor has not swept yet, firing OnEvicted
	b.sessions.Delete(key)

	jobBoard, err := b.newBoard(key)
	if err != nil {
		return nil, err
	}

	s := newSession(chatID, jobBoard)
	b.sessions.SetDefault(key, s)
	metrics.ActiveSessions.Inc()
	go s.Serve(b.processMessage)
	return s, nil
}

func (b *Bot) parseJobID(chatID int64, arg string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		b.reply(chatID, "Specify a job number, e.g. /edit_12.")
		return 0, false
	}
	return id, true
}

func (b *Bot) reply(chatID int64, text string) {
	msg := botApi.NewMessage(chatID, text)
	msg.ReplyMarkup = defaultReplyKeyboard()
	_, _ = sendWithLogError(b.sender, msg)
}

func (b *Bot) replyLong(chatID int64, text string) {
	keyboard := defaultReplyKeyboard()
	sendLong(b.sender, chatID, text, &keyboard)
}

// splitCommand turns "/edit_12" and "/edit 12" into the same name and argument.
func splitCommand(command string, args string) (name string, arg string) {
	for _, prefix := range []string{"edit_", "delete_"} {
		if strings.HasPrefix(command, prefix) {
			return strings.TrimSuffix(prefix, "_"), strings.TrimPrefix(command, prefix)
		}
	}
	return command, args
}
