package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/board"
	"strconv"
	"sync"
)

const inboxSize = 32

// session is the per-chat UI: one board and at most one running command.
// Messages of a chat are queued and handled one at a time in arrival order;
// mu guards the command and the board against the JobsChanged handler.
type session struct {
	mu         sync.Mutex
	chatID     int64
	board      *board.Board
	curCommand command

	inbox     chan *botApi.Message
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(chatID int64, jobBoard *board.Board) *session {
	return &session{
		chatID: chatID,
		board:  jobBoard,
		inbox:  make(chan *botApi.Message, inboxSize),
		done:   make(chan struct{}),
	}
}

func sessionKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// Serve handles queued messages until the session is closed.
func (s *session) Serve(handle func(*session, *botApi.Message)) {
	for {
		select {
		case <-s.done:
			return
		case message := <-s.inbox:
			handle(s, message)
		}
	}
}

// Enqueue reports false when the session is already closed.
func (s *session) Enqueue(message *botApi.Message) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case <-s.done:
		return false
	case s.inbox <- message:
		return true
	}
}

func (s *session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *session) RunCommand(command command) {
	s.curCommand = command
	command.WithFinishCallback(func() {
		if s.curCommand == command {
			s.curCommand = nil
		}
	})
	command.WithKeyboardOnFinalMessage(defaultReplyKeyboard())
	command.Run()
}

func (s *session) HasRunningCommand() bool {
	return s.curCommand != nil
}

func (s *session) OnUserInput(input string) {
	s.curCommand.OnUserInput(input)
}

func (s *session) CancelCommand() {
	s.curCommand = nil
	s.board.CancelEdit()
}
