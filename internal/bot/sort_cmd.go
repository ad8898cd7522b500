package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"strings"
)

const (
	sortNewestOption = "Newest first"
	sortOldestOption = "Oldest first"
	sortNoneOption   = "No sorting"
)

type sortCommand struct {
	api                  apiInterface
	chatID               int64
	board                jobBoard
	input                inputHandler
	sort                 models.SortOrder
	inputFinished        bool
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newSortCommand(api apiInterface, chatID int64, jobBoard jobBoard) *sortCommand {

	cmd := &sortCommand{api: api, chatID: chatID, board: jobBoard}

	input := newTextInput(chatID, "Sort by posting date:", func(input string) {
		cmd.sort = sortOrderFromOption(input)
		cmd.inputFinished = true
	}).WithOptions([]string{sortNewestOption, sortOldestOption, sortNoneOption})
	input.AddValidation(validation{
		function:     oneOf(sortNewestOption, sortOldestOption, sortNoneOption),
		errorMessage: "Choose one of the options below.",
	})

	cmd.input = input
	return cmd
}

func sortOrderFromOption(option string) models.SortOrder {
	switch {
	case strings.EqualFold(option, sortNewestOption):
		return models.SortNewestFirst
	case strings.EqualFold(option, sortOldestOption):
		return models.SortOldestFirst
	default:
		return models.SortNone
	}
}

func (c *sortCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *sortCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *sortCommand) Run() {
	_, _ = sendWithLogError(c.api, c.input.InitMessage())
}

func (c *sortCommand) OnUserInput(input string) {

	msg := c.input.HandleInput(input)

	if !c.inputFinished {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	state := c.board.SetSort(context.Background(), c.sort)
	sendLong(c.api, c.chatID, renderJobList(state), c.finalMessageKeyboard)

	if c.finishCallback != nil {
		c.finishCallback()
	}
}
