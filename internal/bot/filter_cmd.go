package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
)

// filterCommand is the filter bar: every step may be skipped and only
// entered values are merged into the current filters.
type filterCommand struct {
	api                  apiInterface
	chatID               int64
	board                jobBoard
	change               models.FilterCriteria
	inputHandlers        []inputHandler
	curHandlerIndex      int
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newFilterCommand(api apiInterface, chatID int64, jobBoard jobBoard) *filterCommand {

	cmd := &filterCommand{api: api, chatID: chatID, board: jobBoard}
	state := jobBoard.State()
	suggestions := state.Suggestions

	setter := func(target *string) func(string) {
		return func(input string) {
			if input != skipInput {
				*target = input
			}
			cmd.curHandlerIndex++
		}
	}

	jobType := newTextInput(chatID, filterPrompt("job type", state.Filters.JobType), setter(&cmd.change.JobType)).
		WithOptions(suggestions.JobTypes).Skippable()
	location := newTextInput(chatID, filterPrompt("location", state.Filters.Location), setter(&cmd.change.Location)).
		WithOptions(suggestions.Locations).Skippable()
	tag := newTextInput(chatID, filterPrompt("tag (several separated by commas)", models.Tags(state.Filters.Tags).String()),
		func(input string) {
			if input != skipInput {
				cmd.change.Tags = models.ParseTags(input)
			}
			cmd.curHandlerIndex++
		}).WithOptions(suggestions.Tags).Skippable()
	keyword := newTextInput(chatID, filterPrompt("keyword", state.Filters.Keyword), setter(&cmd.change.Keyword)).
		Skippable()

	cmd.inputHandlers = []inputHandler{jobType, location, tag, keyword}
	return cmd
}

func filterPrompt(name string, current string) string {
	prompt := "Filter by " + name + "."
	if current != "" {
		prompt += "\nCurrent: " + current
	}
	return prompt + "\nSend \"-\" to skip."
}

func (c *filterCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *filterCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *filterCommand) Run() {
	_, _ = sendWithLogError(c.api, c.inputHandlers[0].InitMessage())
}

func (c *filterCommand) OnUserInput(input string) {

	previousIndex := c.curHandlerIndex
	msg := c.inputHandlers[c.curHandlerIndex].HandleInput(input)

	if previousIndex == c.curHandlerIndex {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	if c.curHandlerIndex < len(c.inputHandlers) {
		_, _ = sendWithLogError(c.api, c.inputHandlers[c.curHandlerIndex].InitMessage())
		return
	}

	state := c.board.ApplyFilters(context.Background(), c.change)
	sendLong(c.api, c.chatID, renderJobList(state), c.finalMessageKeyboard)

	if c.finishCallback != nil {
		c.finishCallback()
	}
}
