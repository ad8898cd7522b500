package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/board"
	"strings"
)

const (
	confirmYes = "Yes"
	confirmNo  = "No"
)

type deleteJobCommand struct {
	api                  apiInterface
	chatID               int64
	board                jobBoard
	jobID                int
	input                inputHandler
	confirmed            *bool
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newDeleteJobCommand(api apiInterface, chatID int64, jobBoard jobBoard, jobID int) *deleteJobCommand {

	cmd := &deleteJobCommand{api: api, chatID: chatID, board: jobBoard, jobID: jobID}

	question := "Are you sure you want to delete job #" + renderID(jobID)
	if job, ok := jobBoard.State().FindJob(jobID); ok {
		question += " \"" + job.Title + "\""
	}
	question += "?"

	input := newTextInput(chatID, question, func(input string) {
		confirmed := strings.EqualFold(input, confirmYes)
		cmd.confirmed = &confirmed
	}).WithOptions([]string{confirmYes, confirmNo})
	input.AddValidation(validation{
		function:     oneOf(confirmYes, confirmNo),
		errorMessage: "Answer \"" + confirmYes + "\" or \"" + confirmNo + "\".",
	})

	cmd.input = input
	return cmd
}

func (c *deleteJobCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *deleteJobCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *deleteJobCommand) Run() {
	_, _ = sendWithLogError(c.api, c.input.InitMessage())
}

func (c *deleteJobCommand) OnUserInput(input string) {

	msg := c.input.HandleInput(input)

	if c.confirmed == nil {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	if *c.confirmed {
		c.deleteJob()
	} else {
		c.sendFinal("Deletion cancelled.")
	}

	if c.finishCallback != nil {
		c.finishCallback()
	}
}

// deleteJob reports failures only, the refreshed list follows the JobsChanged event.
func (c *deleteJobCommand) deleteJob() {
	if err := c.board.Delete(context.Background(), c.jobID); err != nil {
		message := c.board.State().MutationError
		if message == "" {
			message = board.MessageDeleteFailed
		}
		c.sendFinal(message)
	}
}

func (c *deleteJobCommand) sendFinal(text string) {
	msg := botApi.NewMessage(c.chatID, text)
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}
	_, _ = sendWithLogError(c.api, msg)
}
