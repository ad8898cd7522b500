package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/board"
	"github.com/maxaizer/jobboard-bot/internal/domain/models"
	"github.com/pkg/errors"
	"strings"
	"time"
)

const (
	clearTagsInput = "none"
	retryOption    = "Retry"
)

type formField int

const (
	fieldTitle formField = iota
	fieldCompany
	fieldLocation
	fieldJobType
	fieldTags
	fieldPostingDate
)

// jobFormCommand collects a job step by step. With an existing job every
// step is prefilled and "-" keeps the current value.
type jobFormCommand struct {
	api                  apiInterface
	chatID               int64
	board                jobBoard
	job                  models.Job
	editing              bool
	inputHandlers        []inputHandler
	steps                []formField
	curStep              int
	retryInput           inputHandler
	awaitingRetry        bool
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newJobFormCommand(api apiInterface, chatID int64, jobBoard jobBoard, existing *models.Job) *jobFormCommand {

	cmd := &jobFormCommand{api: api, chatID: chatID, board: jobBoard}
	if existing != nil {
		cmd.job = *existing
		cmd.editing = true
	}

	suggestions := jobBoard.State().Suggestions

	setter := func(target *string) func(string) {
		return func(input string) {
			if input != skipInput {
				*target = input
			}
			cmd.curStep++
		}
	}

	title := cmd.fieldInput("title", cmd.job.Title, setter(&cmd.job.Title))
	company := cmd.fieldInput("company", cmd.job.Company, setter(&cmd.job.Company))
	location := cmd.fieldInput("location", cmd.job.Location, setter(&cmd.job.Location)).
		WithOptions(suggestions.Locations)
	jobType := cmd.fieldInput("job type", cmd.job.JobType, setter(&cmd.job.JobType)).
		WithOptions(suggestions.JobTypes)

	tags := newTextInput(chatID, cmd.tagsPrompt(), func(input string) {
		switch {
		case input == skipInput:
		case strings.EqualFold(input, clearTagsInput):
			cmd.job.Tags = nil
		default:
			cmd.job.Tags = models.ParseTags(input)
		}
		cmd.curStep++
	}).WithOptions(suggestions.Tags).Skippable()

	postingDate := cmd.fieldInput("posting date (YYYY-MM-DD)", cmd.job.PostingDate, setter(&cmd.job.PostingDate)).
		WithOptions([]string{time.Now().Format(time.DateOnly)})

	cmd.inputHandlers = []inputHandler{title, company, location, jobType, tags, postingDate}
	cmd.steps = []formField{fieldTitle, fieldCompany, fieldLocation, fieldJobType, fieldTags, fieldPostingDate}

	retry := newTextInput(chatID, "Send \""+retryOption+"\" to submit again or \""+cancelCommandName+"\" to discard the form.",
		func(string) {}).WithOptions([]string{retryOption})
	retry.AddValidation(validation{
		function:     oneOf(retryOption),
		errorMessage: "Send \"" + retryOption + "\" or \"" + cancelCommandName + "\".",
	})
	cmd.retryInput = retry
	return cmd
}

func (c *jobFormCommand) fieldInput(name string, current string, onFinish func(string)) *textInput {
	prompt := "Enter the job " + name + "."
	if c.editing {
		prompt += "\nCurrent: " + current + "\nSend \"-\" to keep it."
	} else {
		prompt += "\nSend \"-\" to leave it empty."
	}
	return newTextInput(c.chatID, prompt, onFinish).Skippable()
}

func (c *jobFormCommand) tagsPrompt() string {
	prompt := "Enter tags separated by commas, e.g. \"go, remote\"."
	if c.editing {
		prompt += "\nCurrent: " + c.job.Tags.String() +
			"\nSend \"-\" to keep them or \"" + clearTagsInput + "\" to remove all."
	} else {
		prompt += "\nSend \"-\" to skip."
	}
	return prompt
}

func (c *jobFormCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *jobFormCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *jobFormCommand) Run() {
	header := "Add job"
	if c.editing {
		header = "Edit job #" + renderID(c.job.ID)
	}
	_, _ = sendWithLogError(c.api, botApi.NewMessage(c.chatID, header))
	_, _ = sendWithLogError(c.api, c.currentInput().InitMessage())
}

func (c *jobFormCommand) currentInput() inputHandler {
	return c.inputHandlers[c.steps[c.curStep]]
}

func (c *jobFormCommand) OnUserInput(input string) {

	if c.awaitingRetry {
		if msg := c.retryInput.HandleInput(input); msg != nil {
			_, _ = sendWithLogError(c.api, msg)
			return
		}
		c.submitAndFinish()
		return
	}

	previousStep := c.curStep
	msg := c.currentInput().HandleInput(input)

	if previousStep == c.curStep {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	if c.curStep < len(c.steps) {
		_, _ = sendWithLogError(c.api, c.currentInput().InitMessage())
		return
	}

	c.submitAndFinish()
}

func (c *jobFormCommand) submitAndFinish() {
	if c.submit() && c.finishCallback != nil {
		c.finishCallback()
	}
}

// submit returns false while the form stays open: to fill in missing fields
// or to retry after the backend rejected the job. Entered values are kept.
func (c *jobFormCommand) submit() bool {

	c.awaitingRetry = false

	err := c.board.Save(context.Background(), c.job)
	if err == nil {
		return true
	}

	message := c.board.State().MutationError

	if errors.Is(err, models.ErrMissingFields) {
		c.steps, c.curStep = c.missingFields(), 0
		_, _ = sendWithLogError(c.api, botApi.NewMessage(c.chatID, message))
		_, _ = sendWithLogError(c.api, c.currentInput().InitMessage())
		return false
	}

	if message == "" {
		message = board.MessageCreateFailed
		if c.editing {
			message = board.MessageUpdateFailed
		}
	}
	c.awaitingRetry = true
	_, _ = sendWithLogError(c.api, botApi.NewMessage(c.chatID, message))
	_, _ = sendWithLogError(c.api, c.retryInput.InitMessage())
	return false
}

func (c *jobFormCommand) missingFields() []formField {
	required := []struct {
		field formField
		value string
	}{
		{fieldTitle, c.job.Title},
		{fieldCompany, c.job.Company},
		{fieldLocation, c.job.Location},
		{fieldJobType, c.job.JobType},
		{fieldPostingDate, c.job.PostingDate},
	}
	var missing []formField
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) == 0 {
		missing = []formField{fieldTitle}
	}
	return missing
}
