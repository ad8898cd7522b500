package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"strings"
)

// skipInput keeps the current value of a step.
const skipInput = "-"

type validation struct {
	function     func(input string) bool
	errorMessage string
}

type textInput struct {
	chatID      int64
	initMessage string
	options     []string
	skippable   bool
	onFinish    func(input string)
	validations []validation
}

func newTextInput(chatID int64, initMessage string, onFinish func(input string)) *textInput {
	return &textInput{chatID: chatID, initMessage: initMessage, onFinish: onFinish}
}

func (a *textInput) AddValidation(validation validation) {
	a.validations = append(a.validations, validation)
}

// WithOptions shows the given values as reply buttons, e.g. autocomplete suggestions.
func (a *textInput) WithOptions(options []string) *textInput {
	a.options = options
	return a
}

func (a *textInput) Skippable() *textInput {
	a.skippable = true
	return a
}

func (a *textInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(a.chatID, a.initMessage)
	msg.ReplyMarkup = keyboardWithOptions(a.options, a.skippable)
	return msg
}

func (a *textInput) HandleInput(input string) botApi.Chattable {

	input = strings.TrimSpace(input)

	for _, _validation := range a.validations {
		if !_validation.function(input) {
			return botApi.NewMessage(a.chatID, _validation.errorMessage)
		}
	}

	a.onFinish(input)
	return nil
}

func oneOf(values ...string) func(string) bool {
	return func(input string) bool {
		for _, v := range values {
			if strings.EqualFold(v, input) {
				return true
			}
		}
		return false
	}
}
