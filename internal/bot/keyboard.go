package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
)

const (
	listCommandName   = "Jobs"
	filterCommandName = "Filter"
	sortCommandName   = "Sort"
	resetCommandName  = "Reset filters"
	addJobCommandName = "Add job"
	cancelCommandName = "Cancel"
)

var globalCommands = []string{listCommandName, filterCommandName, sortCommandName, resetCommandName,
	addJobCommandName, cancelCommandName}

const (
	maxOptionButtons = 12
	buttonsPerRow    = 3
)

func defaultReplyKeyboard() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(listCommandName),
			botApi.NewKeyboardButton(filterCommandName),
			botApi.NewKeyboardButton(sortCommandName),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(addJobCommandName),
			botApi.NewKeyboardButton(resetCommandName),
		),
	)
}

func keyboardWithOptions(options []string, skippable bool) botApi.ReplyKeyboardMarkup {

	var rows [][]botApi.KeyboardButton

	if len(options) > maxOptionButtons {
		options = options[:maxOptionButtons]
	}
	for _, chunk := range lo.Chunk(options, buttonsPerRow) {
		rows = append(rows, botApi.NewKeyboardButtonRow(lo.Map(chunk, func(option string, _ int) botApi.KeyboardButton {
			return botApi.NewKeyboardButton(option)
		})...))
	}

	lastRow := botApi.NewKeyboardButtonRow(botApi.NewKeyboardButton(cancelCommandName))
	if skippable {
		lastRow = append([]botApi.KeyboardButton{botApi.NewKeyboardButton(skipInput)}, lastRow...)
	}
	rows = append(rows, lastRow)

	keyboard := botApi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	return keyboard
}
