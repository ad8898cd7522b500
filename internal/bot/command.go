package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/jobboard-bot/internal/logger"
	log "github.com/sirupsen/logrus"
)

type apiInterface interface {
	Send(chattable botApi.Chattable) (botApi.Message, error)
}

type command interface {
	WithKeyboardOnFinalMessage(botApi.ReplyKeyboardMarkup)
	WithFinishCallback(func())
	Run()
	OnUserInput(input string)
}

func sendWithLogError(api apiInterface, chattable botApi.Chattable) (botApi.Message, error) {
	msg, err := api.Send(chattable)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("error occured while sending message: %v", err)
	}
	return msg, err
}

// sendLong splits text on paragraph boundaries to stay below the Telegram message limit.
func sendLong(api apiInterface, chatID int64, text string, keyboard *botApi.ReplyKeyboardMarkup) {
	chunks := splitMessage(text, maxMessageLength)
	for i, chunk := range chunks {
		msg := botApi.NewMessage(chatID, chunk)
		if keyboard != nil && i == len(chunks)-1 {
			msg.ReplyMarkup = *keyboard
		}
		_, _ = sendWithLogError(api, msg)
	}
}
