package controller

import "github.com/go-telegram/bot/models"

// keyboard упрощает создание inline клавиатур
type keyboard struct {
	rows [][]models.InlineKeyboardButton
}

func newKeyboard() *keyboard {
	return &keyboard{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет новый ряд кнопок
func (k *keyboard) Row(buttons ...models.InlineKeyboardButton) *keyboard {
	if len(buttons) > 0 {
		k.rows = append(k.rows, buttons)
	}
	return k
}

func button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

func (k *keyboard) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: k.rows}
}
