// Package controller: Telegram-интерфейс: просмотр ближайших занятий и отмена
// из чата. Бронирование и правила доступности живут в HTTP API.
package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/notify"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cancelPrefix = "cancel:"
	// на сколько дней вперёд показываем занятия
	upcomingDays = 14
)

// TelegramUsers ищет пользователя по привязанному чату
type TelegramUsers interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

type BotController struct {
	bot      *bot.Bot
	users    TelegramUsers
	sessions *service.SessionService
	logger   *zap.Logger
	now      func() time.Time
}

func NewBotController(
	botInstance *bot.Bot,
	users TelegramUsers,
	sessions *service.SessionService,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		users:    users,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/sessions", bot.MatchTypeExact, c.HandleSessions)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, cancelPrefix, bot.MatchTypePrefix, c.HandleCancelCallback)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "sessions", Description: "📅 Мои ближайшие занятия"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает long polling и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

// HandleStart обрабатывает команду /start
func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text, err := c.StartText(ctx, update.Message.From.ID)
	if err != nil {
		c.logger.Error("Failed to get user", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		text = "❌ Произошла ошибка. Попробуйте позже."
	}
	c.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

// HandleHelp обрабатывает команду /help
func (c *BotController) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleSessions обрабатывает команду /sessions
func (c *BotController) HandleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	text, markup, err := c.SessionsReply(ctx, update.Message.From.ID)
	if err != nil {
		c.logger.Error("Failed to list sessions", zap.Int64("telegram_id", update.Message.From.ID), zap.Error(err))
		text = "❌ Не удалось загрузить занятия. Попробуйте позже."
	}
	c.sendMessage(ctx, b, update.Message.Chat.ID, text, markup)
}

// HandleCancelCallback отменяет занятие по кнопке из списка
func (c *BotController) HandleCancelCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	text := c.CancelFromCallback(ctx, query.From.ID, query.Data)

	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            text,
	})
	if err != nil {
		c.logger.Error("Failed to answer callback", zap.Error(err))
	}
}

const helpText = "📚 Справка по командам:\n\n" +
	"/start - Проверить привязку аккаунта\n" +
	"/sessions - Ближайшие занятия с кнопками отмены\n" +
	"/help - Показать эту справку\n\n" +
	"Бронирование и перенос занятий доступны в приложении. " +
	"Сюда приходят уведомления и напоминания."

// StartText: приветствие для привязанного чата или подсказка для непривязанного
func (c *BotController) StartText(ctx context.Context, telegramID int64) (string, error) {
	user, err := c.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return "", fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return fmt.Sprintf(
			"👋 Привет!\n\nЭтот чат ещё не привязан к аккаунту. "+
				"Укажите Telegram ID %d в профиле, чтобы получать уведомления о занятиях.",
			telegramID,
		), nil
	}

	role := "студент"
	if user.IsTeacher {
		role = "учитель"
	}
	return fmt.Sprintf("👋 Привет, %s!\n\nВы вошли как %s. Уведомления о занятиях будут приходить сюда.\n\n/sessions - ближайшие занятия",
		user.FirstName, role), nil
}

// SessionsReply: список ближайших активных занятий и кнопки отмены
func (c *BotController) SessionsReply(ctx context.Context, telegramID int64) (string, *models.InlineKeyboardMarkup, error) {
	user, err := c.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return "", nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return "❌ Чат не привязан к аккаунту. Используйте /start.", nil, nil
	}

	today := model.DateOf(c.now().In(user.Location()))
	sessions, err := c.sessions.ListForUser(ctx, user.ID, today, today.AddDate(0, 0, upcomingDays))
	if err != nil {
		return "", nil, fmt.Errorf("list sessions: %w", err)
	}

	var sb strings.Builder
	kb := newKeyboard()
	n := 0
	for _, s := range sessions {
		if !s.Status.BlocksSlot() {
			continue
		}
		n++
		display := notify.GetStatusDisplay(s.Status)
		// время сессии хранится в часовом поясе учителя
		start := s.StartsAt(time.UTC)
		end := start.Add(time.Duration(s.DurationMinutes) * time.Minute)
		fmt.Fprintf(&sb, "%d. %s %s, %s %s · %s\n",
			n,
			display.Emoji,
			notify.WeekdayName(start.Weekday()),
			notify.FormatDate(start),
			notify.FormatTimeRange(start, end),
			s.Platform,
		)
		kb.Row(button(fmt.Sprintf("❌ Отменить %d", n), cancelPrefix+s.ID.String()))
	}

	if n == 0 {
		return fmt.Sprintf("📭 На ближайшие %d дней занятий нет.", upcomingDays), nil, nil
	}
	return "📅 Ближайшие занятия (время учителя):\n\n" + sb.String(), kb.Build(), nil
}

// CancelFromCallback отменяет занятие из callback data и возвращает текст ответа
func (c *BotController) CancelFromCallback(ctx context.Context, telegramID int64, data string) string {
	sessionID, err := uuid.Parse(strings.TrimPrefix(data, cancelPrefix))
	if err != nil {
		return "❌ Некорректная кнопка"
	}

	user, err := c.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		c.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return "❌ Произошла ошибка. Попробуйте позже."
	}
	if user == nil {
		return "❌ Чат не привязан к аккаунту"
	}

	if _, err := c.sessions.Cancel(ctx, sessionID, user.ID); err != nil {
		c.logger.Warn("Failed to cancel session from bot",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
		return "❌ Не удалось отменить: " + err.Error()
	}
	return "✅ Занятие отменено"
}

// sendMessage отправляет сообщение и логирует если не удалось
func (c *BotController) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
