package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"kecarajocomer/internal/app"
	"kecarajocomer/internal/clipper"
	"kecarajocomer/internal/config"
	"kecarajocomer/internal/metrics"
	"kecarajocomer/internal/pantry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	expiringWindowDays = 3
	processTimeout     = 2 * time.Minute
)

// sender is the part of tgbotapi.BotAPI the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot answers Telegram messages on top of the App.
type Bot struct {
	api sender
	app *app.App
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, log *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Info("telegram bot authorized", zap.String("account", botAPI.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook URL %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := botAPI.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	log.Info("telegram webhook set", zap.String("description", resp.Description))

	return newBot(botAPI, cfg, a, log), nil
}

func newBot(api sender, cfg *config.Config, a *app.App, log *zap.Logger) *Bot {
	return &Bot{api: api, app: a, cfg: cfg, log: log, now: time.Now}
}

// WebhookHandler receives updates posted by Telegram.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(b.handleWebhook)
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.log.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.allowed(msg.From.ID) {
		b.log.Warn("unauthorized telegram user", zap.Int64("telegram_id", msg.From.ID), zap.String("username", msg.From.UserName))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		b.processMessage(ctx, msg)
	}()
}

func (b *Bot) allowed(id int64) bool {
	return slices.Contains(b.cfg.TelegramAllowedUserIDs, id)
}

// userID maps a Telegram account to the App's user ID.
func userID(from *tgbotapi.User) string {
	return "tg:" + strconv.FormatInt(from.ID, 10)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	user := userID(msg.From)

	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleImport(ctx, msg.Chat.ID, text)
		return
	}

	command, args := splitCommand(text)
	switch command {
	case "start", "ayuda":
		b.reply(msg.Chat.ID, helpText)
	case "lista":
		b.handleList(ctx, msg.Chat.ID, user)
	case "despensa":
		b.handlePantry(ctx, msg.Chat.ID, user)
	case "agregar":
		b.handleAdd(ctx, msg.Chat.ID, user, args)
	case "vencen":
		b.handleExpiring(ctx, msg.Chat.ID, user)
	case "metrics":
		b.handleMetrics(ctx, msg.Chat.ID, msg.From.ID)
	case "":
		b.handleSuggest(ctx, msg.Chat.ID, user, text)
	default:
		b.reply(msg.Chat.ID, "No conozco ese comando.\n\n"+helpText)
	}
}

const helpText = `<b>¿Qué cocinamos?</b>
/lista - lista de compras de la semana
/despensa - lo que tenés en casa
/agregar &lt;nombre&gt; &lt;cantidad&gt; &lt;unidad&gt; - sumar a la despensa
/vencen - lo que vence pronto
Mandame un link para importar una receta, o contame qué tenés ganas de comer.`

// splitCommand returns the command name without slash or bot suffix, and
// the rest of the text. Plain text yields an empty command.
func splitCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", text
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("failed to send telegram message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(chatID int64, what string, err error) {
	b.log.Error(what, zap.Int64("chat_id", chatID), zap.Error(err))
	b.reply(chatID, "❌ "+what)
}

func (b *Bot) handleList(ctx context.Context, chatID int64, user string) {
	stored, err := b.app.GenerateShoppingList(ctx, user, b.now())
	if errors.Is(err, app.ErrNoPlan) {
		b.reply(chatID, "🗓️ No tenés un plan de comidas para esta semana.")
		return
	}
	if err != nil {
		b.replyError(chatID, "No pude generar la lista.", err)
		return
	}
	b.reply(chatID, formatShoppingList(stored.List))
}

func (b *Bot) handlePantry(ctx context.Context, chatID int64, user string) {
	items, err := b.app.ListPantry(ctx, user)
	if err != nil {
		b.replyError(chatID, "No pude leer la despensa.", err)
		return
	}
	b.reply(chatID, formatPantry("🏠 <b>Despensa</b>", items, b.now()))
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, user, args string) {
	name, qty, unit, err := parseAddArgs(args)
	if err != nil {
		b.reply(chatID, "Uso: /agregar &lt;nombre&gt; &lt;cantidad&gt; &lt;unidad&gt;")
		return
	}
	item, err := b.app.AddPantryItem(ctx, pantry.Item{UserID: user, Name: name, Quantity: qty, Unit: unit})
	if err != nil {
		b.replyError(chatID, "No pude guardar el producto.", err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Agregado: %s", formatPantryLine(*item, b.now())))
}

func (b *Bot) handleExpiring(ctx context.Context, chatID int64, user string) {
	items, err := b.app.ExpiringItems(ctx, user, expiringWindowDays, b.now())
	if err != nil {
		b.replyError(chatID, "No pude revisar los vencimientos.", err)
		return
	}
	if len(items) == 0 {
		b.reply(chatID, fmt.Sprintf("👌 Nada vence en los próximos %d días.", expiringWindowDays))
		return
	}
	b.reply(chatID, formatPantry("⏰ <b>Vence pronto</b>", items, b.now()))
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, url string) {
	b.reply(chatID, "✂️ Importando receta...")
	rec, err := b.app.ImportRecipe(ctx, url)
	if err != nil {
		b.replyError(chatID, "No pude importar la receta.", err)
		return
	}
	b.reply(chatID, "✅ Receta guardada\n\n"+clipper.FormatMessage(*rec))
}

func (b *Bot) handleSuggest(ctx context.Context, chatID int64, user, text string) {
	b.reply(chatID, "🧑‍🍳 Pensando una receta...")
	rec, err := b.app.SuggestRecipe(ctx, user, text, 0, true)
	if err != nil {
		b.replyError(chatID, "No pude inventar una receta.", err)
		return
	}
	b.reply(chatID, clipper.FormatMessage(*rec))
}

func (b *Bot) handleMetrics(ctx context.Context, chatID, fromID int64) {
	if fromID != b.cfg.AdminTelegramID {
		b.reply(chatID, "⛔ Solo para administradores.")
		return
	}
	usage, err := b.app.UsageReport(ctx, 7)
	if err != nil {
		b.replyError(chatID, "No pude leer las métricas.", err)
		return
	}
	b.reply(chatID, formatUsage(usage, metrics.GetSysHealth(b.cfg.DatabasePath)))
}
