package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"habit-tracker/internal/model"
	"habit-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageContent
	stageDueDate
	stagePriority
	stageRecurrence
	stageHabit
)

const (
	cbDonePrefix   = "done:"
	cbSnoozePrefix = "snooze:"
)

const (
	btnSkip         = "⏭️ Skip"
	btnYes          = "Yes"
	btnNo           = "No"
	btnCancelDialog = "⏪ Cancel"
	iconDefault     = "🟢"
	iconDue         = "⏳"
	iconOverdue     = "⚠️"
	iconRecurring   = "♻️"
	iconDone        = "✅"
	snoozeFor       = time.Hour
	// Telegram rejects photo captions above this many characters.
	maxCaptionRunes = 1024
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// Bot aggregates Telegram API with services. It is the outbound channel for
// digests and a listener for commands and button presses from the owner chat.
type Bot struct {
	api           *tgbotapi.BotAPI
	chatID        int64
	ownerID       uint
	taskSvc       *service.TaskService
	digestSvc     *service.DigestService
	categorySvc   *service.CategoryService
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

// New creates a bot talking to a single chat on behalf of the owner account.
func New(token string, chatID int64, ownerID uint, taskSvc *service.TaskService, digestSvc *service.DigestService, categorySvc *service.CategoryService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		chatID:        chatID,
		ownerID:       ownerID,
		taskSvc:       taskSvc,
		digestSvc:     digestSvc,
		categorySvc:   categorySvc,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// SendText delivers an HTML message to the owner chat.
func (b *Bot) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

// SendPhoto delivers a PNG with an HTML caption. Captions too long for a photo
// are sent as a follow-up message instead.
func (b *Bot) SendPhoto(ctx context.Context, caption string, image []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(b.chatID, tgbotapi.FileBytes{Name: "habits.png", Bytes: image})
	overflow := len([]rune(caption)) > maxCaptionRunes
	if !overflow {
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := b.api.Send(photo); err != nil {
		return err
	}
	if overflow {
		return b.SendText(ctx, caption)
	}
	return nil
}

// SendTaskAlert posts an overdue alert with "done" and "snooze" buttons.
func (b *Bot) SendTaskAlert(ctx context.Context, task model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(b.chatID, alertText(task))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = alertKeyboard(task.ID)
	_, err := b.api.Send(msg)
	return err
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("[error] handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[error] handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendTextWithRemove(msg.Chat.ID, "⏪ Task creation cancelled.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Use /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID)
	case "today":
		return b.handleToday(ctx, msg)
	case "week":
		return b.handleWeek(ctx, msg)
	case "complete":
		return b.handleComplete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendTextWithRemove(msg.Chat.ID, "⏪ Task creation cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /newtask — add a task step by step\n" +
	"• /tasks — the dashboard with completion buttons\n" +
	"• /today — today's agenda\n" +
	"• /week — habit briefing with the grid\n" +
	"• /complete &lt;id&gt; — mark a task done (for example /complete 3)\n" +
	"• /categories — completion per category\n" +
	"• /cancel — abort the current input"

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your tasks and habits on track.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	digest, err := b.digestSvc.MorningDigest(ctx, b.ownerID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the agenda: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, digest.Text)
}

func (b *Bot) handleWeek(ctx context.Context, msg *tgbotapi.Message) error {
	digest, err := b.digestSvc.WeeklyBriefing(ctx, b.ownerID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the briefing: %s", escape(err.Error())))
	}
	if len(digest.Image) > 0 {
		return b.SendPhoto(ctx, digest.Text, digest.Image)
	}
	return b.sendText(msg.Chat.ID, digest.Text)
}

func (b *Bot) handleComplete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give me the task ID: /complete 12")
	}
	taskID, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task ID must be a number.")
	}

	res, err := b.taskSvc.CompleteTask(ctx, b.ownerID, uint(taskID))
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ «%s» done.", escape(normalizeContent(res.Task.Content))))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	counts, err := b.categorySvc.List(ctx, b.ownerID)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load categories: %s", escape(err.Error())))
	}
	if len(counts) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. They appear once tasks use them.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, c := range counts {
		builder.WriteString(fmt.Sprintf("• %s — %d/%d done\n", escape(normalizeContent(c.Category)), c.Completed, c.Total))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageContent})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what needs doing?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageContent:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The task needs some text.", cancelKeyboard())
		}
		state.input.Content = text
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Deadline as <code>2026-11-30</code> or <code>2026-11-30 18:00</code> (or Skip).", skipKeyboard())
	case stageDueDate:
		if !isSkipInput(text) {
			if _, err := service.ParseDueDate(text, b.taskSvc.Clock().Location()); err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2026-11-30</code> or Skip.", skipKeyboard())
			}
			state.input.DueDate = text
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "🚦 Priority?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			p, ok := parsePriority(text)
			if !ok {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick normal, high or urgent.", priorityKeyboard())
			}
			state.input.Priority = p
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Does it repeat?", recurrenceKeyboard())
	case stageRecurrence:
		r, ok := parseRecurrence(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick none, daily or weekly.", recurrenceKeyboard())
		}
		state.input.Recurrence = r
		if r == model.RecurrenceNone {
			err := b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
			b.clearConversation(msg.From.ID)
			return err
		}
		state.stage = stageHabit
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔥 Track it as a habit?", yesNoKeyboard())
	case stageHabit:
		yes, ok := parseYesNo(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Press Yes or No.", yesNoKeyboard())
		}
		state.input.IsHabit = yes
		err := b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.taskSvc.CreateTask(ctx, b.ownerID, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, describeError(err))
	}

	log.Printf("[info] task created via bot id=%d recurrence=%s habit=%t", task.ID, task.Recurrence, task.IsHabit)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Task:</b> %s\n", escape(normalizeContent(task.Content))))
	summary.WriteString(fmt.Sprintf("• <b>Priority:</b> %s\n", task.Priority))
	if task.DueDate != nil {
		summary.WriteString(fmt.Sprintf("• <b>Deadline:</b> %s\n", task.DueDate.In(b.taskSvc.Clock().Location()).Format("2006-01-02 15:04")))
	}
	if task.IsRecurring() {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", task.Recurrence))
	}
	if task.IsHabit {
		summary.WriteString("• <b>Habit:</b> yes\n")
	}
	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	tasks, err := b.taskSvc.ListDashboard(ctx, b.ownerID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "Nothing on the board. Add a task with /newtask.")
	}

	clock := b.taskSvc.Clock()
	today := clock.Today()

	var builder strings.Builder
	builder.WriteString("📋 <b>Tasks</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(formatTask(task, today, clock.Location()))
		if !task.Complete {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Content, 24)), fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}
	if cb.Message.Chat.ID != b.chatID {
		return nil
	}

	action, taskID, err := parseCallback(cb.Data)
	if err != nil {
		log.Printf("[warn] callback %q: %v", cb.Data, err)
		return nil
	}
	log.Printf("[info] callback %s user=%d task=%d", action, cb.From.ID, taskID)

	switch action {
	case cbDonePrefix:
		return b.completeFromButton(ctx, cb.Message, taskID)
	case cbSnoozePrefix:
		return b.snooze(ctx, cb.Message.Chat.ID, taskID)
	}
	return nil
}

func (b *Bot) completeFromButton(ctx context.Context, msg *tgbotapi.Message, taskID uint) error {
	res, err := b.taskSvc.CompleteTask(ctx, b.ownerID, taskID)
	if err != nil {
		return b.sendText(msg.Chat.ID, describeError(err))
	}
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, fmt.Sprintf("✅ <b>COMPLETED:</b>\n%s", escape(res.Task.Content)))
	edit.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(edit)
	return err
}

// snooze pushes the deadline one hour past now.
func (b *Bot) snooze(ctx context.Context, chatID int64, taskID uint) error {
	clock := b.taskSvc.Clock()
	until := clock.LocalNow().Add(snoozeFor)
	due := until.Format("2006-01-02T15:04")
	res, err := b.taskSvc.EditTask(ctx, b.ownerID, taskID, service.TaskPatch{DueDate: &due})
	if err != nil {
		return b.sendText(chatID, describeError(err))
	}
	if len(res.Rejected) > 0 {
		return b.sendText(chatID, "Could not snooze this task.")
	}
	return b.sendText(chatID, fmt.Sprintf("💤 «%s» snoozed until %s.", escape(normalizeContent(res.Task.Content)), until.Format("15:04")))
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	return ok && state.stage != stageNone
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func parseCallback(data string) (string, uint, error) {
	for _, prefix := range []string{cbDonePrefix, cbSnoozePrefix} {
		if !strings.HasPrefix(data, prefix) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil || id == 0 {
			return "", 0, fmt.Errorf("bad task id in %q", data)
		}
		return prefix, uint(id), nil
	}
	return "", 0, fmt.Errorf("unknown action")
}

func describeError(err error) string {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnauthorized):
		return "⚠️ Task not found (maybe deleted?)."
	case errors.As(err, &verr):
		return fmt.Sprintf("⚠️ %s", escape(verr.Error()))
	default:
		return fmt.Sprintf("Error: %s", escape(err.Error()))
	}
}

func alertText(task model.Task) string {
	return fmt.Sprintf("⚠️ <b>Urgent Task Overdue!</b>\n\n%s", escape(task.Content))
}

func alertKeyboard(taskID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Mark Done", fmt.Sprintf("%s%d", cbDonePrefix, taskID)),
		tgbotapi.NewInlineKeyboardButtonData("💤 Snooze 1h", fmt.Sprintf("%s%d", cbSnoozePrefix, taskID)),
	))
}

func formatTask(task model.Task, today model.Date, loc *time.Location) string {
	icon := iconDefault
	switch {
	case task.Complete:
		icon = iconDone
	case task.DueDate != nil && model.DateOf(task.DueDate.In(loc)).Before(today):
		icon = iconOverdue
	case task.DueDate != nil && model.DateOf(task.DueDate.In(loc)).DaysSince(today) <= 1:
		icon = iconDue
	case task.IsRecurring():
		icon = iconRecurring
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s", icon, task.ID, escape(normalizeContent(task.Content))))
	if task.Priority != model.PriorityNormal {
		b.WriteString(fmt.Sprintf(" [%s]", task.Priority))
	}
	b.WriteByte('\n')
	if label := service.DueLabel(task.DueDate, today, loc); label != "" {
		b.WriteString(fmt.Sprintf("   ⏰ %s · %s\n", task.DueDate.In(loc).Format("2006-01-02"), label))
	}
	if task.IsRecurring() {
		b.WriteString(fmt.Sprintf("   🔄 %s\n", task.Recurrence))
	}
	return b.String()
}

func parsePriority(text string) (model.Priority, bool) {
	p := model.Priority(strings.ToLower(strings.TrimSpace(text)))
	return p, p.Valid()
}

func parseRecurrence(text string) (model.Recurrence, bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	if value == "" || isSkipInput(value) {
		return model.RecurrenceNone, true
	}
	r := model.Recurrence(value)
	return r, r.Valid()
}

func parseYesNo(text string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y":
		return true, true
	case "no", "n", "-":
		return false, true
	}
	return false, false
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.PriorityNormal)),
			tgbotapi.NewKeyboardButton(string(model.PriorityHigh)),
			tgbotapi.NewKeyboardButton(string(model.PriorityUrgent)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func recurrenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(string(model.RecurrenceNone)),
			tgbotapi.NewKeyboardButton(string(model.RecurrenceDaily)),
			tgbotapi.NewKeyboardButton(string(model.RecurrenceWeekly)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYes),
			tgbotapi.NewKeyboardButton(btnNo),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(title)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeContent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
