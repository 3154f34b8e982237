// Package telegram posts meal-plan progress and reports to the care team chat.
package telegram

import (
	"fmt"
	"strings"
	"sync"

	"care-meal-planner/internal/metrics"
	"care-meal-planner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sender is the part of tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends messages to a single chat. Sends triggered by progress
// callbacks run in the background; Wait blocks until they are done.
type Notifier struct {
	api    sender
	chatID int64
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewNotifier authorizes the bot token and returns a Notifier for chatID.
func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram notifier authorized", zap.String("account", bot.Self.UserName))
	return newNotifier(bot, chatID, logger), nil
}

func newNotifier(api sender, chatID int64, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, chatID: chatID, logger: logger.Named("telegram")}
}

var stageText = map[planner.Stage]string{
	planner.StagePreparing: "🧑‍🍳 Speiseplan für *%s* wird vorbereitet…",
	planner.StageFallback:  "⏳ Das Modell antwortet zu langsam, für *%s* wird ein Standardplan erstellt.",
	planner.StageReady:     "✅ Speiseplan für *%s* ist fertig.",
}

// Func returns a progress callback that announces stages for patientID.
func (n *Notifier) Func(patientID string) planner.ProgressFunc {
	return func(stage planner.Stage) {
		format, ok := stageText[stage]
		if !ok {
			format = "ℹ️ *%s*: " + string(stage)
		}
		n.sendAsync(fmt.Sprintf(format, escapeMarkdown(patientID)))
	}
}

// NotifyPlan posts a compact overview of a finished plan in the background.
func (n *Notifier) NotifyPlan(patientID string, res *planner.Result) {
	n.sendAsync(formatPlanMarkdown(patientID, res))
}

// SendUsageReport posts token usage and system health.
func (n *Notifier) SendUsageReport(usage []metrics.DailyUsage, health metrics.SysHealth) {
	n.send(FormatUsageReport(usage, health))
}

// Wait blocks until background sends have finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) sendAsync(text string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(text)
	}()
}

func (n *Notifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("failed to send telegram message", zap.Error(err))
	}
}

func formatPlanMarkdown(patientID string, res *planner.Result) string {
	var pb strings.Builder
	fmt.Fprintf(&pb, "📅 *Speiseplan für %s*\n", escapeMarkdown(patientID))
	if res.Source == planner.SourceFallback {
		pb.WriteString("_Standardplan (Fallback)_\n")
	}
	pb.WriteString("\n")

	for _, day := range res.Plan.Days {
		fmt.Fprintf(&pb, "*%s* (%.0f kcal)\n", day.DayName, day.DailyKcal)
		for _, meal := range day.Meals {
			fmt.Fprintf(&pb, "• %s\n", escapeMarkdown(meal.Name))
		}
		pb.WriteString("\n")
	}

	if !res.Variety.OK() {
		pb.WriteString("🔁 *Wiederholungen*\n")
		for _, r := range res.Variety.Repetitions {
			fmt.Fprintf(&pb, "• %s: %s\n", escapeMarkdown(r.Name), strings.Join(r.ExtraDays, ", "))
		}
	}
	return pb.String()
}

// FormatUsageReport renders daily token usage and health as Markdown.
func FormatUsageReport(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs, %d fallbacks)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.Fallbacks)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
