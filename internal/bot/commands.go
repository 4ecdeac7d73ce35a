package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/unitel-app/unitel/internal/models"
)

const (
	studentHelp = `Available commands:
/token - Get an API token for the mobile app
/summary - Show your CGPA and backlog summary
/upcoming - Show upcoming exams
/help - Show this message`

	adminHelp = `Available commands:
/token - Get an API token for the mobile app
/summary - Show your CGPA and backlog summary
/upcoming - Show upcoming exams
/register <owner> [comment] - Link this chat to a student id
/chats - List registered chats
/help - Show this message

Examples:
/register rahul.k "semester 5 batch"
/chats`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeStudentCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":    b.handleStart,
		"token":    b.handleToken,
		"summary":  b.handleSummary,
		"upcoming": b.handleUpcoming,
		"help":     b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"register": b.handleRegister,
		"chats":    b.handleChats,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeStudentCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = studentHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "I track semesters, grades, attendance and exams. Send /help for the command list.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I keep an eye on your academic records.\n\n"
	if b.admins[msg.From.ID] {
		text += "You are an admin. Use /help for the command list."
	} else {
		text += "Use /token to get an API token, /summary for your CGPA."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

// ownerForMessage resolves which student's records a chat refers to. A chat
// registered via /register wins, otherwise the telegram username is used.
func (b *Bot) ownerForMessage(msg *tgbotapi.Message) (string, error) {
	mapping, err := b.tokens.FetchOwnerMappingByChatID(context.Background(), msg.Chat.ID)
	if err == nil && mapping.Owner != "" {
		return mapping.Owner, nil
	}

	if msg.From.UserName != "" {
		return msg.From.UserName, nil
	}

	return "", fmt.Errorf("this chat is not linked to a student id, ask an admin to /register it")
}

func (b *Bot) handleToken(msg *tgbotapi.Message) error {
	owner, err := b.ownerForMessage(msg)
	if err != nil {
		return err
	}

	info, isNew, err := b.tokens.FetchOrCreateOwnerToken(context.Background(), owner)
	if err != nil {
		return fmt.Errorf("failed to fetch token: %w", err)
	}

	if isNew {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
			"🔑 New token for %s:\n\n%s\n\nPut it in the Authorization header as a Bearer token.",
			owner,
			info.Token,
		))
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"🔑 Token for %s:\n\n%s\n\nRequested %d times, last at %s UTC.",
		owner,
		info.Token,
		info.RequestCount,
		info.LastRequestTime.Format("2006-01-02 15:04"),
	))
}

func (b *Bot) handleSummary(msg *tgbotapi.Message) error {
	owner, err := b.ownerForMessage(msg)
	if err != nil {
		return err
	}

	row, err := b.store.FetchSummaryStats(owner, b.calc.FailingGrades)
	if err != nil {
		return fmt.Errorf("failed to fetch summary: %w", err)
	}

	if row.TotalSemesters == 0 {
		return b.sendMessage(msg.Chat.ID, "No semesters recorded yet.")
	}

	cgpa := "n/a"
	if row.CGPA != nil {
		cgpa = fmt.Sprintf("%.2f", *row.CGPA)
	}
	avgSGPA := "n/a"
	if row.AverageSGPA != nil {
		avgSGPA = fmt.Sprintf("%.2f", *row.AverageSGPA)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"📊 Summary for %s:\n\n"+
			"CGPA: %s\n"+
			"Average SGPA: %s\n"+
			"Semesters: %d\n"+
			"Subjects: %d (%d credits)\n"+
			"Backlogs: %d",
		owner,
		cgpa,
		avgSGPA,
		row.TotalSemesters,
		row.TotalSubjects,
		row.TotalCredits,
		row.Backlogs,
	))
}

func (b *Bot) handleUpcoming(msg *tgbotapi.Message) error {
	owner, err := b.ownerForMessage(msg)
	if err != nil {
		return err
	}

	today := time.Now().UTC().Format("2006-01-02")
	exams, err := b.store.ListUpcomingExams(owner, today)
	if err != nil {
		return fmt.Errorf("failed to fetch upcoming exams: %w", err)
	}

	if len(exams) == 0 {
		return b.sendMessage(msg.Chat.ID, "No upcoming exams. Enjoy the break 🎉")
	}

	var out strings.Builder
	out.WriteString("📅 Upcoming exams:\n\n")
	for _, exam := range exams {
		when := exam.ExamDate
		if exam.ExamTime != "" {
			when += " " + exam.ExamTime
		}
		out.WriteString(fmt.Sprintf("📝 %s (%s)\n%s\n\n", exam.SubjectName, exam.ExamType, when))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleRegister(msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		return b.sendMessage(msg.Chat.ID, "Usage:\n/register <owner> [comment] - Link this chat to a student id")
	}

	owner := args[0]
	comment := strings.Join(args[1:], " ")

	mapping := &models.ChatOwnerMapping{
		ChatID:          msg.Chat.ID,
		Owner:           owner,
		Comment:         comment,
		AssociationTime: time.Now().UTC(),
	}

	if err := b.tokens.AssociateChatWithOwner(context.Background(), msg.Chat.ID, mapping); err != nil {
		return fmt.Errorf("failed to register chat: %w", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Chat linked to %s", owner))
}

func (b *Bot) handleChats(msg *tgbotapi.Message) error {
	mappings, err := b.tokens.FetchAllChatMappings(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch chat mappings: %w", err)
	}

	if len(mappings) == 0 {
		return b.sendMessage(msg.Chat.ID, "No registered chats")
	}

	var out strings.Builder
	out.WriteString("Registered chats:\n\n")
	for chatID, mapping := range mappings {
		out.WriteString(fmt.Sprintf(
			"👉🏻 chat %s -> %s\nsince %s UTC",
			chatID,
			mapping.Owner,
			mapping.AssociationTime.Format("2006-01-02 15:04"),
		))
		if mapping.Comment != "" {
			out.WriteString(fmt.Sprintf("\n❓(%s)", mapping.Comment))
		}
		out.WriteString("\n\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
