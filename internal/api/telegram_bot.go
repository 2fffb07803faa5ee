// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/whlops/port-weather-bot/internal/usecases"
)

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.PortUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.PortUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
	}, nil
}

// Start begins listening for and handling Telegram messages
func (t *TelegramBot) Start() {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		t.handleMessage(update)
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	switch {
	case update.Message.IsCommand():
		t.handleCommand(update.Message, &msg)
	default:
		t.handleNonCommand(update.Message, &msg)
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	switch message.Command() {
	case "start":
		log.Printf("Handling /start command for user %s", message.From.UserName)
		msg.Text = "Welcome to the Port Weather Bot! Use /ports to see the monitored ports or /help for more information."

	case "help":
		log.Printf("Handling /help command for user %s", message.From.UserName)
		msg.Text = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/ports - Show the monitored ports\n" +
			"/port [code] - Show the latest forecast for a port\n" +
			"/risk [code] - Show the risk assessment for a port\n" +
			"/help - Show this help message"

	case "ports":
		log.Printf("Handling /ports command for user %s", message.From.UserName)
		t.handlePortsCommand(msg)

	case "port":
		args := message.CommandArguments()
		log.Printf("Handling /port command with args '%s' for user %s", args, message.From.UserName)
		t.handlePortCommand(args, msg)

	case "risk":
		args := message.CommandArguments()
		log.Printf("Handling /risk command with args '%s' for user %s", args, message.From.UserName)
		t.handleRiskCommand(args, msg)

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), message.From.UserName)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handlePortsCommand processes the /ports command
func (t *TelegramBot) handlePortsCommand(msg *tgbotapi.MessageConfig) {
	ports := t.useCase.ListPorts()
	if len(ports) == 0 {
		msg.Text = "No ports are registered for monitoring."
		return
	}

	msg.Text = "Monitored ports:\n\n"
	for _, port := range ports {
		msg.Text += "• " + port + "\n"
	}
	msg.Text += "\nUse /risk [code] to get the risk assessment for a port."
}

// handlePortCommand processes the /port [code] command
func (t *TelegramBot) handlePortCommand(args string, msg *tgbotapi.MessageConfig) {
	if args == "" {
		msg.Text = "Please specify a port code. Example: /port KHHSG"
		return
	}

	port, records, issuedTime, err := t.useCase.GetPortForecast(args)
	if err != nil {
		msg.Text = fmt.Sprintf("No forecast found for port '%s'. Use /ports to see the monitored ports.", strings.TrimSpace(args))
		log.Printf("Error fetching port forecast: %v", err)
		return
	}

	msg.Text = t.useCase.FormatForecastInfo(port, records, issuedTime)
}

// handleRiskCommand processes the /risk [code] command
func (t *TelegramBot) handleRiskCommand(args string, msg *tgbotapi.MessageConfig) {
	if args == "" {
		msg.Text = "Please specify a port code. Example: /risk KHHSG"
		return
	}

	assessment, err := t.useCase.GetPortRisk(args)
	if err != nil {
		msg.Text = fmt.Sprintf("No forecast data for port '%s'. Use /ports to see the monitored ports.", strings.TrimSpace(args))
		log.Printf("Error fetching port risk: %v", err)
		return
	}

	msg.Text = t.useCase.FormatRiskInfo(args, assessment)
}

// handleNonCommand processes regular messages via the AI interpreter
func (t *TelegramBot) handleNonCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	log.Printf("Received non-command message from user %s: %s", message.From.UserName, message.Text)

	response, err := t.useCase.HandleNaturalLanguageQuery(context.Background(), message.Text)
	if err != nil {
		msg.Text = "I don't understand. Use /help to see available commands."
		log.Printf("Error handling natural language query: %v", err)
		return
	}

	msg.Text = response
}
