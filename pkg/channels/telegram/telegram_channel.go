package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"valet/pkg/api"
	"valet/pkg/transcribe"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig encapsulates the credentials required to authenticate with
// the Telegram Bot API.
type TelegramConfig struct {
	Token string `json:"token"` // The secret BOT API string provided by @BotFather
}

const welcomeText = "Hi! I'm your personal assistant. Send me a message or a voice note and I'll do my best to help."

const helpText = "Talk to me like you would to a person. I can search the web, check and send email, and answer questions. Voice notes work too.\n\n/start - reset the greeting\n/help - show this message"

// TelegramChannel is the production implementation of gateway.Channel for
// the Telegram platform. It handles text messages, bot commands, voice
// note transcription, and fragmented delivery of long replies.
type TelegramChannel struct {
	config       TelegramConfig        // Auth credentials
	bot          *tgbotapi.BotAPI      // Underlying Telegram SDK client
	messageLimit int                   // Maximum character count per single message bubble
	httpClient   *http.Client          // Client for downloading voice files from Telegram
	transcriber  transcribe.Transcriber
	stopCtx      context.Context    // Context used to forcibly abort the long-polling HTTP request
	stopCancel   context.CancelFunc // Function to trigger the abort
}

func NewTelegramChannel(cfg TelegramConfig, transcriber transcribe.Transcriber, msgLimit int, timeoutMs int) (api.Channel, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Create a dedicated HTTP client for the bot so we can forcefully close it on reload.
	// By tying the DialContext to our stopCtx, active long-polling requests will be
	// instantly aborted when Stop() is called, preventing the 409 Conflict.
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	botHttpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: func(dialCtx context.Context, network, addr string) (net.Conn, error) {
				// Wrap the context with our stopCtx so we can arbitrarily kill the connection
				mergedCtx, mergedCancel := context.WithCancel(dialCtx)
				go func() {
					select {
					case <-ctx.Done():
						mergedCancel()
					case <-mergedCtx.Done():
					}
				}()
				return dialer.DialContext(mergedCtx, network, addr)
			},
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, botHttpClient)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName)

	return &TelegramChannel{
		config:       cfg,
		bot:          bot,
		messageLimit: msgLimit,
		transcriber:  transcriber,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMs) * time.Millisecond,
		},
		stopCtx:    ctx,
		stopCancel: cancel,
	}, nil
}

// ID returns the unique platform identifier "telegram".
func (t *TelegramChannel) ID() string {
	return "telegram"
}

// Start initiates the long-polling update loop in a background goroutine.
// It maps platform-specific update types (text, commands, voice notes)
// into the internal UnifiedMessage format.
func (t *TelegramChannel) Start(ctx api.ChannelContext) error {
	offset := 0

	// Process updates with a manual loop instead of GetUpdatesChan so the
	// offset stays under our control and stopCtx can abort the poll.
	go func() {
		for {
			select {
			case <-t.stopCtx.Done():
				return // Gracefully exit on shutdown
			default:
			}

			reqConfig := tgbotapi.NewUpdate(offset)
			reqConfig.Timeout = 60

			updates, err := t.bot.GetUpdates(reqConfig)
			if err != nil {
				select {
				case <-t.stopCtx.Done():
					return // Ignore error if we are shutting down
				default:
					slog.Debug("Failed to get telegram updates", "error", err)
					time.Sleep(3 * time.Second)
					continue
				}
			}

			for _, update := range updates {
				if update.UpdateID >= offset {
					offset = update.UpdateID + 1

					if update.Message == nil {
						continue
					}

					session := api.SessionContext{
						ChannelID: "telegram",
						UserID:    strconv.FormatInt(update.Message.From.ID, 10),
						ChatID:    strconv.FormatInt(update.Message.Chat.ID, 10),
						Username:  update.Message.From.UserName,
					}

					// Bot commands short-circuit before the agent sees them
					if update.Message.IsCommand() {
						t.handleCommand(session, update.Message.Command())
						continue
					}

					// Voice notes are transcribed off the update loop so a
					// slow download never stalls polling
					if update.Message.Voice != nil {
						go t.handleVoice(ctx, session, update.Message.Voice.FileID)
						continue
					}

					content := update.Message.Text
					if content == "" {
						continue
					}

					msg := &api.UnifiedMessage{
						Session: session,
						Content: content,
						Raw:     update.Message,
					}
					ctx.OnMessage(t.ID(), msg)
				}
			}
		}
	}()

	return nil
}

func (t *TelegramChannel) handleCommand(session api.SessionContext, command string) {
	var reply string
	switch command {
	case "start":
		reply = welcomeText
	case "help":
		reply = helpText
	default:
		reply = "Unknown command. Try /help."
	}

	if err := t.Send(session, reply); err != nil {
		slog.Error("Failed to answer command", "command", command, "error", err)
	}
}

// handleVoice downloads a voice note, transcribes it, and feeds the
// transcript into the normal message path.
func (t *TelegramChannel) handleVoice(ctx api.ChannelContext, session api.SessionContext, fileID string) {
	if t.transcriber == nil {
		if err := t.Send(session, "Voice notes aren't supported right now, sorry. Please type your message."); err != nil {
			slog.Error("Failed to send voice fallback", "error", err)
		}
		return
	}

	audio, filename, err := t.downloadFile(fileID)
	if err != nil {
		slog.Error("Voice download failed", "file_id", fileID, "error", err)
		t.sendVoiceError(session)
		return
	}

	text, err := t.transcriber.Transcribe(t.stopCtx, audio, filename)
	if err != nil {
		slog.Error("Voice transcription failed", "file_id", fileID, "error", err)
		t.sendVoiceError(session)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		t.sendVoiceError(session)
		return
	}

	slog.Info("Voice note transcribed", "user", session.Username, "chars", len(text))

	msg := &api.UnifiedMessage{
		Session: session,
		Content: text,
	}
	ctx.OnMessage(t.ID(), msg)
}

func (t *TelegramChannel) sendVoiceError(session api.SessionContext) {
	if err := t.Send(session, "Sorry, I couldn't make out that voice note. Please try again or type it out."); err != nil {
		slog.Error("Failed to send voice error", "error", err)
	}
}

// downloadFile fetches a Telegram file into memory. Voice notes are
// small, so there is no need to stage them on disk.
func (t *TelegramChannel) downloadFile(fileID string) ([]byte, string, error) {
	fileInfo, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get file info: %w", err)
	}

	// Combine download URL directly from Token to reduce API round trips
	fileURL := fileInfo.Link(t.config.Token)

	resp, err := t.httpClient.Get(fileURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download file: status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file data: %w", err)
	}

	return data, fileInfo.FilePath, nil
}

// SendSignal implements the gateway.SignalingChannel interface
func (t *TelegramChannel) SendSignal(session api.SessionContext, signal string) error {
	if signal == api.SignalTyping {
		chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
		if err != nil {
			return err
		}
		action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
		_, err = t.bot.Send(action)
		return err
	}
	return nil
}

func (t *TelegramChannel) Stop() error {
	t.stopCancel() // Cancel our custom long-polling loop immediately

	// Forcefully close lingering HTTP connections.
	// Note: HTTP/1.1 connections stuck in Read won't abort via CloseIdleConnections().
	// But it will clear the pool.
	if httpClient, ok := t.bot.Client.(*http.Client); ok && httpClient != nil {
		if transport, ok := httpClient.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}

	return nil
}

func (t *TelegramChannel) Send(session api.SessionContext, message string) error {
	// Telegram Chat ID must be int64
	chatID, err := strconv.ParseInt(session.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id for telegram: %s", session.ChatID)
	}

	for i, chunk := range splitMessage(message, t.messageLimit) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed at chunk %d: %w", i, err)
		}
	}

	return nil
}

// splitMessage cuts a reply into chunks of at most limit runes. A
// non-positive limit falls back to Telegram's hard message cap.
func splitMessage(message string, limit int) []string {
	if limit <= 0 {
		limit = 4096
	}

	msgRunes := []rune(message)
	totalLen := len(msgRunes)
	if totalLen <= limit {
		return []string{message}
	}

	var chunks []string
	for i := 0; i < totalLen; i += limit {
		end := i + limit
		if end > totalLen {
			end = totalLen
		}
		chunks = append(chunks, string(msgRunes[i:end]))
	}
	return chunks
}
