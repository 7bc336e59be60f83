package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valet/pkg/agent"
	"valet/pkg/api"
	"valet/pkg/channels"
	_ "valet/pkg/channels/autoload" // Register channel factories
	"valet/pkg/config"
	"valet/pkg/gateway"
	"valet/pkg/handler"
	"valet/pkg/llm"
	_ "valet/pkg/llm/autoload" // Register LLM providers
	"valet/pkg/mail"
	"valet/pkg/monitor"
	"valet/pkg/search"
	"valet/pkg/session"
	"valet/pkg/tools"
	"valet/pkg/transcribe"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	monitor.PrintBanner()

	cfg, sysCfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v\n", err)
	}

	monitor.SetupSlog(sysCfg.LogLevel)

	// The session store outlives configuration reloads so conversations
	// survive a config edit.
	store := session.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startEviction(ctx, store, sysCfg)

	reloadCh := config.WatchConfig(ctx, "config.json", "system.json")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		gw, err := buildGateway(cfg, sysCfg, store)
		if err != nil {
			log.Fatalf("❌ Failed to build gateway: %v\n", err)
		}

		select {
		case <-sigChan:
			slog.Info("Received shutdown signal, stopping services")
			gw.StopAll()
			slog.Info("Bye!")
			return

		case <-reloadCh:
			slog.Info("Configuration changed, reloading")
			gw.StopAll()

			newCfg, newSys, err := config.Load()
			if err != nil {
				slog.Error("Reload failed, keeping previous configuration", "error", err)
				continue
			}
			cfg, sysCfg = newCfg, newSys
			monitor.SetupSlog(sysCfg.LogLevel)
		}
	}
}

// buildGateway assembles the full pipeline for one configuration
// generation: LLM client stack, agent engine, tools, channels.
func buildGateway(cfg *config.Config, sysCfg *config.SystemConfig, store *session.Store) (*gateway.GatewayManager, error) {
	client, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		return nil, err
	}

	engine := agent.NewEngine(client, store, cfg.SystemPrompt, sysCfg)

	searchMgr := search.NewManager("duckduckgo")
	searchMgr.Register(search.NewDuckDuckGo())
	engine.RegisterTool(tools.NewSearchTool(searchMgr, sysCfg.SearchMaxResults))

	registerMailTools(engine, cfg.Mail)

	transcriber := newTranscriber(cfg.LLM)

	h := handler.NewChatHandler(engine)

	gw, err := gateway.NewGatewayBuilder().
		WithMonitor(monitor.NewCLIMonitor()).
		WithChannelLoader(func(g *gateway.GatewayManager) {
			channels.LoadFromConfig(g, cfg.Channels, transcriber, sysCfg)
		}).
		WithHandler(h).
		Build()
	if err != nil {
		return nil, err
	}

	// notify_operator needs the gateway as its responder, so it joins
	// the registry after Build.
	if cfg.OperatorChatID != "" {
		operator := api.SessionContext{
			ChannelID: "telegram",
			UserID:    cfg.OperatorChatID,
			ChatID:    cfg.OperatorChatID,
			Username:  "operator",
		}
		engine.RegisterTool(tools.NewNotifyTool(gw, operator))
	}

	return gw, nil
}

// registerMailTools parses the optional mail section and registers the
// mailbox tools when the account is usable. A broken mail config only
// disables the tools; it never stops the assistant.
func registerMailTools(engine *agent.Engine, rawMail jsoniter.RawMessage) {
	if len(rawMail) == 0 {
		return
	}

	var mailCfg mail.Config
	if err := json.Unmarshal(rawMail, &mailCfg); err != nil {
		slog.Warn("Invalid mail config, mailbox tools disabled", "error", err)
		return
	}
	if !mailCfg.Configured() {
		return
	}

	mailCfg.ApplyDefaults()
	if err := mailCfg.Validate(); err != nil {
		slog.Warn("Mail config rejected, mailbox tools disabled", "error", err)
		return
	}

	imapClient := mail.NewClient(mailCfg.IMAP)
	engine.RegisterTool(tools.NewMailboxListTool(imapClient))
	slog.Info("Mailbox tools enabled", "account", mailCfg.IMAP.Username)

	if mailCfg.SMTPConfigured() {
		engine.RegisterTool(tools.NewMailboxSendTool(mailCfg.SMTP, mailCfg.DefaultFrom))
	}
}

// newTranscriber builds the voice transcriber from the first OpenAI key
// in the LLM config. Without one, voice notes are politely refused by
// the channel.
func newTranscriber(rawLLM jsoniter.RawMessage) transcribe.Transcriber {
	var groups []llm.ProviderGroupConfig
	if err := json.Unmarshal(rawLLM, &groups); err != nil {
		return nil
	}

	for _, group := range groups {
		if group.Type == "openai" && len(group.APIKeys) > 0 {
			return transcribe.NewOpenAITranscriber(group.APIKeys[0], "")
		}
	}

	slog.Info("No OpenAI key configured, voice transcription disabled")
	return nil
}

// startEviction reaps idle sessions on a fixed interval when the knob
// is set. Zero disables it and sessions live for the process lifetime.
func startEviction(ctx context.Context, store *session.Store, sysCfg *config.SystemConfig) {
	minutes := sysCfg.SessionIdleEvictMinutes
	if minutes <= 0 {
		return
	}

	interval := time.Duration(minutes) * time.Minute
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := store.EvictIdleOlderThan(time.Now().Add(-interval)); n > 0 {
					slog.Info("Evicted idle sessions", "count", n)
				}
			}
		}
	}()
}
