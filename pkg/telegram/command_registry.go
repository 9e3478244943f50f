package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"mentor/pkg/logger"
)

// CommandContext carries everything a command handler needs
type CommandContext struct {
	Ctx        context.Context
	User       interface{} // Application-level user entity (nil if not registered)
	TelegramID int64
	ChatID     int64
	Command    string
	Args       string
	RawMessage *Message
	Bot        Bot
}

// CommandHandler processes a single command
type CommandHandler func(cmdCtx *CommandContext) error

// CommandMiddleware wraps a handler with cross-cutting behavior
type CommandMiddleware func(next CommandHandler) CommandHandler

// CommandConfig describes a registered command
type CommandConfig struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     CommandHandler
	Middleware  []CommandMiddleware
	Hidden      bool
}

// CommandRegistry routes commands to handlers with per-command middleware
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]*CommandConfig
	global   []CommandMiddleware
	log      *logger.Logger
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry(log *logger.Logger) *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*CommandConfig),
		log:      log,
	}
}

// Use appends middleware applied to every registered command
func (r *CommandRegistry) Use(mw ...CommandMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = append(r.global, mw...)
}

// Register adds a command (and its aliases) to the registry
func (r *CommandRegistry) Register(cfg *CommandConfig) error {
	if cfg == nil || cfg.Name == "" {
		return fmt.Errorf("command config must have a name")
	}
	if cfg.Handler == nil {
		return fmt.Errorf("command %q has no handler", cfg.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := normalizeCommand(cfg.Name)
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}

	r.commands[name] = cfg
	for _, alias := range cfg.Aliases {
		alias = normalizeCommand(alias)
		if _, exists := r.commands[alias]; exists {
			return fmt.Errorf("alias %q already registered", alias)
		}
		r.commands[alias] = cfg
	}

	return nil
}

// MustRegister registers a command and panics on conflict (startup wiring)
func (r *CommandRegistry) MustRegister(cfg *CommandConfig) {
	if err := r.Register(cfg); err != nil {
		panic(err)
	}
}

// Lookup returns the config for a command name, if registered
func (r *CommandRegistry) Lookup(name string) (*CommandConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.commands[normalizeCommand(name)]
	return cfg, ok
}

// Handle dispatches a command through global and per-command middleware
func (r *CommandRegistry) Handle(cmdCtx *CommandContext) error {
	cfg, ok := r.Lookup(cmdCtx.Command)
	if !ok {
		return cmdCtx.Bot.SendMessage(cmdCtx.ChatID,
			"❌ Unknown command. Use /help to see available commands.")
	}

	r.mu.RLock()
	chain := make([]CommandMiddleware, 0, len(r.global)+len(cfg.Middleware))
	chain = append(chain, r.global...)
	chain = append(chain, cfg.Middleware...)
	r.mu.RUnlock()

	handler := cfg.Handler
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	if err := handler(cmdCtx); err != nil {
		r.handleCommandError(cmdCtx, cfg, err)
		return err
	}

	return nil
}

// HelpText builds the /help listing from visible commands
func (r *CommandRegistry) HelpText() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[*CommandConfig]bool)
	var configs []*CommandConfig
	for _, cfg := range r.commands {
		if cfg.Hidden || seen[cfg] {
			continue
		}
		seen[cfg] = true
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Name < configs[j].Name
	})

	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	for _, cfg := range configs {
		b.WriteString(fmt.Sprintf("/%s - %s\n", cfg.Name, cfg.Description))
	}

	return b.String()
}

func (r *CommandRegistry) handleCommandError(cmdCtx *CommandContext, cfg *CommandConfig, err error) {
	var vErr ValidationError
	if isValidationError(err, &vErr) {
		if sendErr := cmdCtx.Bot.SendMessage(cmdCtx.ChatID, vErr.Message); sendErr != nil {
			r.log.Errorw("Failed to send validation error",
				"command", cfg.Name, "chat_id", cmdCtx.ChatID, "error", sendErr)
		}
		return
	}

	r.log.Errorw("Command handler failed",
		"command", cfg.Name, "telegram_id", cmdCtx.TelegramID, "error", err)

	msg := "❌ Something went wrong. Please try again later."
	if cfg.Usage != "" {
		msg = fmt.Sprintf("%s\n\nUsage: %s", msg, cfg.Usage)
	}
	if sendErr := cmdCtx.Bot.SendMessage(cmdCtx.ChatID, msg); sendErr != nil {
		r.log.Errorw("Failed to send error message",
			"command", cfg.Name, "chat_id", cmdCtx.ChatID, "error", sendErr)
	}
}

func isValidationError(err error, target *ValidationError) bool {
	if vErr, ok := err.(ValidationError); ok {
		*target = vErr
		return true
	}
	return false
}

func normalizeCommand(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
