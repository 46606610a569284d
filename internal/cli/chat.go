// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/rigchat/internal/api"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/ui/chat"
	"github.com/jeranaias/rigchat/internal/ui/components"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

const recordExt = ".json"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader wraps liner with a persistent input history.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader(historyFile string) *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &lineReader{line: line, historyFile: historyFile}
	if historyFile == "" {
		return r
	}
	if f, err := os.Open(historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the history (owner read/write only) and restores the terminal.
func (r *lineReader) Close() {
	defer r.line.Close()
	if r.historyFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
}

// =============================================================================
// LINE CHAT
// =============================================================================

// LineChatOptions configures a LineChat.
type LineChatOptions struct {
	Backend  chat.Backend
	Session  *session.Session
	Out      io.Writer
	Renderer Renderer
	Logger   *zap.Logger

	// Confirm asks a yes/no question. Nil answers no.
	Confirm func(question string) bool

	// Timeout bounds each backend call (default: 5m)
	Timeout time.Duration
}

// LineChat is the line-mode chat client. It follows the same session rules
// as the full-screen client.
type LineChat struct {
	backend  chat.Backend
	session  *session.Session
	out      io.Writer
	render   Renderer
	logger   *zap.Logger
	confirm  func(string) bool
	timeout  time.Duration
	notice   noticePrinter
	lastFail string
}

// NewLineChat creates a line-mode client.
func NewLineChat(opts LineChatOptions) *LineChat {
	c := &LineChat{
		backend: opts.Backend,
		session: opts.Session,
		out:     opts.Out,
		render:  opts.Renderer,
		logger:  opts.Logger,
		confirm: opts.Confirm,
		timeout: opts.Timeout,
	}
	if c.session == nil {
		c.session = session.New(session.Config{})
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.render == nil {
		c.render = PlainRenderer{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.confirm == nil {
		c.confirm = func(string) bool { return false }
	}
	if c.timeout <= 0 {
		c.timeout = 5 * time.Minute
	}
	c.notice = newNoticePrinter(c.out)
	return c
}

// Session returns the session the client drives.
func (c *LineChat) Session() *session.Session {
	return c.session
}

// Run reads lines until /quit, Ctrl+D or ctx is cancelled.
func (c *LineChat) Run(ctx context.Context, historyFile string) error {
	reader := newLineReader(historyFile)
	defer reader.Close()

	c.confirm = func(question string) bool {
		answer, err := reader.Prompt(question + " [y/N] ")
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}

	if c.CheckBackend(ctx) {
		c.RefreshModels(ctx)
	}
	fmt.Fprintf(c.out, "rigchat %s - model %s. Type /help for commands.\n", Version, c.session.Model())

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := reader.Prompt("you> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			if errors.Is(err, liner.ErrPromptAborted) {
				// Ctrl+C clears the line.
				continue
			}
			return err
		}
		if c.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute handles one input line. It returns true when the user asked to
// quit.
func (c *LineChat) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.Send(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	cmd, rest := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true
	case "/help", "/h", "/?":
		c.printHelp()
	case "/new", "/clear":
		c.NewChat()
	case "/save":
		if len(rest) != 1 {
			c.notice.info("Usage: /save <name>")
			break
		}
		c.Save(ctx, rest[0])
	case "/load":
		if len(rest) != 1 {
			c.notice.info("Usage: /load <file>")
			break
		}
		c.Load(ctx, rest[0])
	case "/delete", "/rm":
		if len(rest) != 1 {
			c.notice.info("Usage: /delete <file>")
			break
		}
		c.Delete(ctx, rest[0])
	case "/rename", "/mv":
		if len(rest) != 2 {
			c.notice.info("Usage: /rename <file> <new name>")
			break
		}
		c.Rename(ctx, rest[0], rest[1])
	case "/model", "/m":
		if len(rest) == 0 {
			c.printModels()
			break
		}
		c.SwitchModel(rest[0])
	case "/chats", "/ls":
		c.ListChats(ctx)
	case "/export":
		if len(rest) != 1 {
			c.notice.info("Usage: /export <file.md|file.txt>")
			break
		}
		c.Export(rest[0])
	case "/history":
		c.printHistory()
	case "/retry":
		c.Retry(ctx)
	default:
		c.notice.warn(fmt.Sprintf("Unknown command %s (type /help)", fields[0]))
	}
	return false
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Send sends one message and prints the reply.
func (c *LineChat) Send(ctx context.Context, text string) {
	turn, ok := c.session.BeginTurn(text)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.backend.Complete(ctx, turn.Request)
	if err != nil {
		c.lastFail = turn.Request.UserInput
		c.logger.Warn("CHAT_SEND_FAILED", zap.Error(err))
		c.notice.err(errorText(err) + " (type /retry to resend)")
		return
	}
	c.lastFail = ""
	if !c.session.ApplyReply(turn.Epoch, resp.ConversationHistory) {
		return
	}
	c.display(model.AssistantLabel, resp.Response, components.HintAssistant)
}

// Retry resends the last failed message.
func (c *LineChat) Retry(ctx context.Context) {
	if c.lastFail == "" {
		c.notice.info("Nothing to retry")
		return
	}
	c.Send(ctx, c.lastFail)
}

// NewChat clears the conversation.
func (c *LineChat) NewChat() {
	c.session.Reset()
	c.lastFail = ""
	c.notice.info("New chat started")
}

// Save stores the conversation as name.json.
func (c *LineChat) Save(ctx context.Context, name string) {
	filename := name + recordExt
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.backend.SaveChat(ctx, filename, c.session.History())
	if err != nil {
		c.notice.err(errorText(err))
		return
	}
	c.session.MarkSaved(filename)
	c.notice.ok(msg)
}

// Load replaces the conversation with a stored record and prints it.
func (c *LineChat) Load(ctx context.Context, filename string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	history, err := c.backend.LoadChat(ctx, filename)
	if err != nil {
		c.notice.err(errorText(err))
		return
	}
	c.session.Load(filename, history)
	c.lastFail = ""
	for _, m := range history {
		fmt.Fprintln(c.out, c.render.Render(components.EntryFromMessage(m)))
	}
	c.notice.ok("Loaded " + filename)
}

// Delete removes a stored record after confirmation.
func (c *LineChat) Delete(ctx context.Context, filename string) {
	if !c.confirm(fmt.Sprintf("Delete chat record %s?", filename)) {
		c.notice.info("Cancelled")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.backend.DeleteChat(ctx, filename)
	if err != nil {
		c.notice.err(errorText(err))
		return
	}
	c.session.ForgetRecord(filename)
	c.notice.ok(msg)
}

// Rename renames a stored record to newName.json.
func (c *LineChat) Rename(ctx context.Context, filename, newName string) {
	newFilename := newName + recordExt
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.backend.RenameChat(ctx, filename, newFilename)
	if err != nil {
		c.notice.err(errorText(err))
		return
	}
	c.session.RenameRecord(filename, newFilename)
	c.notice.ok(msg)
}

// ListChats prints the stored records.
func (c *LineChat) ListChats(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chats, err := c.backend.ListChats(ctx)
	if err != nil {
		c.notice.err(errorText(err))
		return
	}
	if len(chats) == 0 {
		c.notice.info("No saved chats")
		return
	}
	current := c.session.RecordName()
	for _, name := range chats {
		marker := "  "
		if name == current {
			marker = "* "
		}
		fmt.Fprintln(c.out, marker+components.Sanitize(name))
	}
}

// Export writes the conversation to a Markdown or text file.
func (c *LineChat) Export(path string) {
	title := strings.TrimSuffix(c.session.RecordName(), recordExt)
	written, err := export.ToFile(c.session.History(), path, export.Meta{
		Title: title,
		Model: c.session.Model(),
	})
	if err != nil {
		c.notice.err(err.Error())
		return
	}
	c.notice.ok("Exported to " + written)
}

// SwitchModel selects a model from the session's set.
func (c *LineChat) SwitchModel(name string) {
	if err := c.session.SwitchModel(name); err != nil {
		c.notice.err(err.Error())
		return
	}
	c.notice.ok("Model switched to " + c.session.Model())
}

// RefreshModels replaces the model set with the backend's. On failure the
// configured set stays.
func (c *LineChat) RefreshModels(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.backend.ListModels(ctx)
	if err != nil {
		c.logger.Warn("CHAT_MODELS_FAILED", zap.Error(err))
		c.notice.warn("Using built-in model list: " + errorText(err))
		return
	}
	c.session.SetModels(resp.Models, resp.Default)
}

// healthChecker is implemented by backends that serve /health.
type healthChecker interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
}

// CheckBackend reports whether the backend answers, warning when it does not.
func (c *LineChat) CheckBackend(ctx context.Context) bool {
	hc, ok := c.backend.(healthChecker)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	health, err := hc.Health(ctx)
	if err != nil {
		c.logger.Warn("BACKEND_UNREACHABLE", zap.Stringer("error_type", api.TypeOf(err)), zap.Error(err))
		if api.IsConnection(err) {
			c.notice.warn("Backend not reachable (" + errorText(err) + "). Start it with 'rigchat serve'.")
		} else {
			c.notice.warn("Backend health check failed: " + errorText(err))
		}
		return false
	}
	c.logger.Debug("BACKEND_OK", zap.String("version", health.Version), zap.Int("records", health.Records))
	return true
}

// =============================================================================
// OUTPUT
// =============================================================================

func (c *LineChat) display(sender, text string, hint components.StyleHint) {
	fmt.Fprintln(c.out, c.render.Render(components.NewEntry(sender, text, hint)))
}

func (c *LineChat) printHistory() {
	history := c.session.History()
	if len(history) == 0 {
		c.notice.info("History is empty")
		return
	}
	for _, m := range history {
		fmt.Fprintln(c.out, c.render.Render(components.EntryFromMessage(m)))
	}
}

func (c *LineChat) printModels() {
	current := c.session.Model()
	for _, m := range c.session.Models() {
		marker := "  "
		if m == current {
			marker = "* "
		}
		fmt.Fprintln(c.out, marker+m)
	}
}

func (c *LineChat) printHelp() {
	fmt.Fprint(c.out, `Commands:
  /new                    Start a new chat
  /save <name>            Save as <name>.json
  /load <file>            Load a saved chat
  /delete <file>          Delete a saved chat
  /rename <file> <name>   Rename a saved chat to <name>.json
  /model [name]           Show or switch the model
  /chats                  List saved chats
  /history                Show this conversation
  /export <file>          Write this conversation to .md or .txt
  /retry                  Resend the last failed message
  /quit                   Exit
`)
}

// noticePrinter writes status lines with the same indicators as the
// full-screen status bar.
type noticePrinter struct {
	w     io.Writer
	theme *styles.Theme
}

func newNoticePrinter(w io.Writer) noticePrinter {
	return noticePrinter{w: w, theme: styles.NewTheme(styles.ThemeAuto)}
}

func (p noticePrinter) print(level styles.NoticeLevel, text string) {
	fmt.Fprintln(p.w, p.theme.RenderNotice(level, components.Sanitize(text)))
}

func (p noticePrinter) info(text string) { p.print(styles.NoticeInfo, text) }
func (p noticePrinter) ok(text string)   { p.print(styles.NoticeSuccess, text) }
func (p noticePrinter) warn(text string) { p.print(styles.NoticeWarning, text) }
func (p noticePrinter) err(text string)  { p.print(styles.NoticeError, text) }

// errorText returns the user-facing part of err.
func errorText(err error) string {
	var cerr *api.ClientError
	if errors.As(err, &cerr) && cerr.Message != "" {
		return cerr.Message
	}
	return err.Error()
}
