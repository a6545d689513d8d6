package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/compound/compound"
	"github.com/mgomes/compound/manifest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

var replCommands = []string{
	":attach", ":detach", ":parts", ":isa", ":method", ":respond", ":help", ":clear", ":quit",
}

type historyEntry struct {
	input  string
	output string
	isErr  bool
	isLog  bool
}

// manifestChangedMsg carries a reload from the manifest watcher.
type manifestChangedMsg struct {
	manifest *manifest.Manifest
	err      error
}

type replModel struct {
	textInput   textinput.Model
	set         *manifest.Set
	logs        *logSink
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showParts   bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlP key.Binding
	CtrlH key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous command"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next command"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlP: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "toggle parts"),
	),
	CtrlH: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLCmd(opts *cliOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "repl <manifest>",
		Short: "Open an interactive console on the manifest's host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(args[0], watch, opts)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Apply manifest edits while the console is open")
	return cmd
}

// logSink collects log lines written while the console owns the terminal.
type logSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			s.lines = append(s.lines, line)
		}
	}
	return len(p), nil
}

func (s *logSink) Sync() error { return nil }

func (s *logSink) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.lines
	s.lines = nil
	return out
}

// consoleLogger writes into sink so warnings show up in the console history
// instead of corrupting the screen.
func consoleLogger(sink *logSink, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), sink, level))
}

func newREPLModel(set *manifest.Set, logs *logSink) replModel {
	ti := textinput.New()
	ti.Placeholder = "operation args... or :help"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "compound> "

	if logs == nil {
		logs = &logSink{}
	}
	return replModel{
		textInput:  ti,
		set:        set,
		logs:       logs,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case manifestChangedMsg:
		m = m.applyManifest(msg)
		m = m.collectLogs()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlP):
			m.showParts = !m.showParts
			return m, nil

		case key.Matches(msg, keys.CtrlH):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}
			m.cmdHistory = append(m.cmdHistory, input)
			m.textInput.SetValue("")
			m.historyIdx = -1

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m = m.collectLogs()
				return m, cmd
			}

			output, isErr := m.evaluate(input)
			m = m.record(input, output, isErr)
			m = m.collectLogs()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) record(input, output string, isErr bool) replModel {
	m.history = append(m.history, historyEntry{
		input:  input,
		output: output,
		isErr:  isErr,
	})
	return m
}

func (m replModel) collectLogs() replModel {
	for _, line := range m.logs.drain() {
		m.history = append(m.history, historyEntry{output: line, isLog: true})
	}
	return m
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}
	host := m.set.Host

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	case ":parts", ":p":
		m = m.record(input, describeParts(host), false)
	case ":attach", ":detach", ":isa":
		mod, ok := m.set.Module(arg)
		if !ok {
			return m.record(input, fmt.Sprintf("Unknown module: %q", arg), true), nil
		}
		switch cmd {
		case ":attach":
			if _, err := host.Attach(mod); err != nil {
				return m.record(input, err.Error(), true), nil
			}
			m = m.record(input, "Attached "+mod.String(), false)
		case ":detach":
			if _, ok := host.Detach(mod); !ok {
				return m.record(input, mod.String()+" is not attached", true), nil
			}
			m = m.record(input, "Detached "+mod.String(), false)
		case ":isa":
			m = m.record(input, fmt.Sprint(host.IsA(mod)), false)
		}
	case ":method":
		method, err := host.Method(arg)
		if err != nil {
			return m.record(input, err.Error(), true), nil
		}
		m = m.record(input, method.String(), false)
	case ":respond":
		m = m.record(input, fmt.Sprint(host.RespondTo(arg)), false)
	default:
		m = m.record(input, fmt.Sprintf("Unknown command: %s", cmd), true)
	}
	return m, nil
}

func (m replModel) applyManifest(msg manifestChangedMsg) replModel {
	if msg.err != nil {
		return m.record("", "Reload failed: "+msg.err.Error(), true)
	}
	if err := m.set.Apply(msg.manifest); err != nil {
		return m.record("", "Reload failed: "+err.Error(), true)
	}
	return m.record("", "Manifest reloaded", false)
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	words := strings.Fields(input)
	if len(words) == 0 {
		return m
	}
	lastWord := words[len(words)-1]

	var candidates []string
	switch {
	case len(words) == 1 && strings.HasPrefix(lastWord, ":"):
		candidates = replCommands
	case len(words) == 1:
		candidates = resolvableNames(m.set.Host)
	case words[0] == ":attach" || words[0] == ":detach" || words[0] == ":isa":
		candidates = m.set.Names()
	case words[0] == ":method" || words[0] == ":respond":
		candidates = resolvableNames(m.set.Host)
	}

	var completions []string
	for _, c := range candidates {
		if strings.HasPrefix(c, lastWord) {
			completions = append(completions, c)
		}
	}

	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}

	return m
}

// evaluate treats input as "operation arg..." and calls it on the host.
func (m replModel) evaluate(input string) (string, bool) {
	words := strings.Fields(input)
	result, err := m.set.Host.Invoke(words[0], parseArgs(words[1:]), nil, nil)
	if err != nil {
		return err.Error(), true
	}
	return formatValue(result), false
}

func describeParts(h *compound.Host) string {
	if h.Registry().Len() == 0 {
		return "no parts"
	}
	var names []string
	for p := range h.Registry().Parts() {
		names = append(names, p.Module().String())
	}
	return strings.Join(names, " > ")
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("compound console")
	host := mutedStyle.Render(m.set.Host.String())
	b.WriteString(header + " " + host + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += len(replCommands) + 4
	}
	if m.showParts {
		reservedLines += m.set.Host.Registry().Len() + 3
	}
	availableHeight := max(m.height-reservedLines, 0)

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = len(m.history) - availableHeight
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		switch {
		case entry.isLog:
			b.WriteString("  " + mutedStyle.Render(entry.output) + "\n")
			continue
		case entry.isErr:
			b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
		default:
			b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showParts {
		b.WriteString(renderPartsPanel(m.set.Host))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+p") + helpDescStyle.Render(" parts  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderPartsPanel(h *compound.Host) string {
	if h.Registry().Len() == 0 {
		return borderStyle.Render(mutedStyle.Render("No modules attached"))
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Parts"))
	nameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for mod := range h.Registry().Pairs() {
		line := fmt.Sprintf("  %s  %s", nameStyle.Render(mod.String()),
			strings.Join(mod.PublicOperations(), ", "))
		lines = append(lines, line)
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate command history"},
		{"Tab", "Autocomplete"},
		{"op args", "Call an operation on the host"},
		{":attach M", "Attach module M"},
		{":detach M", "Detach module M"},
		{":parts", "List parts by priority"},
		{":isa M", "Report whether the host is an M"},
		{":method op", "Show where op resolves"},
		{":respond op", "Report whether the host responds to op"},
		{":help", "Toggle this help"},
		{":clear", "Clear history"},
		{":quit", "Exit console"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-12s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func runREPL(path string, watch bool, opts *cliOptions) error {
	logs := &logSink{}
	logger := consoleLogger(logs, opts.verbose)
	set, err := loadSet(path, logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newREPLModel(set, logs), tea.WithAltScreen())
	if !watch {
		_, err = p.Run()
		return err
	}

	w, err := manifest.NewWatcher(path, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(m *manifest.Manifest, err error) {
			p.Send(manifestChangedMsg{manifest: m, err: err})
		})
	}()
	_, err = p.Run()
	cancel()
	if werr := <-done; err == nil {
		err = werr
	}
	return err
}
