// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/ui"
)

// wizardKeysAnnotation marks commands whose help lists the wizard key bindings
const wizardKeysAnnotation = "onboard/wizard-keys"

const defaultHelpWidth = 100

// helpDoc accumulates a markdown help page. Sections with an empty body
// are dropped.
type helpDoc struct {
	md      strings.Builder
	heading string
}

func (d *helpDoc) section(title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(&d.md, "%s %s\n\n%s\n\n", d.heading, title, body)
}

func (d *helpDoc) para(text string) {
	if text != "" {
		fmt.Fprintf(&d.md, "%s\n\n", strings.TrimRight(text, "\n"))
	}
}

func (d *helpDoc) String() string {
	return d.md.String()
}

// commandSections covers what help and usage share
func (d *helpDoc) commandSections(cmd *cobra.Command) {
	d.section("Available Commands", commandList(cmd))
	d.section("Flags", flagBlock(cmd.HasAvailableLocalFlags(), cmd.LocalFlags().FlagUsages))
	d.section("Global Flags", flagBlock(cmd.HasAvailableInheritedFlags(), cmd.InheritedFlags().FlagUsages))
}

// GenerateHelpMarkdown creates the markdown help page for cmd
func GenerateHelpMarkdown(cmd *cobra.Command) string {
	return generateHelpMarkdown(cmd)
}

func generateHelpMarkdown(cmd *cobra.Command) string {
	d := &helpDoc{heading: "##"}
	fmt.Fprintf(&d.md, "# %s\n\n", cmd.Name())

	if cmd.Long != "" {
		d.para(cmd.Long)
	} else {
		d.para(cmd.Short)
	}

	if cmd.Runnable() {
		d.section("Usage", fenced(cmd.UseLine()))
	}
	if len(cmd.Aliases) > 0 {
		d.section("Aliases", "`"+strings.Join(cmd.Aliases, "`, `")+"`")
	}
	d.section("Examples", fenced(cmd.Example))
	d.commandSections(cmd)

	if _, ok := cmd.Annotations[wizardKeysAnnotation]; ok {
		d.section("Wizard Keys", wizardKeyTable())
	}
	if !cmd.HasParent() {
		d.section("Environment", environmentNote())
	}
	d.section("Additional Help Topics", helpTopicList(cmd))

	if hasSubCommands(cmd) {
		fmt.Fprintf(&d.md, "Use `%s [command] --help` for more information about a command.\n", cmd.CommandPath())
	}
	return d.String()
}

// generateUsageMarkdown is the shorter page shown after a usage error
func generateUsageMarkdown(cmd *cobra.Command) string {
	d := &helpDoc{heading: "###"}
	d.md.WriteString("## Usage\n\n")
	if cmd.Runnable() {
		d.para(fenced(cmd.UseLine()))
	}
	d.commandSections(cmd)
	return d.String()
}

func fenced(s string) string {
	s = strings.TrimRight(s, "\n")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return "```\n" + s + "\n```"
}

func flagBlock(available bool, usages func() string) string {
	if !available {
		return ""
	}
	return fenced(usages())
}

func commandList(cmd *cobra.Command) string {
	var lines []string
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() && !sub.IsAdditionalHelpTopicCommand() {
			lines = append(lines, fmt.Sprintf("- **%s** - %s", sub.Name(), sub.Short))
		}
	}
	return strings.Join(lines, "\n")
}

func helpTopicList(cmd *cobra.Command) string {
	var lines []string
	for _, sub := range cmd.Commands() {
		if sub.IsAdditionalHelpTopicCommand() {
			lines = append(lines, fmt.Sprintf("- **%s** - %s", sub.CommandPath(), sub.Short))
		}
	}
	return strings.Join(lines, "\n")
}

func hasSubCommands(cmd *cobra.Command) bool {
	return commandList(cmd) != ""
}

// wizardKeyTable renders the interactive wizard's bindings from the same
// sets the wizard footer uses, one row per step.
func wizardKeyTable() string {
	download := ui.KeyBindingSet{Bindings: append(
		ui.StartDownloadBindings().Bindings,
		ui.RetryDownloadBindings().Bindings...,
	)}
	rows := []struct {
		step string
		keys ui.KeyBindingSet
	}{
		{"Any step", ui.WizardNavBindings()},
		{"Welcome", ui.WelcomeBindings()},
		{"Network", ui.RetryNetworkBindings()},
		{"Download", download},
		{"Preferences", ui.PreferenceBindings()},
		{"Completion", ui.FinishBindings().Without("←", "Q")},
		{"Warning banner", ui.DismissBindings()},
	}

	var b strings.Builder
	b.WriteString("| Step | Keys |\n|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row.step, describeKeys(row.keys))
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeKeys(set ui.KeyBindingSet) string {
	parts := make([]string, len(set.Bindings))
	for i, kb := range set.Bindings {
		parts[i] = fmt.Sprintf("`%s` %s", strings.Join(kb.Keys, "`/`"), strings.ToLower(kb.Description))
	}
	return strings.Join(parts, ", ")
}

func environmentNote() string {
	prefix := strings.ToUpper(config.EnvPrefix)
	return fmt.Sprintf("Every key shown by `onboard config list` can be overridden with a `%s_` variable. "+
		"Dots and dashes become underscores, so `backend.poll-interval` is read from `%s_BACKEND_POLL_INTERVAL`.",
		prefix, prefix)
}

// renderHelp writes markdown through glamour, falling back to the raw text
func renderHelp(w io.Writer, markdown string) {
	rendered, err := renderMarkdown(markdown, terminalWidth(w))
	if err != nil {
		fmt.Fprintln(w, markdown)
		return
	}
	fmt.Fprintln(w, strings.TrimRight(rendered, " \n"))
}

func renderMarkdown(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultHelpWidth
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultHelpWidth
}
