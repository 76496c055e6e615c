// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// completionShell describes one supported shell. Setup is a format string
// taking the program name as %[1]s.
type completionShell struct {
	name     string
	setup    string
	generate func(root *cobra.Command, w io.Writer, descriptions bool) error
}

// completionShells lists the Linux shells onboard ships completion for
var completionShells = []completionShell{
	{
		name: "bash",
		setup: `Requires the bash-completion package.

Load completions in the current session:

	source <(%[1]s completion bash)

Load them for every session:

	%[1]s completion bash > ~/.local/share/bash-completion/completions/%[1]s`,
		generate: func(root *cobra.Command, w io.Writer, descriptions bool) error {
			return root.GenBashCompletionV2(w, descriptions)
		},
	},
	{
		name: "fish",
		setup: `Load completions in the current session:

	%[1]s completion fish | source

Load them for every session:

	%[1]s completion fish > ~/.config/fish/completions/%[1]s.fish`,
		generate: func(root *cobra.Command, w io.Writer, descriptions bool) error {
			return root.GenFishCompletion(w, descriptions)
		},
	},
	{
		name: "zsh",
		setup: `Completion must be enabled in zsh first:

	echo "autoload -U compinit; compinit" >> ~/.zshrc

Load completions in the current session:

	source <(%[1]s completion zsh)

Load them for every session:

	%[1]s completion zsh > "${fpath[1]}/_%[1]s"`,
		generate: func(root *cobra.Command, w io.Writer, descriptions bool) error {
			if !descriptions {
				return root.GenZshCompletionNoDesc(w)
			}
			return root.GenZshCompletion(w)
		},
	},
}

// newCompletionCmd replaces cobra's default completion command, which also
// offers PowerShell
func newCompletionCmd(root *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:               "completion",
		Short:             "Generate the autocompletion script for the specified shell",
		Long:              fmt.Sprintf("Generate the autocompletion script for %s.\nSee each shell's help for how to load it.", root.Name()),
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
	}

	for _, shell := range completionShells {
		completionCmd.AddCommand(shell.command(root.Name()))
	}
	return completionCmd
}

func (s completionShell) command(program string) *cobra.Command {
	var noDesc bool
	cmd := &cobra.Command{
		Use:                   s.name,
		Short:                 fmt.Sprintf("Generate the autocompletion script for %s", s.name),
		Long:                  fmt.Sprintf("Generate the autocompletion script for the %s shell.\n\n", s.name) + fmt.Sprintf(s.setup, program),
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		ValidArgsFunction:     cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.generate(cmd.Root(), cmd.OutOrStdout(), !noDesc)
		},
	}
	cmd.Flags().BoolVar(&noDesc, "no-descriptions", false, "disable completion descriptions")
	return cmd
}
