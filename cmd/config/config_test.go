// SPDX-License-Identifier: Apache-2.0
package config

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestCompleteKeys(t *testing.T) {
	keys, directive := completeKeys(nil, nil, "backend.p")
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{"backend.poll-interval\tDelay between backend download progress checks"}, keys)

	keys, _ = completeKeys(nil, []string{"use-tui"}, "")
	assert.Empty(t, keys)
}

func TestCompleteSetArgs(t *testing.T) {
	values, _ := completeSetArgs(nil, []string{"log-level"}, "")
	assert.Equal(t, []string{"disabled", "debug", "info", "warn", "error"}, values)

	values, _ = completeSetArgs(nil, []string{"use-tui"}, "")
	assert.Equal(t, []string{"true", "false"}, values)

	values, directive := completeSetArgs(nil, []string{"backend.install-dir"}, "")
	assert.Empty(t, values)
	assert.Equal(t, cobra.ShellCompDirectiveDefault, directive)

	values, _ = completeSetArgs(nil, []string{"no-such-key"}, "")
	assert.Empty(t, values)
}
