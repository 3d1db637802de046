package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRegistration(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"relax", "transition", "dimers", "neb", "util"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestUtilSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range utilCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"supercell", "print", "data", "show-path"} {
		assert.True(t, names[want], "util subcommand %q not registered", want)
	}
}

func TestParseSupercell(t *testing.T) {
	scaling, err := parseSupercell("2x2x1")
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 2, 1}, scaling)

	_, err = parseSupercell("2x2")
	assert.Error(t, err)
	_, err = parseSupercell("2x2x0")
	assert.Error(t, err)
	_, err = parseSupercell("axbxc")
	assert.Error(t, err)
}

func TestSetupFlags(t *testing.T) {
	assert.NotNil(t, relaxCmd.Flags().Lookup("hse"))
	assert.NotNil(t, transitionCmd.Flags().Lookup("migration"))
	assert.NotNil(t, dimersCmd.Flags().Lookup("distance"))
	assert.NotNil(t, nebCmd.Flags().Lookup("nimages"))
}
