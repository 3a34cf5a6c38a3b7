package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaSamoylov/finalproject-Samoylov-M25-555/internal/custom_err"
)

func TestParseCommand(t *testing.T) {
	command, params, err := parseCommand("buy --currency BTC --amount 0.5")

	require.NoError(t, err)
	assert.Equal(t, "buy", command)
	assert.Equal(t, map[string]string{"currency": "BTC", "amount": "0.5"}, params)
}

func TestParseCommand_NoArgs(t *testing.T) {
	command, params, err := parseCommand("show-portfolio")

	require.NoError(t, err)
	assert.Equal(t, "show-portfolio", command)
	assert.Empty(t, params)
}

func TestParseCommand_EmptyLine(t *testing.T) {
	command, params, err := parseCommand("   ")

	require.NoError(t, err)
	assert.Empty(t, command)
	assert.Nil(t, params)
}

func TestParseCommand_BadFlagPrefix(t *testing.T) {
	_, _, err := parseCommand("buy currency BTC")

	assert.ErrorIs(t, err, custom_err.ErrInvalidInput)
}

func TestParseCommand_MissingValue(t *testing.T) {
	_, _, err := parseCommand("login --username")

	assert.ErrorIs(t, err, custom_err.ErrInvalidInput)
}

func TestParseCommand_EmptyFlagName(t *testing.T) {
	_, _, err := parseCommand("buy -- BTC")

	assert.ErrorIs(t, err, custom_err.ErrInvalidInput)
}

func TestRequireParams(t *testing.T) {
	params := map[string]string{"currency": "BTC"}

	assert.NoError(t, requireParams(params, "currency"))

	err := requireParams(params, "currency", "amount")
	require.Error(t, err)
	assert.ErrorIs(t, err, custom_err.ErrInvalidInput)
	assert.Contains(t, err.Error(), "--amount")
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount(map[string]string{"amount": "12.5"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, amount)

	_, err = parseAmount(map[string]string{"amount": "дофига"})
	assert.ErrorIs(t, err, custom_err.ErrInvalidAmount)
}
