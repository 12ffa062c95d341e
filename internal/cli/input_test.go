package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

// stubTerminal makes GetPassword behave as if stdin were (or were not) a terminal.
func stubTerminal(t *testing.T, terminal bool, pw func(int) ([]byte, error)) {
	t.Helper()
	oldIs, oldRead := isTerminal, readPassword
	isTerminal = func(int) bool { return terminal }
	if pw != nil {
		readPassword = pw
	}
	t.Cleanup(func() { isTerminal, readPassword = oldIs, oldRead })
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	var out bytes.Buffer
	pw, err := GetPassword(rdr("ignored\n"), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Equal(t, "Password: \n", out.String())
}

func TestGetPassword_TerminalError(t *testing.T) {
	stubTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	var out bytes.Buffer
	_, err := GetPassword(rdr(""), "Password", &out)
	require.Error(t, err)
}

func TestGetPassword_PipedInput(t *testing.T) {
	stubTerminal(t, false, nil)

	var out bytes.Buffer
	pw, err := GetPassword(rdr("piped pw\r\n"), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "piped pw", string(pw))
}

func TestGetNewPassword(t *testing.T) {
	stubTerminal(t, false, nil)
	var out bytes.Buffer

	pw, err := GetNewPassword(rdr("abc\nabc\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(pw))

	_, err = GetNewPassword(rdr("abc\nabd\n"), &out)
	assert.ErrorIs(t, err, errPasswordMismatch)
}

func TestAwait_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := await(ctx, func() (string, error) {
		<-block
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
