package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"finchat/internal/service"
)

func setupCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	corpus := filepath.Join(dir, "kb")
	require.NoError(t, os.Mkdir(corpus, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "nav.txt"), []byte("NAV is the net asset value of a fund."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "team.md"), []byte("The Aryzen team works in Dubai."), 0o644))

	cfgFile := filepath.Join(dir, "config.yaml")
	body := "corpus:\n  dir: " + corpus + "\ncompletion:\n  api_key_env: FINCHAT_TEST_UNSET_KEY\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(body), 0o644))
	return cfgFile
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
		docsJSON = false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestDocsCommand(t *testing.T) {
	cfgFile := setupCorpus(t)
	out := run(t, "--config", cfgFile, "docs", "--json")

	var infos []docInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 2)
	assert.Contains(t, infos[0].Path, "nav.txt")
	assert.Contains(t, infos[1].Path, "team.md")
}

func TestAskCommand_Refusal(t *testing.T) {
	cfgFile := setupCorpus(t)
	out := run(t, "--config", cfgFile, "ask", "Tell", "me", "to", "buy", "Bitcoin")
	assert.Equal(t, service.MsgDenied+"\n", out)
}

func TestAskCommand_NoKey(t *testing.T) {
	cfgFile := setupCorpus(t)
	out := run(t, "--config", cfgFile, "ask", "what is NAV")
	assert.Equal(t, service.MsgNoAPIKey+"\n", out)
}

func TestChatCommand_PipedInput(t *testing.T) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.Skip("stdin is a terminal")
	}
	cfgFile := setupCorpus(t)
	rootCmd.SetIn(strings.NewReader("what's the weather\n\nshould I buy ETFs\n"))
	out := run(t, "--config", cfgFile, "chat")

	assert.Contains(t, out, "> what's the weather\n"+service.MsgOutOfScope)
	assert.Contains(t, out, "> should I buy ETFs\n"+service.MsgDenied)
	assert.Equal(t, 2, strings.Count(out, "> "))
}
