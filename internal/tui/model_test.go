package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoService struct {
	asked []string
}

func (e *echoService) Ask(_ context.Context, q string) string {
	e.asked = append(e.asked, q)
	return "### Answer\n\nechoed " + q + ".\n"
}

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestModel_AskRoundTrip(t *testing.T) {
	svc := &echoService{}
	var m tea.Model = New(context.Background(), svc, "Aryzen manages funds.", 3)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Contains(t, m.View(), "Aryzen manages funds.")
	assert.Contains(t, m.View(), "3 documents loaded")

	m = typeText(m, "what is NAV")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.(Model).pending)

	// Run the ask command directly instead of through a program.
	msg := m.(Model).ask("what is NAV")()
	m, _ = m.Update(msg)

	model := m.(Model)
	assert.False(t, model.pending)
	require.Len(t, model.Turns(), 1)
	assert.Equal(t, "what is NAV", model.Turns()[0].Query)
	assert.Contains(t, model.Turns()[0].Answer, "echoed what is NAV.")
	assert.Equal(t, []string{"what is NAV"}, svc.asked)
	assert.Empty(t, model.input.Value())
}

func TestModel_EmptyInputAsksForAQuestion(t *testing.T) {
	var m tea.Model = New(context.Background(), &echoService{}, "", 0)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = typeText(m, "   ")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.(Model).pending)
	assert.Equal(t, "Please enter a question.", m.(Model).status)
	assert.Contains(t, m.View(), "Please enter a question.")
}

func TestModel_IgnoresEnterWhilePending(t *testing.T) {
	var m tea.Model = New(context.Background(), &echoService{}, "", 0)
	m = typeText(m, "what is AUM")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(m, "what is NAV")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_Quit(t *testing.T) {
	m := New(context.Background(), &echoService{}, "", 0)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRenderTranscript(t *testing.T) {
	assert.Equal(t, "No questions yet.", renderTranscript(nil, 40))

	out := renderTranscript([]Turn{{Query: "q1", Answer: "a1"}, {Query: "q2", Answer: "a2"}}, 40)
	assert.Contains(t, out, "q1")
	assert.Contains(t, out, "a2")
	assert.Contains(t, out, "Assistant:")
}

func TestView_BeforeResize(t *testing.T) {
	m := New(context.Background(), &echoService{}, "", 0)
	assert.Equal(t, "Loading...", m.View())
}
