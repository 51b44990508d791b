package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Makepad-fr/ttsdeck/internal/audio"
	"github.com/Makepad-fr/ttsdeck/internal/model"
	"github.com/Makepad-fr/ttsdeck/internal/recordlist"
)

type stubBackend struct {
	records    []model.Record
	failList   bool
	failSynth  bool
	audioCalls []string
}

func (s *stubBackend) ListRecords(ctx context.Context) ([]model.Record, error) {
	if s.failList {
		return nil, errors.New("offline")
	}
	return append([]model.Record(nil), s.records...), nil
}

func (s *stubBackend) RecordAudio(ctx context.Context, id string) ([]byte, error) {
	s.audioCalls = append(s.audioCalls, id)
	return []byte("audio-" + id), nil
}

func (s *stubBackend) Synthesize(ctx context.Context, req model.SynthesisRequest) ([]byte, error) {
	if s.failSynth {
		return nil, errors.New("offline")
	}
	s.records = append([]model.Record{{Id: "new", Title: req.Title, Text: req.Text}}, s.records...)
	return []byte("audio-new"), nil
}

func (s *stubBackend) DeleteRecord(ctx context.Context, id string) error {
	for i, r := range s.records {
		if r.Id == id {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
		}
	}
	return nil
}

type stubSink struct{ src audio.Source }

func (s *stubSink) Load(data []byte) (audio.Source, error) {
	return audio.Source{URL: "file:///tmp/" + string(data), Path: "/tmp/" + string(data)}, nil
}
func (s *stubSink) Play(src audio.Source) error {
	s.src = src
	return nil
}

func setup(t *testing.T, recs ...model.Record) (Model, *stubBackend, *stubSink) {
	t.Helper()
	b := &stubBackend{records: recs}
	s := &stubSink{}
	ctrl := recordlist.New(context.Background(), b, s, zap.NewNop())
	m := New(ctrl)
	m = settle(t, m, m.Init())
	return m, b, s
}

// settle executes cmd and feeds every resulting message back into the model,
// skipping spinner ticks.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command chain did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case recordlist.RecordsMsg, recordlist.AudioMsg, recordlist.DeletedMsg,
			recordlist.SynthesizedMsg, recordlist.PlaybackMsg:
			var out tea.Cmd
			m, out = send(m, msg)
			queue = append(queue, out)
		}
	}
	return m
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func titles(m Model) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(listItem).rec.Title)
	}
	return out
}

func sample() []model.Record {
	return []model.Record{
		{Id: "2", Title: "Weather", Text: "Sunny with clouds"},
		{Id: "1", Title: "Greeting", Text: "Good morning"},
	}
}

func TestInitRendersOneEntryPerRecord(t *testing.T) {
	m, _, _ := setup(t, sample()...)

	assert.Equal(t, []string{"Weather", "Greeting"}, titles(m))
	view := m.View()
	assert.Contains(t, view, "Weather")
	assert.Contains(t, view, "Greeting")
}

func TestFailedRefreshKeepsRenderedList(t *testing.T) {
	m, b, _ := setup(t, sample()...)

	b.failList = true
	m, cmd := send(m, keyRunes("r"))
	m = settle(t, m, cmd)

	assert.Equal(t, []string{"Weather", "Greeting"}, titles(m))
}

func TestEnterPlaysSelectedRecord(t *testing.T) {
	m, b, s := setup(t, sample()...)

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyDown})
	m = settle(t, m, cmd)
	m, cmd = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Greeting", m.title.Value())
	assert.Equal(t, "Good morning", m.text.Value())

	m = settle(t, m, cmd)
	assert.Equal(t, []string{"1"}, b.audioCalls)
	assert.Equal(t, "file:///tmp/audio-1", s.src.URL)
	assert.Contains(t, m.View(), "file:///tmp/audio-1")
}

func TestDeleteRemovesSelectedRecord(t *testing.T) {
	m, _, _ := setup(t, sample()...)

	m, cmd := send(m, keyRunes("d"))
	m = settle(t, m, cmd)

	assert.Equal(t, []string{"Greeting"}, titles(m))
}

func TestSubmitShowsSpinnerThenRefreshes(t *testing.T) {
	m, _, s := setup(t, sample()...)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, keyRunes("Hello"))
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, keyRunes("Hi there"))
	assert.Equal(t, focusText, m.focus)

	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, recordlist.Submitting, m.ctrl.State())
	busy := m.View()
	assert.Contains(t, busy, "Synthesizing")
	assert.NotContains(t, busy, "Title")

	m = settle(t, m, cmd)
	assert.Equal(t, recordlist.Idle, m.ctrl.State())
	assert.Equal(t, "file:///tmp/audio-new", s.src.URL)
	assert.Equal(t, []string{"Hello", "Weather", "Greeting"}, titles(m))
	assert.NotContains(t, m.View(), "Synthesizing")
}

func TestListReachableWhileSubmitting(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyTab} {
		m, _, _ := setup(t, sample()...)

		m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
		m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
		m, _ = send(m, keyRunes("text"))
		m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
		require.Equal(t, recordlist.Submitting, m.ctrl.State())

		m, _ = send(m, keyRunes("x"))
		assert.Equal(t, "text", m.text.Value(), "typing is ignored while submitting")

		m, _ = send(m, tea.KeyMsg{Type: k})
		assert.Equal(t, focusList, m.focus, k.String())

		m, _ = send(m, tea.KeyMsg{Type: tea.KeyDown})
		assert.Equal(t, 1, m.list.Index())

		m = settle(t, m, cmd)
		assert.Equal(t, recordlist.Idle, m.ctrl.State())
	}
}

func TestFailedSubmitReturnsToIdle(t *testing.T) {
	m, b, s := setup(t, sample()...)
	b.failSynth = true

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(m, keyRunes("text"))
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = settle(t, m, cmd)

	assert.Equal(t, recordlist.Idle, m.ctrl.State())
	assert.Empty(t, s.src.URL)
	assert.Contains(t, m.View(), "Title")
	assert.Equal(t, []string{"Weather", "Greeting"}, titles(m))
}

func TestSubmitWithoutTextFocusesText(t *testing.T) {
	m, _, _ := setup(t)

	m, _ = send(m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, recordlist.Idle, m.ctrl.State())
	assert.Equal(t, focusText, m.focus)
}

func TestTextareaGrowsWithContent(t *testing.T) {
	m, _, _ := setup(t)
	assert.Equal(t, minTextLines, m.text.Height())

	m.text.SetValue(strings.Repeat("line\n", 20))
	m.fitText()
	assert.Equal(t, maxTextLines, m.text.Height())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n b\t c", 10))
	assert.Equal(t, "abcdefg...", snippet("abcdefghijklmnop", 10))
}
