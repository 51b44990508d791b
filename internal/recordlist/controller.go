package recordlist

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Makepad-fr/ttsdeck/internal/audio"
	"github.com/Makepad-fr/ttsdeck/internal/model"
)

// Backend is the TTS service as seen by the controller.
type Backend interface {
	ListRecords(ctx context.Context) ([]model.Record, error)
	RecordAudio(ctx context.Context, id string) ([]byte, error)
	Synthesize(ctx context.Context, req model.SynthesisRequest) ([]byte, error)
	DeleteRecord(ctx context.Context, id string) error
}

// Sink is the audio output. Load runs inside commands, off the UI loop;
// Play runs in Update.
type Sink interface {
	Load(data []byte) (audio.Source, error)
	Play(src audio.Source) error
}

// State is the presentation state of the input area.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// Controller owns the record list, the title/text inputs, the submit state
// and the audio sink. Network calls run as tea.Cmds; their results are
// applied by Update on the UI loop only.
type Controller struct {
	ctx     context.Context
	backend Backend
	sink    Sink
	logger  *zap.Logger

	records []model.Record
	title   string
	text    string
	state   State
	source  audio.Source
	stale   bool
}

// New creates a controller. ctx bounds every request it issues.
func New(ctx context.Context, backend Backend, sink Sink, logger *zap.Logger) *Controller {
	return &Controller{
		ctx:     ctx,
		backend: backend,
		sink:    sink,
		logger:  logger,
		records: []model.Record{},
	}
}

// Records returns a copy of the list as last fetched.
func (c *Controller) Records() []model.Record {
	out := make([]model.Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Controller) Title() string        { return c.title }
func (c *Controller) Text() string         { return c.text }
func (c *Controller) State() State         { return c.state }
func (c *Controller) Source() audio.Source { return c.source }

// Stale reports whether the most recent refresh failed, so Records may lag
// behind the server.
func (c *Controller) Stale() bool { return c.stale }

// SetInputs mirrors what the user typed.
func (c *Controller) SetInputs(title, text string) {
	c.title, c.text = title, text
}

// Find resolves ref as a record Id first, then as a 1-based list position.
func (c *Controller) Find(ref string) (model.Record, bool) {
	for _, r := range c.records {
		if r.Id == ref {
			return r, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(c.records) {
		return c.records[n-1], true
	}
	return model.Record{}, false
}

// RefreshList fetches every record.
func (c *Controller) RefreshList() tea.Cmd {
	return func() tea.Msg {
		records, err := c.backend.ListRecords(c.ctx)
		return RecordsMsg{Records: records, Err: err}
	}
}

// PlayRecord loads the record into the inputs and fetches its audio.
func (c *Controller) PlayRecord(r model.Record) tea.Cmd {
	c.title, c.text = r.Title, r.Text
	id := r.Id
	return func() tea.Msg {
		data, err := c.backend.RecordAudio(c.ctx, id)
		if err != nil {
			return AudioMsg{ID: id, Err: err}
		}
		src, err := c.sink.Load(data)
		return AudioMsg{ID: id, Source: src, LoadErr: err}
	}
}

// DeleteRecord removes the record on the server; the list is refreshed on success.
func (c *Controller) DeleteRecord(id string) tea.Cmd {
	return func() tea.Msg {
		return DeletedMsg{ID: id, Err: c.backend.DeleteRecord(c.ctx, id)}
	}
}

// SubmitText switches to Submitting and asks the server to synthesize text.
func (c *Controller) SubmitText(title, text string) tea.Cmd {
	c.title, c.text = title, text
	c.state = Submitting
	req := model.SynthesisRequest{Title: title, Text: text}
	return func() tea.Msg {
		data, err := c.backend.Synthesize(c.ctx, req)
		if err != nil {
			return SynthesizedMsg{Err: err}
		}
		src, err := c.sink.Load(data)
		return SynthesizedMsg{Source: src, LoadErr: err}
	}
}

// Update applies a completed operation and returns the follow-up, if any.
// Messages it does not know are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case RecordsMsg:
		if msg.Err != nil {
			c.stale = true
			c.logger.Error("fetch records", zap.Error(msg.Err))
			return nil
		}
		c.stale = false
		c.records = msg.Records
		if c.records == nil {
			c.records = []model.Record{}
		}
		return nil

	case AudioMsg:
		if msg.Err != nil {
			c.logger.Error("fetch audio", zap.String("id", msg.ID), zap.Error(msg.Err))
			return nil
		}
		return c.play(msg.Source, msg.LoadErr, zap.String("id", msg.ID))

	case DeletedMsg:
		if msg.Err != nil {
			c.logger.Error("delete record", zap.String("id", msg.ID), zap.Error(msg.Err))
			return nil
		}
		return c.RefreshList()

	case SynthesizedMsg:
		c.state = Idle
		if msg.Err != nil {
			c.logger.Error("synthesize", zap.Error(msg.Err))
			return nil
		}
		return tea.Batch(c.play(msg.Source, msg.LoadErr, zap.String("title", c.title)), c.RefreshList())
	}
	return nil
}

// play starts a loaded source. A failed load or start is reported as a
// PlaybackMsg so that Run can surface it; the UI loop just logs it.
func (c *Controller) play(src audio.Source, err error, field zap.Field) tea.Cmd {
	if err == nil {
		c.source = src
		err = c.sink.Play(src)
	}
	if err != nil {
		err = fmt.Errorf("playback: %w", err)
		c.logger.Error("play audio", field, zap.Error(err))
		return func() tea.Msg { return PlaybackMsg{Err: err} }
	}
	c.logger.Info("playing", field, zap.String("src", src.URL), zap.Duration("duration", src.Duration))
	return nil
}

// step is a queued command; followUp marks commands returned by Update.
type step struct {
	cmd      tea.Cmd
	followUp bool
}

// Run drives cmd and every follow-up it produces to completion on the calling
// goroutine. It returns the failures of cmd itself and of playback, joined.
// A failed follow-up refresh only marks the list stale: the operation that
// triggered it has already succeeded on the server.
func (c *Controller) Run(cmd tea.Cmd) error {
	var errs []error
	queue := []step{{cmd: cmd}}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next.cmd == nil {
			continue
		}
		switch msg := next.cmd().(type) {
		case tea.BatchMsg:
			for _, m := range msg {
				queue = append(queue, step{cmd: m, followUp: next.followUp})
			}
		default:
			if f, ok := msg.(failure); ok && f.failed() != nil {
				if _, refresh := msg.(RecordsMsg); !refresh || !next.followUp {
					errs = append(errs, f.failed())
				}
			}
			queue = append(queue, step{cmd: c.Update(msg), followUp: true})
		}
	}
	return errors.Join(errs...)
}
