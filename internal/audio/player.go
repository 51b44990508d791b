package audio

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// ErrNoPlayer is returned when no audio player command can be found.
var ErrNoPlayer = errors.New("no audio player found (set TTS_PLAYER)")

// ErrNoSource is returned by Play for a source that was never loaded.
var ErrNoSource = errors.New("no audio source")

// known players, tried in order; the file path is appended.
var candidates = [][]string{
	{"mpv", "--no-video", "--really-quiet"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"paplay"},
}

// Player is the single audio output: one current source, at most one
// playback at a time.
type Player struct {
	store   *Store
	command []string
	logger  *zap.Logger

	mu      sync.Mutex
	current Source
	cmd     *exec.Cmd
	done    chan struct{}
}

// NewPlayer creates a player. An empty command means auto-detect on first Play.
func NewPlayer(store *Store, command []string, logger *zap.Logger) *Player {
	return &Player{store: store, command: command, logger: logger}
}

// Load stores data in the cache and returns it as a source. It does not
// touch the current playback.
func (p *Player) Load(data []byte) (Source, error) {
	return p.store.Save(data)
}

// Source returns the current source.
func (p *Player) Source() Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Play makes src the current source and starts playing it without waiting
// for it to finish. Any playback in progress is stopped first.
func (p *Player) Play(src Source) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if src.Path == "" {
		return ErrNoSource
	}
	p.stopLocked()
	p.current = src
	argv, err := p.resolve()
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], append(argv[1:], p.current.Path)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	done := make(chan struct{})
	p.cmd, p.done = cmd, done
	p.logger.Debug("playback started", zap.String("player", argv[0]), zap.String("src", p.current.URL))

	go func() {
		if err := cmd.Wait(); err != nil {
			p.logger.Debug("playback ended", zap.Error(err))
		}
		close(done)
	}()
	return nil
}

// Wait blocks until the current playback, if any, has ended.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop ends the current playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.cmd == nil {
		return
	}
	select {
	case <-p.done:
	default:
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
}

func (p *Player) resolve() ([]string, error) {
	if len(p.command) > 0 {
		return p.command, nil
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			p.command = c
			return c, nil
		}
	}
	return nil, ErrNoPlayer
}
