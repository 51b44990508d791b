package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Makepad-fr/ttsdeck/internal/api"
	"github.com/Makepad-fr/ttsdeck/internal/audio"
	"github.com/Makepad-fr/ttsdeck/internal/auth"
	"github.com/Makepad-fr/ttsdeck/internal/config"
	"github.com/Makepad-fr/ttsdeck/internal/metrics"
	"github.com/Makepad-fr/ttsdeck/internal/model"
	"github.com/Makepad-fr/ttsdeck/internal/recordlist"
	"github.com/Makepad-fr/ttsdeck/internal/tui"
	"github.com/Makepad-fr/ttsdeck/internal/ui"
)

// Options carries everything the subcommands need.
type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics // may be nil
	Auth    *auth.Store
	Stdin   io.Reader // used by `say <title> -`; defaults to os.Stdin
}

// session is one wired controller plus the concrete player behind its sink.
type session struct {
	ctrl   *recordlist.Controller
	player *audio.Player
}

func newSession(opt Options) (*session, error) {
	var token string
	ti, err := opt.Auth.GetToken()
	if err != nil {
		return nil, err
	}
	if ti != nil {
		if ti.Expired(time.Now()) {
			opt.Logger.Warn("token expired", zap.Timep("expires_at", ti.ExpiresAt))
		}
		token = ti.Token
	}

	client := api.NewClient(api.Config{
		BaseURL: opt.Config.API.BaseURL,
		Token:   token,
		Timeout: opt.Config.API.Timeout,
	}, opt.Logger, opt.Metrics)
	store := audio.NewStore(opt.Config.Audio.Dir)
	store.Keep = opt.Config.Audio.Keep
	player := audio.NewPlayer(store, opt.Config.Audio.Player, opt.Logger)
	ctrl := recordlist.New(context.Background(), client, player, opt.Logger)
	return &session{ctrl: ctrl, player: player}, nil
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	cmd, a := "ui", []string(nil)
	if len(args) > 0 {
		cmd, a = args[0], args[1:]
	}

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "auth":
		if len(a) == 0 {
			ui.Fail("usage: ttsdeck auth <login|logout|status|whoami>")
			return 2
		}
		switch a[0] {
		case "login":
			return doAuthLogin(opt)
		case "logout":
			return doAuthLogout(opt)
		case "status":
			return doAuthStatus(opt)
		case "whoami":
			return doAuthWhoAmI(opt)
		}
		ui.Fail("usage: ttsdeck auth <login|logout|status|whoami>")
		return 2

	case "ui", "ls", "play", "rm", "say":
	default:
		ui.Fail("unknown subcommand: " + cmd)
		fmt.Fprintln(os.Stderr)
		PrintHelp()
		return 2
	}

	// argument checks happen before any network traffic
	switch cmd {
	case "play", "rm":
		if len(a) != 1 {
			ui.Fail(fmt.Sprintf("usage: ttsdeck %s <id|index>", cmd))
			return 2
		}
	case "say":
		if len(a) < 2 {
			ui.Fail("usage: ttsdeck say <title> <text...|->")
			return 2
		}
	}

	s, err := newSession(opt)
	if err != nil {
		ui.Fail("auth: " + err.Error())
		return 1
	}

	switch cmd {
	case "ls":
		return doList(s)
	case "play":
		return doPlay(s, a[0])
	case "rm":
		return doRemove(s, a[0])
	case "say":
		return doSay(s, a[0], a[1:], stdinOf(opt))
	}
	return doUI(s)
}

func PrintHelp() {
	fmt.Printf(`ttsdeck - text-to-speech records from your terminal

Usage:
  ttsdeck [flags] [subcommand] [args]

Subcommands:
  ui                       Interactive list (default)
  ls                       List records
  play <id|index>          Play a record (index is 1-based, as shown by ls)
  say <title> <text...>    Synthesize text and play it; "-" reads text from stdin
  rm <id|index>            Delete a record
  auth <login|logout|status|whoami>   Bearer token for the TTS service

Environment:
  TTS_BASE_URL, TTS_HTTP_TIMEOUT, TTS_PLAYER, TTS_AUDIO_DIR, TTS_AUDIO_KEEP, TTSDECK_TOKEN

Examples:
  ttsdeck ls
  ttsdeck say "Greeting" Good morning, everyone
  ttsdeck play 2
  ttsdeck rm 3
`)
}

// -------------- record subcommands ----------------

func doUI(s *session) int {
	if err := tui.Run(s.ctrl); err != nil {
		ui.Fail("tui: " + err.Error())
		return 1
	}
	return 0
}

func doList(s *session) int {
	if err := s.ctrl.Run(s.ctrl.RefreshList()); err != nil {
		ui.Fail("ls: " + err.Error())
		return 1
	}
	t := ui.Current()
	recs := s.ctrl.Records()

	var lines []string
	lines = append(lines, fmt.Sprintf("%s  %s %d",
		ui.C(t.Title, "Speech records"),
		ui.C(t.Accent, "Total"), len(recs)))
	lines = append(lines, "")
	lines = append(lines, recordLines(recs)...)
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: play with `ttsdeck play 1`"))
	ui.Panel(lines)
	return 0
}

func doPlay(s *session, ref string) int {
	rec, code := resolve(s, ref)
	if code != 0 {
		return code
	}
	if err := s.ctrl.Run(s.ctrl.PlayRecord(rec)); err != nil {
		ui.Fail("play: " + err.Error())
		return 1
	}
	nowPlaying(s.ctrl.Source(), rec.Title)
	s.player.Wait()
	return 0
}

func doRemove(s *session, ref string) int {
	rec, code := resolve(s, ref)
	if code != 0 {
		return code
	}
	if err := s.ctrl.Run(s.ctrl.DeleteRecord(rec.Id)); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	if s.ctrl.Stale() {
		ui.OK(fmt.Sprintf("removed %q", rec.Title))
		warnStale()
		return 0
	}
	ui.OK(fmt.Sprintf("removed %q (%d left)", rec.Title, len(s.ctrl.Records())))
	return 0
}

func doSay(s *session, title string, words []string, stdin io.Reader) int {
	text := strings.Join(words, " ")
	if text == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			ui.Fail("say: read stdin: " + err.Error())
			return 1
		}
		text = string(b)
	}
	title = strings.TrimSpace(title)
	if strings.TrimSpace(text) == "" {
		ui.Fail("say: empty text")
		return 2
	}

	fmt.Fprintln(os.Stderr, ui.C(ui.Current().Busy, "synthesizing..."))
	if err := s.ctrl.Run(s.ctrl.SubmitText(title, text)); err != nil {
		ui.Fail("say: " + err.Error())
		return 1
	}
	if s.ctrl.Stale() {
		ui.OK("saved")
		warnStale()
	} else {
		ui.OK(fmt.Sprintf("saved (%d records)", len(s.ctrl.Records())))
	}
	nowPlaying(s.ctrl.Source(), title)
	s.player.Wait()
	return 0
}

// resolve loads the list and finds ref in it.
func resolve(s *session, ref string) (model.Record, int) {
	if err := s.ctrl.Run(s.ctrl.RefreshList()); err != nil {
		ui.Fail("load: " + err.Error())
		return model.Record{}, 1
	}
	rec, found := s.ctrl.Find(ref)
	if !found {
		ui.Fail(fmt.Sprintf("no record %q (have %d)", ref, len(s.ctrl.Records())))
		fmt.Fprintln(os.Stderr, ui.C(ui.Current().Muted, "Hint: run `ttsdeck ls` to see valid indexes"))
		return model.Record{}, 2
	}
	return rec, 0
}

// warnStale tells the user that the change went through but the list could
// not be reloaded, so indexes printed earlier may no longer match.
func warnStale() {
	ui.Warn("could not reload the list; run `ttsdeck ls` before using indexes again")
}

func nowPlaying(src audio.Source, title string) {
	t := ui.Current()
	line := ui.C(t.Accent, t.SymPlay+" "+title)
	if src.Duration > 0 {
		line += ui.C(t.Muted, fmt.Sprintf("  %s", src.Duration.Round(time.Second)))
	}
	fmt.Println(line)
}

// -------------- rendering helpers --------------

func recordLines(recs []model.Record) []string {
	t := ui.Current()
	if len(recs) == 0 {
		return []string{ui.C(t.Muted, "no records")}
	}
	out := make([]string, 0, len(recs))
	for i, r := range recs {
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		out = append(out, fmt.Sprintf("%s %s %s  %s",
			ui.C(t.Dim, fmt.Sprintf("%2d.", i+1)),
			ui.C(t.Success, t.SymRecord),
			ui.Truncate(title, 40),
			ui.C(t.Muted, ui.Truncate(r.Text, 48))))
	}
	return out
}

// -------------- auth subcommands ----------------

func doAuthLogin(opt Options) int {
	fmt.Print("Paste your token: ")
	var token string
	if _, err := fmt.Fscanln(stdinOf(opt), &token); err != nil {
		ui.Fail("read token: " + err.Error())
		return 1
	}
	if _, err := opt.Auth.SetToken(token); err != nil {
		ui.Fail("login: " + err.Error())
		return 1
	}
	ui.OK("logged in")
	return 0
}

func doAuthLogout(opt Options) int {
	ti, _ := opt.Auth.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by TTSDECK_TOKEN env var (nothing to delete)")
		return 0
	}
	if err := opt.Auth.DeleteToken(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.OK("logged out")
	return 0
}

func doAuthStatus(opt Options) int {
	ti, err := opt.Auth.GetToken()
	if err != nil {
		ui.Fail("status: " + err.Error())
		return 1
	}
	if ti == nil {
		fmt.Println(ui.C(ui.Current().Muted, "not logged in"))
		fmt.Println("Run: ttsdeck auth login")
		return 0
	}
	fmt.Printf("source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		state := ""
		if ti.Expired(time.Now()) {
			state = " (expired)"
		}
		fmt.Printf("expires: %s%s\n", ti.ExpiresAt.UTC().Format(time.RFC3339), state)
	} else {
		fmt.Println("expires: (unknown)")
	}
	fmt.Println("env override: TTSDECK_TOKEN")
	return 0
}

func doAuthWhoAmI(opt Options) int {
	ti, _ := opt.Auth.GetToken()
	if ti == nil {
		ui.Fail("not logged in. Run: ttsdeck auth login")
		return 2
	}
	claims, err := auth.Claims(ti.Token)
	if err != nil {
		fmt.Println("Opaque token (cannot introspect locally).")
		fmt.Println("source:", ti.Source)
		return 0
	}
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("JWT claims:")
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, claims[k])
	}
	return 0
}

func stdinOf(opt Options) io.Reader {
	if opt.Stdin != nil {
		return opt.Stdin
	}
	return os.Stdin
}
