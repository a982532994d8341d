// Package script runs user-provided Lua as activity bodies. A script
// declares a tick function and optional lifecycle hooks; the scheduler
// drives it like any other activity, one tick per step.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	lua "github.com/Shopify/go-lua"

	"bunraku/internal/activity"
	"bunraku/internal/logging"
)

// ErrNoTick is returned when a script chunk does not define a tick
// function.
var ErrNoTick = errors.New("script: no tick function defined")

// Verdicts a script's tick function returns to the scheduler.
const (
	VerdictContinue = "continue"
	VerdictDone     = "done"
)

// Script is an activity whose behavior lives in a Lua chunk. The chunk
// runs once at load time and must leave a global tick function behind:
//
//	function tick(env)
//	  if env.canceling then return "done" end
//	  return "continue"
//	end
//
// env carries actor (string), ticks (dispatch count, starting at 1) and
// canceling (bool). Returning "continue" keeps the script active; any
// other result completes it. Optional on_first_run and on_last_run
// functions receive the same env. A global log(msg) is provided for
// structured output. Cancellation stays cooperative: a script that
// never checks env.canceling runs until disposed.
type Script struct {
	activity.Base
	name   string
	state  *lua.State
	log    *slog.Logger
	ticks  int
	failed bool
}

// New compiles an inline Lua source into a script activity.
func New(name, source string) (*Script, error) {
	return compile(name, func(l *lua.State) error { return lua.LoadString(l, source) })
}

// NewFromFile compiles a Lua file into a script activity, named after
// the file.
func NewFromFile(path string) (*Script, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return compile(name, func(l *lua.State) error { return lua.LoadFile(l, path, "") })
}

func compile(name string, load func(*lua.State) error) (*Script, error) {
	s := &Script{name: name, log: logging.New("script")}
	l := lua.NewState()
	lua.OpenLibraries(l)
	l.Register("log", func(l *lua.State) int {
		s.log.Info(lua.CheckString(l, 1), "script", s.name)
		return 0
	})
	if err := load(l); err != nil {
		return nil, fmt.Errorf("script %s: load: %w", name, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	if !hasFunction(l, "tick") {
		return nil, fmt.Errorf("script %s: %w", name, ErrNoTick)
	}
	s.state = l
	return s, nil
}

func (s *Script) Tick(actor activity.Actor) activity.Activity {
	if s.failed {
		return s.NextActivity()
	}
	s.ticks++
	s.state.Global("tick")
	s.pushEnv(actor)
	if err := s.state.ProtectedCall(1, 1, 0); err != nil {
		s.fail("tick", err)
		return s.NextActivity()
	}
	verdict, _ := s.state.ToString(-1)
	s.state.Pop(1)
	if verdict == VerdictContinue {
		return s
	}
	return s.NextActivity()
}

// OnFirstRun invokes the chunk's on_first_run, if defined.
func (s *Script) OnFirstRun(actor activity.Actor) {
	s.callHook("on_first_run", actor)
}

// OnLastRun invokes the chunk's on_last_run, if defined.
func (s *Script) OnLastRun(actor activity.Actor) {
	s.callHook("on_last_run", actor)
}

func (s *Script) callHook(name string, actor activity.Actor) {
	if s.failed || !hasFunction(s.state, name) {
		return
	}
	s.state.Global(name)
	s.pushEnv(actor)
	if err := s.state.ProtectedCall(1, 0, 0); err != nil {
		s.fail(name, err)
	}
}

// pushEnv leaves the env table on top of the stack.
func (s *Script) pushEnv(actor activity.Actor) {
	l := s.state
	l.NewTable()
	l.PushString(fmt.Sprint(actor))
	l.SetField(-2, "actor")
	l.PushInteger(s.ticks)
	l.SetField(-2, "ticks")
	l.PushBoolean(s.IsCanceling())
	l.SetField(-2, "canceling")
}

// fail latches the script into pass-through completion. A failed script
// never calls back into Lua again.
func (s *Script) fail(where string, err error) {
	s.failed = true
	s.log.Error("script failed", "script", s.name, "in", where, "err", err)
}

func (s *Script) String() string { return fmt.Sprintf("Script(%s)", s.name) }

func hasFunction(l *lua.State, name string) bool {
	l.Global(name)
	ok := l.TypeOf(-1) == lua.TypeFunction
	l.Pop(1)
	return ok
}
