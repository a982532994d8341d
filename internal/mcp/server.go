package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"bunraku/internal/activity"
	"bunraku/internal/logging"
	"bunraku/internal/scenario"
	"bunraku/internal/sim"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server and manages the loaded simulation
// session. One session at a time: loading a second scenario requires
// force, which drops the first.
type Server struct {
	MCPServer *sdkmcp.Server

	mu      sync.Mutex
	session *Session
}

// NewServer creates an MCP server exposing the scheduler tools.
func NewServer(version string) *Server {
	s := &Server{}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "bunraku", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "load_scenario",
		Description: "Load a scenario and build its world. Takes exactly one of name (builtin), path (YAML on disk) or yaml (inline document). Returns a session ID.",
	}, s.handleLoadScenario)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "step",
		Description: "Advance the world by the given number of ticks (default 1). Scheduled events fire as their ticks come up; stepping stops early once everything is idle.",
	}, s.handleStep)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "activity_tree",
		Description: "Render the activity graph an actor is working through as an indented tree, marking the node the driver dispatches next.",
	}, s.handleActivityTree)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "queue_activity",
		Description: "Build an activity from a YAML definition and append it to an actor's queue, or with child, nest it under the currently dispatched node. An idle actor picks a queued activity up on the next tick.",
	}, s.handleQueueActivity)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "cancel_activity",
		Description: "Ask an actor's current activity to stop. The work drains through the normal dispatch path on the following ticks; uninterruptible activities refuse.",
	}, s.handleCancelActivity)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "dispose_actor",
		Description: "Run the disposal cascade over an actor's remaining work and remove it from the world.",
	}, s.handleDisposeActor)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "scheduler_stats",
		Description: "Report the world as it stands plus the scheduler's tolerated-fault counters for this session.",
	}, s.handleSchedulerStats)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "reset_session",
		Description: "Rebuild the session's world from its scenario definition, back at tick zero.",
	}, s.handleResetSession)
}

// --- Tool input/output types ---

type loadScenarioInput struct {
	Name  string `json:"name,omitempty" jsonschema:"builtin scenario name"`
	Path  string `json:"path,omitempty" jsonschema:"path to a scenario YAML file"`
	YAML  string `json:"yaml,omitempty" jsonschema:"inline scenario YAML document"`
	Force bool   `json:"force,omitempty" jsonschema:"replace any loaded session"`
}

type loadScenarioOutput struct {
	SessionID    string   `json:"session_id"`
	Scenario     string   `json:"scenario"`
	Actors       []string `json:"actors"`
	Events       int      `json:"events"`
	DefaultTicks int      `json:"default_ticks"`
}

type stepInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_scenario"`
	Ticks     int    `json:"ticks,omitempty" jsonschema:"ticks to advance (default 1)"`
}

type stepOutput struct {
	Report        sim.Report    `json:"report"`
	Idle          bool          `json:"idle"`
	Actors        []ActorStatus `json:"actors"`
	PendingEvents []int         `json:"pending_events,omitempty"`
}

type activityTreeInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_scenario"`
	Actor     string `json:"actor" jsonschema:"actor ID"`
}

type treeNode struct {
	Depth   int    `json:"depth"`
	Label   string `json:"label"`
	State   string `json:"state"`
	Current bool   `json:"current,omitempty"`
}

type activityTreeOutput struct {
	Actor    string     `json:"actor"`
	Idle     bool       `json:"idle,omitempty"`
	Rendered string     `json:"rendered,omitempty"`
	Nodes    []treeNode `json:"nodes,omitempty"`
}

type queueActivityInput struct {
	SessionID    string `json:"session_id" jsonschema:"session ID from load_scenario"`
	Actor        string `json:"actor" jsonschema:"actor ID"`
	ActivityYAML string `json:"activity_yaml" jsonschema:"one activity definition as YAML (kind plus kind-specific fields)"`
	Child        bool   `json:"child,omitempty" jsonschema:"nest under the currently dispatched node instead of appending to the queue; only runs when that node yields to children"`
	PreTick      bool   `json:"pre_tick,omitempty" jsonschema:"with child, drive the new activity one step during installation"`
}

type queueActivityOutput struct {
	Queued  string `json:"queued"`
	Current bool   `json:"current"`
}

type cancelActivityInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_scenario"`
	Actor     string `json:"actor" jsonschema:"actor ID"`
	KeepQueue bool   `json:"keep_queue,omitempty" jsonschema:"keep queued successors instead of dropping them"`
}

type cancelActivityOutput struct {
	OK    string `json:"ok"`
	State string `json:"state"`
}

type disposeActorInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_scenario"`
	Actor     string `json:"actor" jsonschema:"actor ID"`
}

type disposeActorOutput struct {
	OK     string `json:"ok"`
	Actors int    `json:"actors"`
}

type schedulerStatsInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_scenario"`
}

type schedulerStatsOutput struct {
	Scenario      string         `json:"scenario"`
	Report        sim.Report     `json:"report"`
	Stats         activity.Stats `json:"stats"`
	PendingEvents []int          `json:"pending_events,omitempty"`
}

type resetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from load_scenario"`
}

type resetSessionOutput struct {
	OK       string `json:"ok"`
	Scenario string `json:"scenario"`
}

// --- Tool handlers ---

func (s *Server) handleLoadScenario(ctx context.Context, _ *sdkmcp.CallToolRequest, input loadScenarioInput) (*sdkmcp.CallToolResult, loadScenarioOutput, error) {
	def, err := resolveScenario(input)
	if err != nil {
		return nil, loadScenarioOutput{}, err
	}

	logger := logging.New("mcp")
	s.mu.Lock()
	if s.session != nil {
		if !input.Force {
			id := s.session.ID
			s.mu.Unlock()
			return nil, loadScenarioOutput{}, fmt.Errorf("a session is already loaded (id=%s); pass force to replace it", id)
		}
		logger.Warn("replacing loaded session", "old_id", s.session.ID, "old_scenario", s.session.Scenario)
		s.session = nil
	}
	s.mu.Unlock()

	sess, err := NewSession(def)
	if err != nil {
		return nil, loadScenarioOutput{}, fmt.Errorf("load scenario: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	logger.Info("scenario loaded", "session_id", sess.ID, "scenario", sess.Scenario, "actors", len(def.Actors), "events", len(def.Events))

	return nil, loadScenarioOutput{
		SessionID:    sess.ID,
		Scenario:     sess.Scenario,
		Actors:       sess.ActorIDs(),
		Events:       len(def.Events),
		DefaultTicks: def.Ticks,
	}, nil
}

func resolveScenario(input loadScenarioInput) (*scenario.ScenarioDef, error) {
	sources := 0
	for _, v := range []string{input.Name, input.Path, input.YAML} {
		if v != "" {
			sources++
		}
	}
	if sources != 1 {
		return nil, fmt.Errorf("load_scenario takes exactly one of name, path or yaml (builtins: %s)",
			strings.Join(scenario.ListBuiltin(), ", "))
	}
	switch {
	case input.Name != "":
		return scenario.LoadBuiltin(input.Name)
	case input.Path != "":
		return scenario.Load(input.Path)
	default:
		return scenario.Parse([]byte(input.YAML))
	}
}

func (s *Server) handleStep(ctx context.Context, _ *sdkmcp.CallToolRequest, input stepInput) (*sdkmcp.CallToolResult, stepOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, stepOutput{}, err
	}

	n := input.Ticks
	if n < 1 {
		n = 1
	}
	report, idle := sess.Step(n)

	return nil, stepOutput{
		Report:        report,
		Idle:          idle,
		Actors:        sess.ActorStatuses(),
		PendingEvents: sess.PendingEvents(),
	}, nil
}

func (s *Server) handleActivityTree(ctx context.Context, _ *sdkmcp.CallToolRequest, input activityTreeInput) (*sdkmcp.CallToolResult, activityTreeOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, activityTreeOutput{}, err
	}

	entries, rendered, err := sess.Tree(input.Actor)
	if err != nil {
		return nil, activityTreeOutput{}, err
	}
	if entries == nil {
		return nil, activityTreeOutput{Actor: input.Actor, Idle: true}, nil
	}

	nodes := make([]treeNode, len(entries))
	for i, e := range entries {
		nodes[i] = treeNode{
			Depth:   e.Depth,
			Label:   e.Label,
			State:   e.State.String(),
			Current: e.Origin,
		}
	}
	return nil, activityTreeOutput{
		Actor:    input.Actor,
		Rendered: rendered,
		Nodes:    nodes,
	}, nil
}

func (s *Server) handleQueueActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, input queueActivityInput) (*sdkmcp.CallToolResult, queueActivityOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, queueActivityOutput{}, err
	}

	if strings.TrimSpace(input.ActivityYAML) == "" {
		return nil, queueActivityOutput{}, fmt.Errorf("activity_yaml is required")
	}
	if input.PreTick && !input.Child {
		return nil, queueActivityOutput{}, fmt.Errorf("pre_tick requires child")
	}
	var def scenario.ActivityDef
	if err := yaml.Unmarshal([]byte(input.ActivityYAML), &def); err != nil {
		return nil, queueActivityOutput{}, fmt.Errorf("parse activity_yaml: %w", err)
	}

	label, wasIdle, err := sess.Queue(input.Actor, def, input.Child, input.PreTick)
	if err != nil {
		return nil, queueActivityOutput{}, fmt.Errorf("queue_activity: %w", err)
	}
	return nil, queueActivityOutput{Queued: label, Current: wasIdle}, nil
}

func (s *Server) handleCancelActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, input cancelActivityInput) (*sdkmcp.CallToolResult, cancelActivityOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, cancelActivityOutput{}, err
	}

	state, err := sess.Cancel(input.Actor, input.KeepQueue)
	if err != nil {
		return nil, cancelActivityOutput{}, err
	}
	return nil, cancelActivityOutput{OK: "cancel requested", State: state}, nil
}

func (s *Server) handleDisposeActor(ctx context.Context, _ *sdkmcp.CallToolRequest, input disposeActorInput) (*sdkmcp.CallToolResult, disposeActorOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, disposeActorOutput{}, err
	}

	left, err := sess.Dispose(input.Actor)
	if err != nil {
		return nil, disposeActorOutput{}, err
	}
	return nil, disposeActorOutput{OK: "actor disposed", Actors: left}, nil
}

func (s *Server) handleSchedulerStats(ctx context.Context, _ *sdkmcp.CallToolRequest, input schedulerStatsInput) (*sdkmcp.CallToolResult, schedulerStatsOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, schedulerStatsOutput{}, err
	}

	return nil, schedulerStatsOutput{
		Scenario:      sess.Scenario,
		Report:        sess.Report(),
		Stats:         sess.Stats(),
		PendingEvents: sess.PendingEvents(),
	}, nil
}

func (s *Server) handleResetSession(ctx context.Context, _ *sdkmcp.CallToolRequest, input resetSessionInput) (*sdkmcp.CallToolResult, resetSessionOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, resetSessionOutput{}, err
	}

	if err := sess.Reset(); err != nil {
		return nil, resetSessionOutput{}, err
	}
	logging.New("mcp").Info("session reset", "session_id", sess.ID, "scenario", sess.Scenario)
	return nil, resetSessionOutput{OK: "world rebuilt", Scenario: sess.Scenario}, nil
}

// SessionID returns the current session's ID, or empty string if none.
func (s *Server) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session.ID
	}
	return ""
}

// Shutdown drops the loaded session.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

func (s *Server) getSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, fmt.Errorf("no active session (call load_scenario first)")
	}
	if s.session.ID != id {
		return nil, fmt.Errorf("session_id mismatch: have %s, got %s", s.session.ID, id)
	}
	return s.session, nil
}
