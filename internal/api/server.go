// Package api serves the simulation over HTTP.
// GET endpoints are public and read-only.
// POST endpoints require a bearer token and are rate limited per client.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/talgya/tribesim/internal/engine"
	"github.com/talgya/tribesim/internal/persistence"
	"github.com/talgya/tribesim/internal/triage"
)

const (
	defaultEventLimit = 100
	maxAdvanceDays    = 3650
)

// Server exposes one engine over HTTP.
type Server struct {
	Eng         *engine.Engine
	Recorder    *persistence.Recorder // optional; journals overrides and serves ?source=journal reads
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string
	Limiter     *RateLimiter
}

// Start begins serving in a goroutine. Call Shutdown on the returned server
// to stop it.
func (s *Server) Start() *server.Hertz {
	addr := fmt.Sprintf(":%d", s.Port)
	h := server.Default(server.WithHostPorts(addr))
	s.RegisterRoutes(h)

	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")
	go func() {
		if err := h.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return h
}

// RegisterRoutes mounts every endpoint on h.
func (s *Server) RegisterRoutes(h *server.Hertz) {
	h.Use(corsMiddleware(s.CORSOrigins))

	v1 := h.Group("/api/v1")
	v1.GET("/status", s.status)
	v1.GET("/history", s.history)
	v1.GET("/events", s.events)
	v1.GET("/stats", s.stats)

	v1.POST("/advance", s.guarded(s.advance)...)
	v1.POST("/intervention", s.guarded(s.intervention)...)
}

// guarded puts the rate limiter and admin check in front of a handler.
func (s *Server) guarded(h app.HandlerFunc) []app.HandlerFunc {
	var chain []app.HandlerFunc
	if s.Limiter != nil {
		chain = append(chain, rateLimitMiddleware(s.Limiter))
	}
	return append(chain, s.adminOnly(), h)
}

// corsMiddleware allows the configured origins plus local dev servers.
func corsMiddleware(origins []string) app.HandlerFunc {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, o := range origins {
		allowed[o] = true
	}
	return func(c context.Context, ctx *app.RequestContext) {
		origin := string(ctx.GetHeader("Origin"))
		if allowed[origin] {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", origin)
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			ctx.Response.Header.Set("Access-Control-Max-Age", "600")
		}
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if s.AdminKey == "" {
			writeErrorBody(ctx, consts.StatusForbidden, "admin_disabled", "admin endpoints disabled (no TRIBESIM_ADMIN_KEY set)")
			ctx.Abort()
			return
		}
		token, ok := strings.CutPrefix(string(ctx.GetHeader("Authorization")), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.AdminKey)) != 1 {
			writeErrorBody(ctx, consts.StatusUnauthorized, "unauthorized", "unauthorized")
			ctx.Abort()
			return
		}
		ctx.Next(c)
	}
}

type statusResponse struct {
	engine.State
	SeasonName     string         `json:"season_name"`
	GrowthModifier float64        `json:"growth_modifier"`
	ActiveEvents   map[string]int `json:"active_events"`
	Extinct        bool           `json:"extinct"`
	Speed          float64        `json:"speed"`
	Health         triage.Health  `json:"health"`
}

func (s *Server) snapshot() statusResponse {
	var resp statusResponse
	s.Eng.With(func(sim *engine.Simulation) {
		st := sim.State()
		st.History = nil
		resp = statusResponse{
			State:          st,
			SeasonName:     engine.SeasonName(st.Season),
			GrowthModifier: sim.GrowthModifier(),
			ActiveEvents:   st.EventDurations(),
			Extinct:        sim.Extinct(),
			Health:         triage.Assess(sim.History(), triage.DefaultWindow),
		}
	})
	resp.Speed = s.Eng.Speed
	return resp
}

func (s *Server) status(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, s.snapshot())
}

func (s *Server) history(c context.Context, ctx *app.RequestContext) {
	var days []engine.DaySnapshot
	if fromJournal(ctx) {
		if !s.journalReady(ctx) {
			return
		}
		var err error
		if days, err = s.Recorder.History(c); err != nil {
			s.journalFailed(ctx, err)
			return
		}
	} else {
		s.Eng.With(func(sim *engine.Simulation) {
			days = sim.History()
		})
	}
	if days == nil {
		days = []engine.DaySnapshot{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"days": days})
}

func (s *Server) events(c context.Context, ctx *app.RequestContext) {
	limit := defaultEventLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorBody(ctx, consts.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	var events []engine.Event
	if fromJournal(ctx) {
		if !s.journalReady(ctx) {
			return
		}
		var err error
		if events, err = s.Recorder.Events(c, limit); err != nil {
			s.journalFailed(ctx, err)
			return
		}
	} else {
		s.Eng.With(func(sim *engine.Simulation) {
			events = sim.RecentEvents(limit)
		})
	}
	if events == nil {
		events = []engine.Event{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"events": events})
}

// fromJournal reports whether the caller asked for ?source=journal, which
// reaches past the in-memory event ring.
func fromJournal(ctx *app.RequestContext) bool {
	return ctx.Query("source") == "journal"
}

func (s *Server) journalReady(ctx *app.RequestContext) bool {
	if s.Recorder == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "journal_disabled", "no journal is configured")
		return false
	}
	return true
}

func (s *Server) journalFailed(ctx *app.RequestContext, err error) {
	slog.Error("journal read failed", "run_id", s.Recorder.RunID(), "error", err)
	writeErrorBody(ctx, consts.StatusInternalServerError, "journal_error", "journal read failed")
}

func (s *Server) stats(_ context.Context, ctx *app.RequestContext) {
	var summary engine.Summary
	s.Eng.With(func(sim *engine.Simulation) {
		summary = sim.Summary()
	})
	ctx.JSON(consts.StatusOK, summary)
}

type advanceRequest struct {
	Days    int `json:"days"`
	Seasons int `json:"seasons"`
}

type advanceResponse struct {
	DaysAdvanced int            `json:"days_advanced"`
	Events       int            `json:"events"`
	Extinct      bool           `json:"extinct"`
	State        statusResponse `json:"state"`
}

func (s *Server) advance(_ context.Context, ctx *app.RequestContext) {
	var body advanceRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if (body.Days > 0) == (body.Seasons > 0) || body.Days < 0 || body.Seasons < 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", "exactly one of days or seasons must be positive")
		return
	}

	var extinct bool
	var seasonLength int
	s.Eng.With(func(sim *engine.Simulation) {
		extinct = sim.Extinct()
		seasonLength = sim.Params().SeasonLength
	})
	if extinct {
		writeErrorBody(ctx, consts.StatusConflict, "extinct", "the tribe has died out")
		return
	}
	if body.Days > maxAdvanceDays || body.Seasons > maxAdvanceDays/seasonLength {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_request", fmt.Sprintf("cannot advance more than %d days per request", maxAdvanceDays))
		return
	}

	var results []engine.DayResult
	if body.Days > 0 {
		results = s.Eng.Advance(body.Days)
	} else {
		results = s.Eng.AdvanceSeasons(body.Seasons)
	}

	events := 0
	for _, r := range results {
		events += len(r.Events)
	}
	state := s.snapshot()
	slog.Info("advanced via API", "days", len(results), "events", events, "extinct", state.Extinct)
	ctx.JSON(consts.StatusOK, advanceResponse{
		DaysAdvanced: len(results),
		Events:       events,
		Extinct:      state.Extinct,
		State:        state,
	})
}

type interventionRequest struct {
	Action   string   `json:"action"`
	Kind     string   `json:"kind"`
	Duration *int     `json:"duration"`
	Species  string   `json:"species"`
	Value    *int     `json:"value"`
	Amount   *float64 `json:"amount"`
}

func (s *Server) intervention(_ context.Context, ctx *app.RequestContext) {
	var body interventionRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	apply, err := body.resolve()
	if err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_intervention", err.Error())
		return
	}

	var events []engine.Event
	s.Eng.With(func(sim *engine.Simulation) {
		events = apply(sim)
	})
	if s.Recorder != nil {
		s.Recorder.RecordEvents(events)
	}
	if events == nil {
		events = []engine.Event{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"action": body.Action,
		"events": events,
		"state":  s.snapshot(),
	})
}

// resolve validates the request and binds it to a simulation override.
func (r interventionRequest) resolve() (func(*engine.Simulation) []engine.Event, error) {
	switch r.Action {
	case "trigger_event":
		kind, ok := engine.ParseDivineEvent(r.Kind)
		if !ok {
			return nil, fmt.Errorf("unknown event kind %q", r.Kind)
		}
		duration := kind.DefaultDuration()
		if r.Duration != nil {
			duration = *r.Duration
		}
		return func(sim *engine.Simulation) []engine.Event { return sim.TriggerEvent(kind, duration) }, nil

	case "cancel_events":
		return (*engine.Simulation).CancelAllEvents, nil

	case "set_population":
		species, ok := engine.ParseSpecies(r.Species)
		if !ok {
			return nil, fmt.Errorf("unknown species %q", r.Species)
		}
		if r.Value == nil {
			return nil, fmt.Errorf("set_population requires value")
		}
		v := *r.Value
		return func(sim *engine.Simulation) []engine.Event { return sim.SetPopulation(species, v) }, nil

	case "set_rainfall":
		if r.Value == nil {
			return nil, fmt.Errorf("set_rainfall requires value")
		}
		v := *r.Value
		return func(sim *engine.Simulation) []engine.Event { return sim.SetRainfall(v) }, nil

	case "set_season":
		if r.Value == nil || *r.Value < 0 {
			return nil, fmt.Errorf("set_season requires a non-negative value")
		}
		season := uint8(*r.Value % 4)
		return func(sim *engine.Simulation) []engine.Event { return sim.SetSeason(season) }, nil

	case "add_food":
		amount := 10.0
		if r.Amount != nil {
			amount = *r.Amount
		}
		return func(sim *engine.Simulation) []engine.Event { return sim.AddFood(amount) }, nil

	case "boost_knowledge":
		amount := 0.5
		if r.Amount != nil {
			amount = *r.Amount
		}
		return func(sim *engine.Simulation) []engine.Event { return sim.BoostKnowledge(amount) }, nil

	case "boost_farming":
		levels := 1
		if r.Value != nil {
			levels = *r.Value
		}
		return func(sim *engine.Simulation) []engine.Event { return sim.BoostFarming(levels) }, nil

	case "flood":
		return (*engine.Simulation).TriggerFlood, nil

	default:
		return nil, fmt.Errorf("unknown action %q", r.Action)
	}
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
