package server

import (
	"github.com/taskhall/commenter/internal/engine"
	"github.com/taskhall/commenter/internal/handler"
	"github.com/taskhall/commenter/internal/push"
)

// Deps holds server dependencies.
type Deps struct {
	Engine *engine.Engine
	Hub    *push.Hub

	Pool       *handler.PoolHandler
	Claims     *handler.ClaimsHandler
	Submission *handler.SubmissionHandler
	Cooldown   *handler.CooldownHandler
}

// NewDeps wires handlers around the engine and event hub.
func NewDeps(eng *engine.Engine, hub *push.Hub) *Deps {
	return &Deps{
		Engine:     eng,
		Hub:        hub,
		Pool:       &handler.PoolHandler{Engine: eng},
		Claims:     &handler.ClaimsHandler{Engine: eng},
		Submission: &handler.SubmissionHandler{Engine: eng},
		Cooldown:   &handler.CooldownHandler{Engine: eng},
	}
}
