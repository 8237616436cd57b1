package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/replayd/internal/api/v1"
	"github.com/gosuda/replayd/internal/api/ws"
)

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterSessionRoutes(api, deps.Authorizer, deps.Replay)
	v1.RegisterFrameRoutes(api, deps.Authorizer, deps.Frames, deps.FrameBytes)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/sessions/{sessionID}/artifacts", hub.ServeArtifacts)
}
