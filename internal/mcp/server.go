// Package mcp exposes the world over the Model Context Protocol so agent
// tooling can query entities, walk the graph, and run consistency checks.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"fableforge/internal/world"
)

type Server struct {
	world *world.World
	mcp   *sdk.Server
}

func NewServer(w *world.World, version string) *Server {
	s := &Server{
		world: w,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "fableforge",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
