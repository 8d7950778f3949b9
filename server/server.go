// Copyright 2026 OpenClerk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/openclerk/openclerk/ingestion"
	"github.com/openclerk/openclerk/search"
	"github.com/openclerk/openclerk/storage"
)

var (
	// ErrPipelineRequired is returned when an ingestion pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrMeetingRepositoryRequired is returned when a meeting repository is not provided.
	ErrMeetingRepositoryRequired = errors.New("meeting repository required")

	// ErrVersionRepositoryRequired is returned when a version repository is not provided.
	ErrVersionRepositoryRequired = errors.New("version repository required")

	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")
)

// Server wires the pipeline, repositories, and searcher into an HTTP API.
type Server struct {
	pipeline *ingestion.Pipeline
	meetings storage.MeetingRepository
	versions storage.VersionRepository
	searcher *search.Searcher
	router   *gin.Engine
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCORS enables the CORS middleware for the given origins.
func WithCORS(allowedOrigins string) Option {
	return func(s *Server) {
		s.router.Use(CORS(allowedOrigins))
	}
}

// NewServer creates the API server and registers its routes.
func NewServer(
	pipeline *ingestion.Pipeline,
	meetings storage.MeetingRepository,
	versions storage.VersionRepository,
	searcher *search.Searcher,
	opts ...Option,
) (*Server, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if meetings == nil {
		return nil, ErrMeetingRepositoryRequired
	}
	if versions == nil {
		return nil, ErrVersionRepositoryRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		pipeline: pipeline,
		meetings: meetings,
		versions: versions,
		searcher: searcher,
		router:   gin.New(),
		logger:   slog.Default().With("component", "server"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(gin.Recovery())
	s.router.Use(Logger(s.logger))
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		api.POST("/ingest", s.handleIngest)
		api.GET("/meetings", s.handleMeetings)
		api.GET("/meetings/:videoId/versions", s.handleListVersions)
		api.POST("/meetings/:videoId/restore", s.handleRestore)
		api.POST("/transcripts", s.handleManualTranscript)
		api.GET("/search", s.handleSearch)
	}
}

// Router exposes the underlying gin engine, primarily for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server on the given address and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.router.Run(addr)
}
