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


package openclerk

import (
	"io"
	"log/slog"

	"github.com/openclerk/openclerk/ai"
	"github.com/openclerk/openclerk/ai/openai"
	"github.com/openclerk/openclerk/feed"
	"github.com/openclerk/openclerk/ingestion"
	"github.com/openclerk/openclerk/reembed"
	"github.com/openclerk/openclerk/search"
	"github.com/openclerk/openclerk/storage"
	"github.com/openclerk/openclerk/storage/badger"
	"github.com/openclerk/openclerk/transcript"
)

// Service wires the storage backend, repositories, and AI provider into a
// single handle the binaries build everything else from.
type Service struct {
	backend     *badger.Backend
	meetingRepo storage.MeetingRepository
	versionRepo storage.VersionRepository
	chunkRepo   storage.ChunkRepository
	provider    ai.Provider
	logger      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the default AI service configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// NewService opens the store at filePath and constructs the repositories
// and AI provider. An empty filePath opens an in-memory store.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, filePath == "")
	if err != nil {
		return nil, err
	}

	meetingRepo, err := badger.NewMeetingRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	versionRepo, err := badger.NewVersionRepository(backend)
	if err != nil {
		meetingRepo.Close()
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		versionRepo.Close()
		meetingRepo.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		chunkRepo.Close()
		versionRepo.Close()
		meetingRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:     backend,
		meetingRepo: meetingRepo,
		versionRepo: versionRepo,
		chunkRepo:   chunkRepo,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.chunkRepo.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := s.versionRepo.Close(); err != nil {
		s.logger.Error("error closing version repository", "err", err)
		return err
	}
	if err := s.meetingRepo.Close(); err != nil {
		s.logger.Error("error closing meeting repository", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Service) MeetingRepository() storage.MeetingRepository {
	return s.meetingRepo
}

func (s *Service) VersionRepository() storage.VersionRepository {
	return s.versionRepo
}

func (s *Service) ChunkRepository() storage.ChunkRepository {
	return s.chunkRepo
}

func (s *Service) Provider() ai.Provider {
	return s.provider
}

// NewIngestionPipeline builds a pipeline over the service's repositories.
// The fetcher and discoverer are caller-supplied so binaries can point at
// different channels or inject manual acquisition.
func (s *Service) NewIngestionPipeline(fetcher transcript.Fetcher, discoverer feed.Discoverer, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.meetingRepo, s.chunkRepo, s.provider, fetcher, discoverer, opts...)
}

func (s *Service) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.chunkRepo, s.provider, opts...)
}

// NewReembedder builds a re-embedder over the stored chunk corpus.
// progress output goes to the given writer, typically os.Stderr.
func (s *Service) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(s.meetingRepo, s.chunkRepo, s.provider.Embedder(), config, progress)
}
