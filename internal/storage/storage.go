package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/skncr-ai/scanner/internal/session"
)

// Entry is one live pipeline registered with the server
type Entry struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Camera    string             `json:"camera"`
	CreatedAt time.Time          `json:"createdAt"`
	Pipeline  session.Controller `json:"-"`
}

type PipelineStore struct {
	pipelines map[string]*Entry
	mu        sync.RWMutex
}

func New() *PipelineStore {
	return &PipelineStore{
		pipelines: make(map[string]*Entry),
	}
}

func (s *PipelineStore) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, exists := s.pipelines[id]
	return entry, exists
}

func (s *PipelineStore) Set(id string, entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipelines[id] = entry
}

// GetAll returns every entry, oldest first
func (s *PipelineStore) GetAll() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.pipelines))
	for _, v := range s.pipelines {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes an entry and returns it
func (s *PipelineStore) Delete(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, exists := s.pipelines[id]
	delete(s.pipelines, id)
	return entry, exists
}

func (s *PipelineStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pipelines)
}

// CloseAll closes and removes every pipeline
func (s *PipelineStore) CloseAll() {
	s.mu.Lock()
	entries := s.pipelines
	s.pipelines = make(map[string]*Entry)
	s.mu.Unlock()

	for _, entry := range entries {
		_ = entry.Pipeline.Close()
	}
}
