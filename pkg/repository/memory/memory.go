package memory

import (
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
)

// Memory is the in-memory repository backend used for development and tests
type Memory struct {
	graph    *graphRepository
	sessions *sessionRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		graph:    newGraphRepository(),
		sessions: newSessionRepository(),
	}
}

func (m *Memory) Graph() interfaces.GraphRepository {
	return m.graph
}

func (m *Memory) Session() interfaces.SessionRepository {
	return m.sessions
}

func (m *Memory) Close() error {
	return nil
}
