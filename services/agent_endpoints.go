package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interview-coach/models"
)

type AgentEndpoints struct{}

type AgentOut struct {
	Type           models.AgentType `json:"type"`
	OpeningMessage string           `json:"opening_message"`
}

type GetAgentsResponse struct {
	Agents []AgentOut `json:"agents"`
	Count  int        `json:"count"`
}

func NewAgentEndpoints() *AgentEndpoints {
	return &AgentEndpoints{}
}

func (e *AgentEndpoints) RegisterRoutes(r chi.Router) {
	r.Get("/agents", e.GetAgentsHandler)
}

// GetAgentsHandler lists the personas a session can be started with.
func (e *AgentEndpoints) GetAgentsHandler(w http.ResponseWriter, r *http.Request) {
	agents := make([]AgentOut, 0, len(models.AgentTypes))
	for _, agentType := range models.AgentTypes {
		agents = append(agents, AgentOut{
			Type:           agentType,
			OpeningMessage: OpeningMessage(agentType),
		})
	}

	writeJSON(w, http.StatusOK, GetAgentsResponse{
		Agents: agents,
		Count:  len(agents),
	})
}
