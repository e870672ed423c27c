package handler

import (
	"clarity/internal/process/models"
	"clarity/internal/process/workflow"
)

// ListResponse is the body of GET /processes, most recent first.
type ListResponse struct {
	Processes []*models.Process `json:"processes"`
}

// WorkflowResponse is the body of GET /processes/{id}/workflow.
type WorkflowResponse struct {
	Nodes []workflow.NodeStatus `json:"nodes"`
}
