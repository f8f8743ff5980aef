package usecase

import "time"

type CreateLeadInput struct {
	ClientName  string `json:"client_name" validate:"required,min=2,max=200"`
	ClientEmail string `json:"client_email" validate:"required,email"`
	ClientPhone string `json:"client_phone" validate:"omitempty,phone"`
	ProductID   string `json:"product_id" validate:"omitempty,max=100"`
	Message     string `json:"message" validate:"omitempty,max=2000"`
	Priority    int    `json:"priority" validate:"gte=0,lte=100"`
}

type AgentActionInput struct {
	AgentID string `json:"agent_id" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=start complete reject"`
}

type ReassignInput struct {
	AdminID       string `json:"admin_id"`
	TargetAgentID string `json:"target_agent_id"`
}

type CreateAgentInput struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role" validate:"required,oneof=admin seller"`
	Availability string `json:"availability" validate:"omitempty,oneof=available busy offline"`
}

type UpdateAvailabilityInput struct {
	Availability string `json:"availability" validate:"required,oneof=available busy offline"`
}

type QueueStats struct {
	TotalInQueue        int        `json:"total_in_queue"`
	AverageWaitMinutes  float64    `json:"average_wait_minutes"`
	OldestLeadCreatedAt *time.Time `json:"oldest_lead_created_at,omitempty"`
}

type DrainOutput struct {
	Assigned int `json:"assigned"`
}
