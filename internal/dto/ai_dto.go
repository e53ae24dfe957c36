package dto

import "care-advisor-be/pkg/profile"

type AnalyzeRequest struct {
	Content string `json:"content" validate:"required"`
}

type ContextMessage struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content"`
}

type GenerateResponseRequest struct {
	Query           string           `json:"query" validate:"required"`
	CustomerProfile profile.Profile  `json:"customer_profile"`
	Context         []ContextMessage `json:"context" validate:"dive"`
}

type GenerateResponseResponse struct {
	Response string `json:"response"`
}
