package rest

import (
	"github.com/pribylovaa/comments-engine/internal/models"
)

// listResponse — страница в формате DRF-пагинации.
type listResponse struct {
	Results []models.Comment `json:"results"`
	Next    *string          `json:"next"`
}

type countResponse struct {
	Count int `json:"count"`
}

type reportRequest struct {
	ReporterTelegramID string `json:"reporter_telegram_id"`
	Reason             string `json:"reason"`
	Description        string `json:"description,omitempty"`
}
