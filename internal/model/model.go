package model

import (
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model/messages"
)

// Alias per esporre tipi comuni ai servizi

type (
	PredictionRecord = entities.PredictionRecord
	PredictionSet    = entities.PredictionSet
	ComparisonRecord = entities.ComparisonRecord
	Selection        = entities.Selection
	Region           = entities.Region
	ExportEvent      = messages.ExportEvent
)
