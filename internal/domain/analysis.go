package domain

import "time"

type AnalysisType struct {
	ID          int32  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCoins  int64  `json:"price_coins"`
	Active      bool   `json:"active"`
}

// Analysis is a purchased reading. ResultText is the generated fortune text
// and is stored as-is.
type Analysis struct {
	ID                 int32               `json:"id"`
	UserID             int32               `json:"user_id"`
	AnalysisTypeID     int32               `json:"analysis_type_id"`
	AnalysisTypeCode   string              `json:"analysis_type_code,omitempty"`
	Chart              SajuChart           `json:"chart"`
	Distribution       ElementDistribution `json:"distribution"`
	Summary            ElementSummary      `json:"summary"`
	ResultText         string              `json:"result_text"`
	SpendTransactionID int32               `json:"spend_transaction_id"`
	CreatedAt          time.Time           `json:"created_at"`
}
