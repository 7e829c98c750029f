package models

import "time"

// Alert conditions
const (
	ConditionAbove = "ABOVE"
	ConditionBelow = "BELOW"
)

// Alert statuses
const (
	AlertActive    = "ACTIVE"
	AlertTriggered = "TRIGGERED"
)

// PriceAlert watches a symbol until its price crosses TargetPrice
type PriceAlert struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	TargetPrice  float64 `json:"targetPrice"`
	InitialPrice float64 `json:"initialPrice"`
	Condition    string  `json:"condition"`
	Status       string  `json:"status"`
	CreatedAt    int64   `json:"createdAt"`
}

// Created returns the creation time; CreatedAt is stored in unix milliseconds
func (a PriceAlert) Created() time.Time {
	return time.UnixMilli(a.CreatedAt)
}

// Crossed reports whether price satisfies the alert condition
func (a PriceAlert) Crossed(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price >= a.TargetPrice
	case ConditionBelow:
		return price <= a.TargetPrice
	}
	return false
}
