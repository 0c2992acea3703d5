package models

import (
	"strconv"
	"time"
)

// Metric is a body measurement entry owned by one user
type Metric struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Date        time.Time `json:"date"`
	WeightKg    *float64  `json:"weightKg,omitempty"`
	Steps       *int      `json:"steps,omitempty"`
	BPSystolic  *int      `json:"bpSystolic,omitempty"`
	BPDiastolic *int      `json:"bpDiastolic,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MetricForm holds the raw submitted values
type MetricForm struct {
	Date        string
	WeightKg    string
	Steps       string
	BPSystolic  string
	BPDiastolic string
	Notes       string
}

// MetricInput is a parsed metric form
type MetricInput struct {
	Date        string   `form:"date" label:"Date" validate:"required,datetime=2006-01-02" message:"Date is required (YYYY-MM-DD)."`
	WeightKg    *float64 `form:"weight_kg" label:"Weight" validate:"omitempty,gt=0,lte=500" message:"Weight must be between 0 and 500 kg."`
	Steps       *int     `form:"steps" label:"Steps" validate:"omitempty,min=0,max=200000"`
	BPSystolic  *int     `form:"bp_systolic" label:"Systolic pressure" validate:"omitempty,min=50,max=260"`
	BPDiastolic *int     `form:"bp_diastolic" label:"Diastolic pressure" validate:"omitempty,min=30,max=200"`
	Notes       string   `form:"notes" label:"Notes" validate:"max=1000"`
}

// FormFromMetric fills a form with a stored metric for editing
func FormFromMetric(m *Metric) MetricForm {
	f := MetricForm{
		Date:  m.Date.Format(DateLayout),
		Notes: m.Notes,
	}
	if m.WeightKg != nil {
		f.WeightKg = strconv.FormatFloat(*m.WeightKg, 'f', -1, 64)
	}
	if m.Steps != nil {
		f.Steps = strconv.Itoa(*m.Steps)
	}
	if m.BPSystolic != nil {
		f.BPSystolic = strconv.Itoa(*m.BPSystolic)
	}
	if m.BPDiastolic != nil {
		f.BPDiastolic = strconv.Itoa(*m.BPDiastolic)
	}
	return f
}
