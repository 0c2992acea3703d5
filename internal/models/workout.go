package models

import (
	"strconv"
	"time"
)

// DateLayout is the date format used by forms and the date columns
const DateLayout = "2006-01-02"

// Workout is a training session owned by one user
type Workout struct {
	ID          int       `json:"id"`
	UserID      int       `json:"userId"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	DurationMin int       `json:"durationMin"`
	Intensity   int       `json:"intensity"`
	Calories    *int      `json:"calories,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// WorkoutForm holds the raw submitted values, echoed back when validation fails
type WorkoutForm struct {
	Date        string
	Type        string
	DurationMin string
	Intensity   string
	Calories    string
	Notes       string
}

// WorkoutInput is a parsed workout form
type WorkoutInput struct {
	Date        string `form:"date" label:"Date" validate:"required,datetime=2006-01-02" message:"Date is required (YYYY-MM-DD)."`
	Type        string `form:"type" label:"Type" validate:"required,max=50"`
	DurationMin int    `form:"duration_min" label:"Duration" validate:"gt=0,lte=1440" message:"Duration must be a positive number of minutes (at most 1440)."`
	Intensity   int    `form:"intensity" label:"Intensity" validate:"min=1,max=5" message:"Intensity must be between 1 and 5."`
	Calories    *int   `form:"calories" label:"Calories" validate:"omitempty,min=0,max=20000"`
	Notes       string `form:"notes" label:"Notes" validate:"max=1000"`
}

// FormFromWorkout fills a form with a stored workout for editing
func FormFromWorkout(w *Workout) WorkoutForm {
	f := WorkoutForm{
		Date:        w.Date.Format(DateLayout),
		Type:        w.Type,
		DurationMin: strconv.Itoa(w.DurationMin),
		Intensity:   strconv.Itoa(w.Intensity),
		Notes:       w.Notes,
	}
	if w.Calories != nil {
		f.Calories = strconv.Itoa(*w.Calories)
	}
	return f
}

// WorkoutSearchForm holds the raw search query values
type WorkoutSearchForm struct {
	Query       string
	DateFrom    string
	DateTo      string
	MinDuration string
}

// WorkoutFilter is a typed search predicate over the caller's workouts.
// Zero values mean "no constraint".
type WorkoutFilter struct {
	Query       string
	DateFrom    *time.Time
	DateTo      *time.Time
	MinDuration *int
}

// Page describes one page of a paginated list
type Page struct {
	Number     int
	Size       int
	Total      int
	TotalPages int
}

// NewPage builds a page descriptor, clamping the requested number to at least 1
func NewPage(number, size, total int) Page {
	if number < 1 {
		number = 1
	}
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	return Page{Number: number, Size: size, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasPrev reports whether there is a previous page
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether there is a next page
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number
func (p Page) Prev() int { return p.Number - 1 }

// Next returns the next page number
func (p Page) Next() int { return p.Number + 1 }

// WorkoutSearchInput is a parsed search form
type WorkoutSearchInput struct {
	DateFrom    string `form:"date_from" label:"From date" validate:"omitempty,datetime=2006-01-02"`
	DateTo      string `form:"date_to" label:"To date" validate:"omitempty,datetime=2006-01-02"`
	MinDuration *int   `form:"min_duration" label:"Minimum duration" validate:"omitempty,min=0"`
}
