// Package exporter writes the badge timeline of a record log to a file.
package exporter

import (
	"errors"
	"time"
)

// ErrUsage marks invalid arguments, reported before any data is read.
var ErrUsage = errors.New("invalid arguments")

// Config holds the options of one export.
type Config struct {
	Input      string // record log to read
	Output     string // CSV or XLSX destination
	GroupBy    string // trainer or deck
	Season     int    // season ending year; 0 means no season bound
	StartDate  string // inclusive ISO date
	EndDate    string // exclusive ISO date
	Cumulative bool   // wide table instead of long rows
	Value      string // pivot field of the wide table and the chart
	Format     string // csv or xlsx; empty picks by extension
	ImageMap   string // optional JSON file of entity images
	Chart      string // optional PNG destination

	// IconURLTemplate resolves deck icon ids, see TemplateIconResolver.
	IconURLTemplate string
	// TierWeights overrides the default tier points.
	TierWeights map[string]int
}

// Stats describes a finished export.
type Stats struct {
	Input    string
	Output   string
	Chart    string
	Format   string
	Badges   int
	Rows     int
	Entities int
	Dates    int
	Window   string
	Duration time.Duration
}
