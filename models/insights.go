package models

// SalaryStats summarises the monetary column of one record.
type SalaryStats struct {
	Year     int
	JobTitle string
	Count    int
	Min      int64
	Max      int64
	Average  float64
	Absent   bool
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	TotalRecords  int
	AbsentRecords int
	TotalRows     int
	Column        string
	PerRecord     []SalaryStats
	Highest       *SalaryStats
}
