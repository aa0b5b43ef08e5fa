package firesync

import (
	"context"
)

// CompareReport is the payload of the comparison endpoint: one summary per
// entity type plus the aggregate verdict.
type CompareReport struct {
	Synchronized bool           `json:"synchronise"`
	Types        []*TypeSummary `json:"types"`
}

func (s *Service) BuildCompareReport(ctx context.Context) (*CompareReport, error) {
	results, err := s.CompareAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &CompareReport{Synchronized: true}
	for _, result := range results {
		summary := summarize(result)
		report.Types = append(report.Types, summary)
		if !summary.Synchronized {
			report.Synchronized = false
		}
	}
	return report, nil
}

// emptyCompareReport is the zero-count comparison shape. Failure envelopes
// carry it so consumers always see the same fields.
func emptyCompareReport() *CompareReport {
	report := &CompareReport{}
	for _, entityType := range SyncOrder {
		report.Types = append(report.Types, &TypeSummary{Type: entityType})
	}
	return report
}

// TypeStatistics is the flattened per-type view: row counts on both sides
// plus what each side is missing.
type TypeStatistics struct {
	Local           int  `json:"local"`
	Firebase        int  `json:"firebase"`
	MissingLocal    int  `json:"missing_local"`
	MissingFirebase int  `json:"missing_firebase"`
	Synchronized    bool `json:"synchronise"`
}

type StatisticsReport struct {
	TotalLocal    int                            `json:"total_local"`
	TotalFirebase int                            `json:"total_firebase"`
	MissingData   int                            `json:"missing_data"`
	Synchronized  bool                           `json:"synchronise"`
	ByType        map[EntityType]*TypeStatistics `json:"by_type"`
}

// BuildStatisticsReport flattens comparison results into the statistics
// view. Pure, no I/O.
func BuildStatisticsReport(results []*ComparisonResult) *StatisticsReport {
	report := &StatisticsReport{
		Synchronized: true,
		ByType:       map[EntityType]*TypeStatistics{},
	}
	for _, result := range results {
		stats := &TypeStatistics{
			Local:           result.LocalCount,
			Firebase:        result.RemoteCount,
			MissingLocal:    len(result.RemoteOnly),
			MissingFirebase: len(result.LocalOnly),
			Synchronized:    result.Synchronized(),
		}
		report.ByType[result.Type] = stats
		report.TotalLocal += stats.Local
		report.TotalFirebase += stats.Firebase
		report.MissingData += stats.MissingLocal + stats.MissingFirebase
		if !stats.Synchronized {
			report.Synchronized = false
		}
	}
	return report
}

func (s *Service) Statistics(ctx context.Context) (*StatisticsReport, error) {
	results, err := s.CompareAll(ctx)
	if err != nil {
		return nil, err
	}
	return BuildStatisticsReport(results), nil
}

func emptyStatisticsReport() *StatisticsReport {
	report := &StatisticsReport{ByType: map[EntityType]*TypeStatistics{}}
	for _, entityType := range SyncOrder {
		report.ByType[entityType] = &TypeStatistics{}
	}
	return report
}

const (
	syncStatusSynchronised    = "synchronised"
	syncStatusNotSynchronised = "not_synchronised"
	syncStatusError           = "error"
)

// synchronisationStatus runs a comparison and condenses it into the status
// string the connection check reports. A comparison failure degrades to
// "error" instead of failing the whole check.
func (s *Service) synchronisationStatus(ctx context.Context) (status string, available bool) {
	report, err := s.BuildCompareReport(ctx)
	if err != nil {
		return syncStatusError, false
	}
	if report.Synchronized {
		return syncStatusSynchronised, true
	}
	return syncStatusNotSynchronised, true
}
