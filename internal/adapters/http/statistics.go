package httpadapter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
)

func (rt *Router) getStatistics(w http.ResponseWriter, r *http.Request) {
	period, topLimit, err := parseStatisticsQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := rt.stats.Collect(r.Context(), period, topLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportStatistics(w http.ResponseWriter, r *http.Request) {
	period, topLimit, err := parseStatisticsQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := rt.stats.Collect(r.Context(), period, topLimit)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordExport(rt.service, err)
		}
		writeError(w, err)
		return
	}

	workbook, err := rt.exporter.Render(*stats)
	if rt.metrics != nil {
		rt.metrics.RecordExport(rt.service, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="statistics.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func parseStatisticsQuery(r *http.Request) (domain.StatisticsPeriod, int, error) {
	q := r.URL.Query()
	period := domain.StatisticsPeriod{DocType: q.Get("doc_type")}

	var err error
	if period.From, err = parseDateParam(q.Get("from")); err != nil {
		return domain.StatisticsPeriod{}, 0, err
	}
	if period.To, err = parseDateParam(q.Get("to")); err != nil {
		return domain.StatisticsPeriod{}, 0, err
	}

	topLimit := 0
	if raw := q.Get("top"); raw != "" {
		topLimit, err = strconv.Atoi(raw)
		if err != nil {
			return domain.StatisticsPeriod{}, 0,
				domain.WrapError(domain.ErrValidation, "parse statistics query",
					err)
		}
	}
	return period, topLimit, nil
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrValidation, "parse date", err)
	}
	return ts, nil
}
