package uploadhttp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/upload_lite/pkg/httperrors"
)

const manualGCTTL = 24 * time.Hour

// gcOnce вручную запускает сбор брошенных сессий.
func (a *Server) gcOnce(w http.ResponseWriter, r *http.Request) {
	ttl := a.gcTTL
	if ttl <= 0 {
		ttl = manualGCTTL
	}

	report, err := a.svc.SweepStale(r.Context(), ttl)
	if err != nil {
		httperrors.Write(w, err)
		return
	}
	logReport(a.log, report, "manual")

	w.WriteHeader(http.StatusNoContent)
}

// StartGC стартует периодическую очистку по cron-расписанию и возвращает функцию остановки.
// При ttl <= 0 GC выключен.
func StartGC(svc uploadsvc.Service, ttl time.Duration, schedule string, log zerolog.Logger) (func(), error) {
	if ttl <= 0 {
		return func() {}, nil
	}

	clog := cronLogger{log: log.With().Str("component", "gc").Logger()}
	c := cron.New(cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	_, err := c.AddFunc(schedule, func() {
		report, err := svc.SweepStale(context.Background(), ttl)
		if err != nil {
			clog.log.Error().Err(err).Msg("gc sweep failed")
			return
		}
		logReport(clog.log, report, "scheduled")
	})
	if err != nil {
		return nil, fmt.Errorf("gc schedule %q: %w", schedule, err)
	}
	c.Start()

	var once sync.Once
	return func() {
		once.Do(func() {
			<-c.Stop().Done()
		})
	}, nil
}

func logReport(log zerolog.Logger, report uploadsvc.SweepReport, trigger string) {
	log.Info().
		Str("trigger", trigger).
		Int("sessions", report.Sessions).
		Int("staged", report.Staged).
		Int("skipped", report.Skipped).
		Msg("gc sweep finished")
}

// cronLogger адаптирует zerolog к cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
