package uploadsvc

import (
	"context"
	"time"
)

// SweepReport — итог одного прохода GC.
type SweepReport struct {
	Sessions int
	Staged   int
	Skipped  int
}

// SweepStale удаляет сессии, в которые ничего не писали дольше ttl, и брошенные
// временные файлы. Занятые сессии пропускаются до следующего прохода.
func (s *Uploads) SweepStale(ctx context.Context, ttl time.Duration) (SweepReport, error) {
	var report SweepReport
	if ttl <= 0 {
		return report, nil
	}

	sessions, err := s.Store.Sessions()
	if err != nil {
		return report, err
	}

	now := time.Now()
	for _, si := range sessions {
		if err = ctx.Err(); err != nil {
			return report, err
		}
		if now.Sub(si.ModTime) < ttl {
			continue
		}

		release, ok := s.gates.acquireExclusive(si.ID)
		if !ok {
			report.Skipped++
			continue
		}
		err = s.Store.DeleteSession(si.ID)
		release()
		if err != nil {
			s.Log.Warn().Err(err).Str("session", si.ID).Msg("stale session removal failed")
			continue
		}
		report.Sessions++
		s.Log.Info().Str("session", si.ID).Time("last_write", si.ModTime).Msg("stale session removed")
	}

	if report.Staged, err = s.Store.SweepStaging(ttl); err != nil {
		return report, err
	}

	return report, nil
}
