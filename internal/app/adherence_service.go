package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"medication_reminder_service/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// Stats holds the basic adherence counts and rate over a window.
// AdherenceRate is a one-decimal percentage of taken over completed
// opportunities (taken + missed); pending and skipped reminders are
// not opportunities.
type Stats struct {
	Total         int
	Taken         int
	Missed        int
	Skipped       int
	Pending       int
	AdherenceRate float64
}

// MedicationStats is the per-medication breakdown entry.
type MedicationStats struct {
	MedicationID  string
	Taken         int
	Missed        int
	Skipped       int
	Pending       int
	AdherenceRate float64
}

// BucketStats is the adherence breakdown for one time-of-day bucket.
type BucketStats struct {
	Taken         int
	Missed        int
	AdherenceRate float64
}

// TimeOfDayStats buckets reminders by the hour of their scheduled
// time: morning [6,12), afternoon [12,18), evening [18,24), night [0,6).
type TimeOfDayStats struct {
	Morning   BucketStats
	Afternoon BucketStats
	Evening   BucketStats
	Night     BucketStats
}

// DetailedStats extends Stats with groupings and streaks.
type DetailedStats struct {
	Stats
	ByMedication []MedicationStats
	ByTimeOfDay  TimeOfDayStats
	// BestMedicationID / MostMissedMedicationID are the arg-max /
	// arg-min over per-medication rates; ties go to the medication
	// encountered first. Empty when no medication has completed doses.
	BestMedicationID       string
	MostMissedMedicationID string
	CurrentStreak          int
	LongestStreak          int
}

// AdherenceService computes adherence statistics over reminder
// history. It is read-only apart from the freshness sweep it triggers
// before counting, so stale pending reminders show up as missed.
type AdherenceService struct {
	reminders reminder.Repository
	sweeper   *SweeperService
	logger    *logrus.Entry
}

func NewAdherenceService(reminders reminder.Repository, sweeper *SweeperService, logger *logrus.Entry) *AdherenceService {
	return &AdherenceService{reminders: reminders, sweeper: sweeper, logger: logger}
}

// ComputeStats returns the basic counts and adherence rate for the
// requested window.
func (s *AdherenceService) ComputeStats(ctx context.Context, req StatsRequest) (Stats, error) {
	if err := req.Validate(); err != nil {
		return Stats{}, err
	}
	s.freshen(ctx)

	counts, err := s.reminders.CountByStatus(ctx, req.UserID, req.StartDate, req.EndDate)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate reminders for user %s: %w", req.UserID, err)
	}
	return Stats{
		Total:         counts.Total,
		Taken:         counts.Taken,
		Missed:        counts.Missed,
		Skipped:       counts.Skipped,
		Pending:       counts.Pending,
		AdherenceRate: adherenceRate(counts.Taken, counts.Missed),
	}, nil
}

// ComputeDetailedStats adds per-medication and time-of-day breakdowns
// and day streaks on top of the basic counts.
func (s *AdherenceService) ComputeDetailedStats(ctx context.Context, req StatsRequest) (DetailedStats, error) {
	if err := req.Validate(); err != nil {
		return DetailedStats{}, err
	}
	s.freshen(ctx)

	reminders, err := s.reminders.ListByUserBetween(ctx, req.UserID, req.StartDate, req.EndDate)
	if err != nil {
		return DetailedStats{}, fmt.Errorf("failed to list reminders for user %s: %w", req.UserID, err)
	}

	out := DetailedStats{}
	for _, r := range reminders {
		out.Total++
		switch r.Status {
		case reminder.StatusTaken:
			out.Taken++
		case reminder.StatusMissed:
			out.Missed++
		case reminder.StatusSkipped:
			out.Skipped++
		case reminder.StatusPending:
			out.Pending++
		}
	}
	out.AdherenceRate = adherenceRate(out.Taken, out.Missed)
	out.ByMedication = groupByMedication(reminders)
	out.BestMedicationID, out.MostMissedMedicationID = rankMedications(out.ByMedication)
	out.ByTimeOfDay = bucketByTimeOfDay(reminders, req.Location)
	out.CurrentStreak, out.LongestStreak = computeStreaks(reminders, req.Location)
	return out, nil
}

// freshen runs a best-effort sweep; counting proceeds even if the
// sweep fails.
func (s *AdherenceService) freshen(ctx context.Context) {
	if s.sweeper == nil {
		return
	}
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		s.logger.WithError(err).Warn("Pre-stats overdue sweep failed; stats may count stale pending reminders.")
	}
}

// adherenceRate is round(taken/(taken+missed)*1000)/10, one decimal
// percent; 0 when there are no completed opportunities.
func adherenceRate(taken, missed int) float64 {
	completed := taken + missed
	if completed == 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(completed)*1000) / 10
}

func groupByMedication(reminders []*reminder.Reminder) []MedicationStats {
	index := make(map[string]int)
	groups := make([]MedicationStats, 0)
	for _, r := range reminders {
		i, ok := index[r.MedicationID]
		if !ok {
			i = len(groups)
			index[r.MedicationID] = i
			groups = append(groups, MedicationStats{MedicationID: r.MedicationID})
		}
		switch r.Status {
		case reminder.StatusTaken:
			groups[i].Taken++
		case reminder.StatusMissed:
			groups[i].Missed++
		case reminder.StatusSkipped:
			groups[i].Skipped++
		case reminder.StatusPending:
			groups[i].Pending++
		}
	}
	for i := range groups {
		groups[i].AdherenceRate = adherenceRate(groups[i].Taken, groups[i].Missed)
	}
	return groups
}

// rankMedications picks best and most-missed by per-medication rate,
// considering only medications with at least one completed dose.
// Strict comparisons keep ties on the first-encountered group.
func rankMedications(groups []MedicationStats) (best, worst string) {
	bestRate, worstRate := -1.0, 101.0
	for _, g := range groups {
		if g.Taken+g.Missed == 0 {
			continue
		}
		if g.AdherenceRate > bestRate {
			bestRate = g.AdherenceRate
			best = g.MedicationID
		}
		if g.AdherenceRate < worstRate {
			worstRate = g.AdherenceRate
			worst = g.MedicationID
		}
	}
	return best, worst
}

func bucketByTimeOfDay(reminders []*reminder.Reminder, loc *time.Location) TimeOfDayStats {
	var out TimeOfDayStats
	for _, r := range reminders {
		var b *BucketStats
		switch hour := r.ScheduledTime.In(loc).Hour(); {
		case hour >= 6 && hour < 12:
			b = &out.Morning
		case hour >= 12 && hour < 18:
			b = &out.Afternoon
		case hour >= 18:
			b = &out.Evening
		default:
			b = &out.Night
		}
		switch r.Status {
		case reminder.StatusTaken:
			b.Taken++
		case reminder.StatusMissed:
			b.Missed++
		}
	}
	for _, b := range []*BucketStats{&out.Morning, &out.Afternoon, &out.Evening, &out.Night} {
		b.AdherenceRate = adherenceRate(b.Taken, b.Missed)
	}
	return out
}

// computeStreaks walks calendar days that have at least one completed
// (taken or missed) reminder. A day extends a streak iff its rate is
// exactly 100; any lower rate breaks it. Days with no completed
// reminders neither extend nor break. The current streak is the run
// ending at the most recent day with completed data.
func computeStreaks(reminders []*reminder.Reminder, loc *time.Location) (current, longest int) {
	type dayCounts struct{ taken, missed int }
	days := make(map[string]*dayCounts)
	for _, r := range reminders {
		if r.Status != reminder.StatusTaken && r.Status != reminder.StatusMissed {
			continue
		}
		key := r.ScheduledTime.In(loc).Format("2006-01-02")
		d, ok := days[key]
		if !ok {
			d = &dayCounts{}
			days[key] = d
		}
		if r.Status == reminder.StatusTaken {
			d.taken++
		} else {
			d.missed++
		}
	}
	if len(days) == 0 {
		return 0, 0
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	run := 0
	for _, k := range keys {
		d := days[k]
		if d.missed == 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	// keys are chronological, so the final run is the one ending at
	// the most recent day with data.
	current = run
	return current, longest
}
