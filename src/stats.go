package cqtscope

import "time"

/*------------------------------------------------------------------
 *
 * Purpose:	Periodic diagnostic reporting for the sample stream,
 *		adapted from direwolf's audio_stats.go: "A common
 *		complaint is that there is no indication of audio input
 *		level until a packet is received correctly ... prints
 *		something like this each 100 seconds." Here the
 *		equivalent complaint is silent overrun - the accumulator
 *		never blocks or errors on a full ring, so without a
 *		periodic report a misconfigured (too-small) ring could
 *		drop blocks indefinitely unnoticed.
 *
 *------------------------------------------------------------------*/

// streamStats accumulates sample counts between reports and tracks
// when the last report fired, mirroring audio_stats.go's
// per-device counters and interval gate.
type streamStats struct {
	interval        time.Duration
	lastReportTime  time.Time
	samplesSinceRpt uint64
	lastOverrunSeen uint64
}

func newStreamStats(interval time.Duration) *streamStats {
	return &streamStats{interval: interval}
}

// observe records n newly pushed samples and returns a report if the
// interval has elapsed, exactly as audio_stats() gates printing on
// elapsed wall-clock time rather than a fixed sample count.
type statsReport struct {
	samples        uint64
	overrunTotal   uint64
	newOverruns    uint64
	elapsedSeconds float64
}

func (s *streamStats) observe(n uint64, overrunTotal uint64, now time.Time) (statsReport, bool) {
	s.samplesSinceRpt += n

	if s.interval <= 0 {
		return statsReport{}, false
	}
	if s.lastReportTime.IsZero() {
		s.lastReportTime = now
		return statsReport{}, false
	}
	if now.Sub(s.lastReportTime) < s.interval {
		return statsReport{}, false
	}

	report := statsReport{
		samples:        s.samplesSinceRpt,
		overrunTotal:   overrunTotal,
		newOverruns:    overrunTotal - s.lastOverrunSeen,
		elapsedSeconds: now.Sub(s.lastReportTime).Seconds(),
	}

	s.samplesSinceRpt = 0
	s.lastOverrunSeen = overrunTotal
	s.lastReportTime = now

	return report, true
}
