package syncer

import (
	"fmt"
	"time"
)

// DefaultLookback is used when no watermark has been persisted yet.
const DefaultLookback = 90 * 24 * time.Hour

// Window is a closed-open interval [Start, End) of whole-second UTC timestamps.
type Window struct {
	Start time.Time
	End   time.Time
}

// DeriveWindow computes the fetch window for one run.
//
// Without a watermark the window starts lookback before now. With one it starts
// on the day after the watermark's day. The window always ends at the start of
// the current day. Day boundaries are taken in loc; a nil loc means UTC.
func DeriveWindow(watermark *int64, lookback time.Duration, now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}

	var start time.Time
	if watermark == nil {
		start = now.Add(-lookback)
	} else {
		start = floorToDay(time.Unix(*watermark, 0), loc).AddDate(0, 0, 1)
	}

	return NewWindow(start, floorToDay(now, loc))
}

// NewWindow builds a window from explicit boundaries, truncated to whole seconds.
func NewWindow(start, end time.Time) Window {
	return Window{
		Start: start.Truncate(time.Second).UTC(),
		End:   end.Truncate(time.Second).UTC(),
	}
}

// Empty reports whether the window holds no instant at all.
func (w Window) Empty() bool {
	return !w.Start.Before(w.End)
}

// IsZero reports whether the window was never set, as for full dumps.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// StartUnix returns the window start as a Unix timestamp.
func (w Window) StartUnix() int64 { return w.Start.Unix() }

// EndUnix returns the window end as a Unix timestamp.
func (w Window) EndUnix() int64 { return w.End.Unix() }

// Param renders the window as the range filter of the Bsale date parameters
// (emissiondaterange, recorddaterange). Bsale treats both bounds as
// inclusive, so the end is sent as End-1: a record stamped exactly at End
// belongs to the next window and is never fetched twice.
func (w Window) Param() string {
	return fmt.Sprintf("[%d,%d]", w.StartUnix(), w.EndUnix()-1)
}

// Contains reports whether ts (Unix seconds) lies in [Start, End).
func (w Window) Contains(ts int64) bool {
	return ts >= w.StartUnix() && ts < w.EndUnix()
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// AlignStart moves Start back to the beginning of its day in loc. A nil loc
// means UTC.
func (w Window) AlignStart(loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	return NewWindow(floorToDay(w.Start, loc), w.End)
}

func floorToDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
