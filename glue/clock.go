package glue

import "time"

// gpsEpoch is 1980-01-06T00:00:00Z, the GPS time origin.
var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// GpsTime is a seconds+milliseconds timestamp since the GPS epoch, matching
// the wire representation used by DataBlock headers and file-system info
// queries (spec §Glossary, §4.15).
type GpsTime struct {
	Seconds uint32
	Millis  uint16
}

// Now returns the current time expressed as GpsTime.
func Now() GpsTime {
	return FromTime(time.Now())
}

// FromTime converts a wall-clock time.Time into GpsTime, truncating to
// millisecond resolution.
func FromTime(t time.Time) GpsTime {
	d := t.UTC().Sub(gpsEpoch)
	sec := d / time.Second
	rem := d % time.Second
	return GpsTime{
		Seconds: uint32(sec),
		Millis:  uint16(rem / time.Millisecond),
	}
}

// Time converts GpsTime back to a wall-clock time.Time.
func (g GpsTime) Time() time.Time {
	return gpsEpoch.Add(time.Duration(g.Seconds)*time.Second + time.Duration(g.Millis)*time.Millisecond)
}
