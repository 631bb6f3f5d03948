package recorder

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/tormoder/fit"
)

// FIT scales distance to centimeters and speed to millimeters per second
const (
	fitDistanceScale = 100
	fitSpeedScale    = 1000
)

func encodeFIT(rows []Row, start time.Time) ([]byte, error) {
	file, err := fit.NewFile(fit.FileTypeActivity, fit.NewHeader(fit.V20, true))
	if err != nil {
		return nil, err
	}
	activity, err := file.Activity()
	if err != nil {
		return nil, err
	}

	begin := fit.NewEventMsg()
	begin.Timestamp = start
	begin.Event = fit.EventTimer
	begin.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, begin)

	last := start
	for _, r := range rows {
		ts := start.Add(time.Duration(r.TimeS) * time.Second)
		rec := fit.NewRecordMsg()
		rec.Timestamp = ts
		rec.Distance = clampUint32(float64(r.DistanceM) * fitDistanceScale)
		rec.Power = clampUint16(float64(r.PowerW))
		if r.Ready {
			rec.Speed = clampUint16(r.SpeedMPS * fitSpeedScale)
		}
		activity.Records = append(activity.Records, rec)
		if ts.After(last) {
			last = ts
		}
	}

	stop := fit.NewEventMsg()
	stop.Timestamp = last
	stop.Event = fit.EventTimer
	stop.EventType = fit.EventTypeStop
	activity.Events = append(activity.Events, stop)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// math.MaxUint16 and math.MaxUint32 are the FIT invalid markers, stay below
func clampUint16(v float64) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= math.MaxUint16-1:
		return math.MaxUint16 - 1
	}
	return uint16(v)
}

func clampUint32(v float64) uint32 {
	switch {
	case v <= 0:
		return 0
	case v >= math.MaxUint32-1:
		return math.MaxUint32 - 1
	}
	return uint32(v)
}
