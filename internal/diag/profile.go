package diag

import (
	"bytes"

	"github.com/google/pprof/profile"

	"rv39kernel/internal/console"
)

// TaskSample is one task's accounted CPU time, the shape
// internal/task.Accounting hands back, one per tracked task.
type TaskSample struct {
	PID         int32
	Name        string
	RunNS       int64
	ScheduledNS int64
}

// DumpProfile serializes a snapshot of every task's accounting counters
// as a pprof profile (one sample per task, value[0] = run time
// nanoseconds, value[1] = time spent ready-but-waiting), the same
// profile.Profile shape `go tool pprof` consumes for any other Go
// program's CPU profile. There is no disk here to write it to, so the
// gzip-encoded profile bytes are written straight through the console;
// an operator can pull them out of the serial log and feed them to
// `go tool pprof` to see CPU time broken down by task.
func DumpProfile(samples []TaskSample) error {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "run", Unit: "nanoseconds"},
			{Type: "scheduled", Unit: "nanoseconds"},
		},
		PeriodType: &profile.ValueType{Type: "cpu", Unit: "nanoseconds"},
		Period:     1,
	}
	funcsByName := map[string]*profile.Function{}
	for _, s := range samples {
		fn, ok := funcsByName[s.Name]
		if !ok {
			fn = &profile.Function{ID: uint64(len(p.Function)) + 1, Name: s.Name}
			p.Function = append(p.Function, fn)
			funcsByName[s.Name] = fn
		}
		loc := &profile.Location{
			ID:   uint64(len(p.Location)) + 1,
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{s.RunNS, s.ScheduledNS},
			Label:    map[string][]string{"pid": {itoaSigned(int64(s.PID))}},
		})
	}

	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return err
	}
	console.Write(buf.Bytes())
	Logf("profile dump: %d bytes, %d samples", buf.Len(), len(samples))
	return nil
}

func itoaSigned(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
