package logcat

import (
	"regexp"
	"strconv"

	"github.com/droidscope/logdex/internal/models"
)

// Bugreports interleave dozens of non-logcat dump sections around the
// logcat stream. The parser's contract is therefore rejection-heavy: a
// line either matches the threadtime shape below or it is dropped.
//
//	MM-DD HH:MM:SS.mmm [uid] PID TID LEVEL TAG: MESSAGE
//
// The uid column only appears when the dump was taken with "logcat -v
// threadtime,uid"; it can be numeric ("1000") or symbolic ("u0_a123").
var lineRegex = regexp.MustCompile(
	`^(\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}) +(?:(\S+) +)?(\d+) +(\d+) +([VDIWEF]) +([^:]*?) *: ?(.*)$`,
)

// ParseLine matches one raw line against the threadtime shape.
// Returns (record, true) for a well-formed logcat line, (zero, false)
// otherwise. Rejected lines are not an error; they are simply not logcat.
func ParseLine(raw string) (models.LogRecord, bool) {
	m := lineRegex.FindStringSubmatch(raw)
	if m == nil {
		return models.LogRecord{}, false
	}

	pid, err := strconv.Atoi(m[3])
	if err != nil {
		return models.LogRecord{}, false
	}
	tid, err := strconv.Atoi(m[4])
	if err != nil {
		return models.LogRecord{}, false
	}

	// A malformed timestamp that still matched the digit shape encodes
	// fine; anything odd yields key 0 and the row keeps its raw text.
	key, _ := EncodeTsKey(m[1])

	return models.LogRecord{
		TsKey:   key,
		TsRaw:   m[1],
		Level:   models.Level(m[5]),
		Tag:     m[6],
		PID:     pid,
		TID:     tid,
		Msg:     m[7],
		RawLine: raw,
	}, true
}
