package logcat

// Logcat timestamps ("MM-DD HH:MM:SS.mmm") carry no year, so we cannot
// turn them into real time.Time values without guessing. Instead we pack
// the six numeric fields into one integer whose ordering matches
// chronological ordering within a single calendar year. Cross-year
// ordering is out of scope.

// tsWidth is the fixed width of the timestamp prefix: "MM-DD HH:MM:SS.mmm"
const tsWidth = 18

// EncodeTsKey converts the leading timestamp of s into a sortable key via
// mixed-radix composition:
//
//	key = ((((month*100+day)*100+hour)*100+minute)*100+second)*1000 + millis
//
// Strictly increasing timestamps produce strictly increasing keys.
// Returns (0, false) when s is too short, a separator is wrong, or a
// digit position is not a digit.
func EncodeTsKey(s string) (uint64, bool) {
	if len(s) < tsWidth {
		return 0, false
	}

	// Validate separators before touching any digits.
	if s[2] != '-' || s[5] != ' ' || s[8] != ':' || s[11] != ':' || s[14] != '.' {
		return 0, false
	}

	month, ok := twoDigits(s, 0)
	if !ok {
		return 0, false
	}
	day, ok := twoDigits(s, 3)
	if !ok {
		return 0, false
	}
	hour, ok := twoDigits(s, 6)
	if !ok {
		return 0, false
	}
	minute, ok := twoDigits(s, 9)
	if !ok {
		return 0, false
	}
	second, ok := twoDigits(s, 12)
	if !ok {
		return 0, false
	}
	millis, ok := threeDigits(s, 15)
	if !ok {
		return 0, false
	}

	key := ((((month*100+day)*100+hour)*100+minute)*100+second)*1000 + millis
	return key, true
}

func twoDigits(s string, i int) (uint64, bool) {
	a, b := s[i], s[i+1]
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return uint64(a-'0')*10 + uint64(b-'0'), true
}

func threeDigits(s string, i int) (uint64, bool) {
	hi, ok := twoDigits(s, i)
	if !ok {
		return 0, false
	}
	c := s[i+2]
	if c < '0' || c > '9' {
		return 0, false
	}
	return hi*10 + uint64(c-'0'), true
}
