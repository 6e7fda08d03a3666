package tweet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// twitterEpochMs is the snowflake epoch, 2010-11-04T01:42:54.657Z.
const twitterEpochMs = 1288834974657

var (
	statusURL = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|mobile\.)?(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})/status(?:es)?/(\d+)`)
	webURL    = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.|mobile\.)?(?:twitter|x)\.com/i/web/status/(\d+)`)
	bareID    = regexp.MustCompile(`^\d{1,20}$`)
)

// ExtractID returns the tweet id and, when the URL names one, the author
// handle without "@".
func ExtractID(raw string) (id, handle string, ok bool) {
	raw = strings.TrimSpace(raw)
	if m := webURL.FindStringSubmatch(raw); m != nil {
		return m[1], "", true
	}
	if m := statusURL.FindStringSubmatch(raw); m != nil {
		if strings.EqualFold(m[1], "i") {
			return m[2], "", true
		}
		return m[2], m[1], true
	}
	if bareID.MatchString(raw) {
		return raw, "", true
	}
	return "", "", false
}

// SnowflakeTime decodes the creation time embedded in a tweet id. ok is false
// when the id is not numeric or decodes outside [2006, now.Year()+1].
func SnowflakeTime(id string, now time.Time) (time.Time, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	ts := time.UnixMilli(int64(n>>22) + twitterEpochMs).UTC()
	if ts.Year() < 2006 || ts.Year() > now.Year()+1 {
		return time.Time{}, false
	}
	return ts, true
}

// Token derives the syndication access token for id. It is not a secret.
func Token(id string) string {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil || n <= 0 {
		return ""
	}
	s := formatBase36(n / 1e15 * math.Pi)
	return strings.NewReplacer("0", "", ".", "").Replace(s)
}

const digits36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// formatBase36 renders a non-negative float in base 36 with the shortest
// fraction that round-trips, rounding half to even.
func formatBase36(v float64) string {
	integer := math.Floor(v)
	fraction := v - integer
	delta := 0.5 * (math.Nextafter(v, math.Inf(1)) - v)
	delta = math.Max(math.Nextafter(0, 1), delta)

	var frac []byte
	if fraction >= delta {
		for {
			fraction *= 36
			delta *= 36
			d := int(fraction)
			frac = append(frac, digits36[d])
			fraction -= float64(d)
			if fraction > 0.5 || (fraction == 0.5 && d&1 == 1) {
				if fraction+delta > 1 {
					// round up, carrying into earlier digits
					for {
						last := len(frac) - 1
						if last < 0 {
							integer++
							break
						}
						d := strings.IndexByte(digits36, frac[last])
						if d+1 < 36 {
							frac[last] = digits36[d+1]
							break
						}
						frac = frac[:last]
					}
					break
				}
			}
			if fraction < delta {
				break
			}
		}
	}

	out := strconv.FormatUint(uint64(integer), 36)
	if len(frac) > 0 {
		out += "." + string(frac)
	}
	return out
}
