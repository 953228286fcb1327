package services

import (
	"time"

	"github.com/wfunc/wordchain/logger"
)

// DayLayout 日期键格式
const DayLayout = "2006-01-02"

// LoadLocation resolves a timezone name, falling back to UTC+7 when tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Log.Warnf("Unknown timezone %q (%v), falling back to UTC+7", name, err)
		return time.FixedZone("UTC+7", 7*60*60)
	}
	return loc
}

// dayClock turns wall time into per-day keys in one timezone.
type dayClock struct {
	loc *time.Location
	now func() time.Time
}

func (c dayClock) today() string {
	return c.dayOffset(0)
}

// dayOffset returns the key for today minus n days.
func (c dayClock) dayOffset(n int) string {
	return c.now().In(c.loc).AddDate(0, 0, -n).Format(DayLayout)
}
