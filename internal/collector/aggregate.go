package collector

import "PivotSentinel/internal/model"

// aggregateDailyToWeekly converts daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(b model.OHLCV) int {
		y, w := b.Time.ISOWeek()
		return y*100 + w
	})
}

// aggregateDailyToMonthly converts daily bars into calendar-month bars.
func aggregateDailyToMonthly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(b model.OHLCV) int {
		return b.Time.Year()*100 + int(b.Time.Month())
	})
}

// aggregate merges consecutive bars sharing a period key. Each output bar is
// stamped with the time of its first input bar.
func aggregate(daily []model.OHLCV, period func(model.OHLCV) int) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var out []model.OHLCV
	cur := daily[0]
	curKey := period(cur)

	for _, d := range daily[1:] {
		if k := period(d); k != curKey {
			out = append(out, cur)
			cur, curKey = d, k
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}
