package catalog

import "time"

const recencyBonus = 1.5

// score ranks by recent activity with a bonus for events ending within a year.
func score(ev Event, now time.Time) float64 {
	base := ev.Volume24h*2 + ev.VolumeTotal*0.1
	if ev.EndDate == "" {
		return base
	}
	end, err := time.Parse(time.RFC3339, ev.EndDate)
	if err != nil {
		return base
	}
	if !end.Before(now) && !end.After(now.AddDate(1, 0, 0)) {
		return base * recencyBonus
	}
	return base
}
