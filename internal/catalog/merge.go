package catalog

import "sort"

// Source names the fetch strategy that produced an event variant.
type Source string

const (
	SourcePagination Source = "pagination"
	SourceSeries     Source = "series"
	SourceMarkets    Source = "markets"
)

// sourceOrder is the fixed order variants are merged in, so equal-volume
// ties always resolve the same way.
var sourceOrder = []Source{SourcePagination, SourceSeries, SourceMarkets}

// Summarize recomputes the event totals from its markets.
func Summarize(ev *Event) {
	var v24, total, liq float64
	for _, m := range ev.Markets {
		v24 += m.Volume24h
		total += m.Volume
		liq += m.Liquidity
	}
	ev.Volume24h, ev.VolumeTotal, ev.Liquidity = v24, total, liq
}

// combinedVolume is the merge comparator: per market, the 24h volume, or the
// lifetime volume when no 24h figure is reported.
func combinedVolume(ev Event) float64 {
	var sum float64
	for _, m := range ev.Markets {
		if m.Volume24h > 0 {
			sum += m.Volume24h
		} else {
			sum += m.Volume
		}
	}
	return sum
}

// merge dedupes by event ticker. A later variant replaces the kept one only
// with strictly higher combined volume. Every contributing source is listed.
func merge(bySource map[Source][]Event) []Event {
	kept := make(map[string]*Event)
	order := make([]string, 0)

	for _, src := range sourceOrder {
		for _, ev := range bySource[src] {
			if ev.EventTicker == "" {
				continue
			}
			ev.SourceTag = src
			cur, ok := kept[ev.EventTicker]
			if !ok {
				ev.Sources = []Source{src}
				e := ev
				kept[ev.EventTicker] = &e
				order = append(order, ev.EventTicker)
				continue
			}
			sources := addSource(cur.Sources, src)
			if combinedVolume(ev) > combinedVolume(*cur) {
				e := ev
				fillDescriptive(&e, cur)
				kept[ev.EventTicker] = &e
				cur = &e
			}
			cur.Sources = sources
		}
	}

	out := make([]Event, 0, len(order))
	for _, key := range order {
		ev := kept[key]
		if ev.Title == "" {
			ev.Title = ev.EventTicker
		}
		out = append(out, *ev)
	}
	return out
}

// fillDescriptive copies event-level text the winner lacks from the variant
// it replaced. Events synthesized from markets carry no title or series.
func fillDescriptive(dst, src *Event) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.SeriesTicker == "" {
		dst.SeriesTicker = src.SeriesTicker
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
}

func addSource(list []Source, src Source) []Source {
	for _, s := range list {
		if s == src {
			return list
		}
	}
	out := make([]Source, len(list), len(list)+1)
	copy(out, list)
	return append(out, src)
}

// groupMarkets synthesizes events from a flat market list, keeping the
// first-seen order of event tickers. Titles are left empty: a market title is
// a question, not an event name.
func groupMarkets(markets []Market) []Event {
	byEvent := make(map[string]*Event)
	order := make([]string, 0)
	for _, m := range markets {
		if m.EventTicker == "" {
			continue
		}
		ev, ok := byEvent[m.EventTicker]
		if !ok {
			ev = &Event{EventTicker: m.EventTicker}
			byEvent[m.EventTicker] = ev
			order = append(order, m.EventTicker)
		}
		ev.Markets = append(ev.Markets, m)
		if m.CloseTime > ev.EndDate {
			ev.EndDate = m.CloseTime
		}
	}
	out := make([]Event, 0, len(order))
	for _, key := range order {
		ev := byEvent[key]
		Summarize(ev)
		out = append(out, *ev)
	}
	return out
}

func sortByScore(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Score > events[j].Score
	})
}
