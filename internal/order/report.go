package order

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const topFlavorCount = 5

type FlavorStat struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// Summary is the management report: revenue per period and best sellers.
type Summary struct {
	GeneratedAt  time.Time       `json:"generatedAt"`
	TodayRevenue decimal.Decimal `json:"todayRevenue"`
	MonthRevenue decimal.Decimal `json:"monthRevenue"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	OrderCount   int             `json:"orderCount"`
	TopFlavors   []FlavorStat    `json:"topFlavors"`
}

// Summarize computes revenue over stored totals and flavor stats over stored
// line snapshots. Calendar periods are evaluated in now's location.
func Summarize(orders []Order, items []Item, now time.Time) Summary {
	s := Summary{
		GeneratedAt:  now,
		TodayRevenue: decimal.Zero,
		MonthRevenue: decimal.Zero,
		TotalRevenue: decimal.Zero,
		OrderCount:   len(orders),
		TopFlavors:   []FlavorStat{},
	}

	loc := now.Location()
	y, m, d := now.Date()
	for _, o := range orders {
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)

		oy, om, od := o.CreatedAt.In(loc).Date()
		if oy == y && om == m {
			s.MonthRevenue = s.MonthRevenue.Add(o.Total)
			if od == d {
				s.TodayRevenue = s.TodayRevenue.Add(o.Total)
			}
		}
	}

	index := map[string]int{}
	for _, it := range items {
		revenue := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if i, ok := index[it.Name]; ok {
			s.TopFlavors[i].Quantity += it.Quantity
			s.TopFlavors[i].Revenue = s.TopFlavors[i].Revenue.Add(revenue)
			continue
		}
		index[it.Name] = len(s.TopFlavors)
		s.TopFlavors = append(s.TopFlavors, FlavorStat{Name: it.Name, Quantity: it.Quantity, Revenue: revenue})
	}

	sort.SliceStable(s.TopFlavors, func(i, j int) bool {
		return s.TopFlavors[i].Quantity > s.TopFlavors[j].Quantity
	})
	if len(s.TopFlavors) > topFlavorCount {
		s.TopFlavors = s.TopFlavors[:topFlavorCount]
	}
	return s
}
