package costing

import (
	"math"
	"sort"
	"time"

	"github.com/mamadbah2/costquote/internal/domain/models"
)

type monthKey struct {
	year  int
	month time.Month
}

type monthAcc struct {
	total, material, labor, overhead float64
	min, max                         float64
	count                            int
}

// TrendWindowStart is the earliest effective date included in a trend of the given length.
func TrendWindowStart(now time.Time, months int) time.Time {
	return now.AddDate(0, -months, 0)
}

// Trend buckets snapshots by the UTC calendar month of their effective date
// and returns the buckets in ascending order.
func Trend(records []models.CostRecord) []models.TrendBucket {
	accs := make(map[monthKey]*monthAcc)
	for _, rec := range records {
		eff := rec.EffectiveDate.UTC()
		key := monthKey{year: eff.Year(), month: eff.Month()}
		acc, ok := accs[key]
		if !ok {
			acc = &monthAcc{min: math.Inf(1), max: math.Inf(-1)}
			accs[key] = acc
		}
		acc.total += rec.TotalCost
		acc.material += rec.MaterialCost
		acc.labor += rec.LaborCost
		acc.overhead += rec.OverheadCost
		acc.min = math.Min(acc.min, rec.TotalCost)
		acc.max = math.Max(acc.max, rec.TotalCost)
		acc.count++
	}

	keys := make([]monthKey, 0, len(accs))
	for k := range accs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	buckets := make([]models.TrendBucket, 0, len(keys))
	for _, k := range keys {
		acc := accs[k]
		n := float64(acc.count)
		buckets = append(buckets, models.TrendBucket{
			Year:            k.year,
			Month:           int(k.month),
			Date:            time.Date(k.year, k.month, 1, 0, 0, 0, 0, time.UTC),
			AvgTotalCost:    Round2(acc.total / n),
			AvgMaterialCost: Round2(acc.material / n),
			AvgLaborCost:    Round2(acc.labor / n),
			AvgOverheadCost: Round2(acc.overhead / n),
			MinCost:         Round2(acc.min),
			MaxCost:         Round2(acc.max),
			Count:           acc.count,
		})
	}
	return buckets
}
