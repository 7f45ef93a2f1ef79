package yearend

import (
	"math"
	"sort"

	"stocktake-backend/internal/models"
)

type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusExact    ItemStatus = "exact"
	StatusSurplus  ItemStatus = "surplus"
	StatusShortage ItemStatus = "shortage"
)

// VarianceStatus classifies one count line. A line without a counted
// quantity is pending regardless of what variance holds.
func VarianceStatus(countedQuantity *int, variance *int) ItemStatus {
	if countedQuantity == nil {
		return StatusPending
	}
	v := 0
	if variance != nil {
		v = *variance
	}
	switch {
	case v == 0:
		return StatusExact
	case v > 0:
		return StatusSurplus
	default:
		return StatusShortage
	}
}

// NextRevision numbers a new count attempt for a year. Revisions start at
// 1 and only ever grow, even if earlier drafts were abandoned.
func NextRevision(maxExisting int) int {
	if maxExisting < 1 {
		return 1
	}
	return maxExisting + 1
}

// SortItemsByProductName orders count lines alphabetically, the order
// count sheets are walked during a physical count.
func SortItemsByProductName(items []models.YearEndCountItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Product.Name < items[j].Product.Name
	})
}

type Progress struct {
	Total      int `json:"total"`
	Counted    int `json:"counted"`
	Percentage int `json:"percentage"`
}

func CountProgress(items []models.YearEndCountItem) Progress {
	p := Progress{Total: len(items)}
	for _, item := range items {
		if item.CountedQuantity != nil {
			p.Counted++
		}
	}
	if p.Total > 0 {
		p.Percentage = int(math.Round(float64(p.Counted) / float64(p.Total) * 100))
	}
	return p
}

// UncountedProductIDs lists products still missing a counted quantity.
// Confirmation is blocked until this is empty.
func UncountedProductIDs(items []models.YearEndCountItem) []uint {
	var ids []uint
	for _, item := range items {
		if item.CountedQuantity == nil {
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

type RevisionItemSide struct {
	ExpectedQuantity int  `json:"expectedQuantity"`
	CountedQuantity  *int `json:"countedQuantity"`
	Variance         *int `json:"variance"`
}

type RevisionItemDiff struct {
	CountedQuantity int `json:"countedQuantity"`
}

type ItemComparison struct {
	ProductID   uint             `json:"productId"`
	ProductName string           `json:"productName"`
	Revision1   RevisionItemSide `json:"revision1"`
	Revision2   RevisionItemSide `json:"revision2"`
	Difference  RevisionItemDiff `json:"difference"`
}

// CompareItems lines up two revisions of the same year product by product.
// The difference is revision2 minus revision1, with nil counted as zero.
// Products present in either revision appear, in revision1's item order
// with revision2-only products appended.
func CompareItems(rev1, rev2 []models.YearEndCountItem) []ItemComparison {
	side := func(item *models.YearEndCountItem) RevisionItemSide {
		if item == nil {
			return RevisionItemSide{}
		}
		return RevisionItemSide{
			ExpectedQuantity: item.ExpectedQuantity,
			CountedQuantity:  item.CountedQuantity,
			Variance:         item.Variance,
		}
	}
	counted := func(item *models.YearEndCountItem) int {
		if item == nil || item.CountedQuantity == nil {
			return 0
		}
		return *item.CountedQuantity
	}
	name := func(item *models.YearEndCountItem) string {
		if item == nil {
			return ""
		}
		return item.Product.Name
	}

	byProduct2 := make(map[uint]*models.YearEndCountItem, len(rev2))
	for i := range rev2 {
		byProduct2[rev2[i].ProductID] = &rev2[i]
	}

	seen := make(map[uint]bool, len(rev1))
	out := make([]ItemComparison, 0, len(rev1))

	for i := range rev1 {
		item1 := &rev1[i]
		item2 := byProduct2[item1.ProductID]
		seen[item1.ProductID] = true
		out = append(out, ItemComparison{
			ProductID:   item1.ProductID,
			ProductName: name(item1),
			Revision1:   side(item1),
			Revision2:   side(item2),
			Difference:  RevisionItemDiff{CountedQuantity: counted(item2) - counted(item1)},
		})
	}

	for i := range rev2 {
		item2 := &rev2[i]
		if seen[item2.ProductID] {
			continue
		}
		out = append(out, ItemComparison{
			ProductID:   item2.ProductID,
			ProductName: name(item2),
			Revision1:   RevisionItemSide{},
			Revision2:   side(item2),
			Difference:  RevisionItemDiff{CountedQuantity: counted(item2)},
		})
	}

	return out
}

type PendingCount struct {
	NeedsCount         bool `json:"needsCount"`
	PendingYear        *int `json:"pendingYear"`
	LatestPurchaseYear int  `json:"latestPurchaseYear"`
	LatestCountYear    int  `json:"latestCountYear"`
}

// CheckPendingCount decides whether the dashboard should nag for a
// year-end count. latestPurchaseYear is 0 when there are no purchases,
// latestCountYear is 0 when no count was ever confirmed.
func CheckPendingCount(latestPurchaseYear, latestCountYear int) PendingCount {
	result := PendingCount{
		LatestPurchaseYear: latestPurchaseYear,
		LatestCountYear:    latestCountYear,
	}
	if latestPurchaseYear > 0 && latestPurchaseYear > latestCountYear {
		result.NeedsCount = true
		year := latestPurchaseYear
		result.PendingYear = &year
	}
	return result
}
