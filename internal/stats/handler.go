package stats

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/getsentry/sentry-go"

	"petcare-serverless/internal/period"
)

// MemoItems is the fixed observation catalogue the UI offers. Memo stats
// only tally items from this list; freeform leftovers are ignored.
var MemoItems = []string{
	"vomited",
	"very fussy",
	"crying a lot",
	"not eating",
	"more active than usual",
	"slept a lot",
	"overgrooming",
	"hiding",
	"in good condition",
	"drinking a lot",
}

type Handler struct {
	repo *Repository
	loc  *time.Location
}

func NewHandler(repo *Repository, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{repo: repo, loc: loc}
}

func (h *Handler) Food(w http.ResponseWriter, r *http.Request) {
	name, rng := h.resolvePeriod(r)

	food, err := h.repo.Food(r.Context(), rng.Start, rng.End)
	if err != nil {
		h.fail(w, err)
		return
	}
	snacks, err := h.repo.Snacks(r.Context(), rng.Start, rng.End)
	if err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"period":  name,
		"stats": map[string]any{
			"food": map[string]any{
				"total":   food.Total,
				"count":   food.Count,
				"average": round1(food.Average),
			},
			"snacks": map[string]any{
				"partymix": snacks.Partymix,
				"jogong":   snacks.Jogong,
				"churu":    snacks.Churu,
			},
		},
	})
}

func (h *Handler) Water(w http.ResponseWriter, r *http.Request) {
	name, rng := h.resolvePeriod(r)

	water, err := h.repo.Water(r.Context(), rng.Start, rng.End)
	if err != nil {
		h.fail(w, err)
		return
	}

	selfPercent, givenPercent := 0, 0
	if water.Total > 0 {
		selfPercent = int(math.Round(float64(water.Self) / float64(water.Total) * 100))
		givenPercent = int(math.Round(float64(water.Given) / float64(water.Total) * 100))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"period":  name,
		"stats": map[string]any{
			"self":         water.Self,
			"given":        water.Given,
			"total":        water.Total,
			"selfPercent":  selfPercent,
			"givenPercent": givenPercent,
		},
	})
}

func (h *Handler) Bathroom(w http.ResponseWriter, r *http.Request) {
	name, rng := h.resolvePeriod(r)

	poop, err := h.repo.Poop(r.Context(), rng.Start, rng.End)
	if err != nil {
		h.fail(w, err)
		return
	}
	urine, err := h.repo.Urine(r.Context(), rng.Start, rng.End)
	if err != nil {
		h.fail(w, err)
		return
	}

	dailyAverage := 0.0
	if rng.Days > 0 {
		dailyAverage = round1(float64(poop.Total) / float64(rng.Days))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"period":  name,
		"stats": map[string]any{
			"poop": map[string]any{
				"total":        poop.Total,
				"records":      poop.Records,
				"dailyAverage": dailyAverage,
			},
			"urine": map[string]any{
				"large":  urine.Large,
				"medium": urine.Medium,
				"small":  urine.Small,
				"total":  urine.Large + urine.Medium + urine.Small,
			},
		},
	})
}

func (h *Handler) Memo(w http.ResponseWriter, r *http.Request) {
	name, rng := h.resolvePeriod(r)

	lists, err := h.repo.MemoLists(r.Context(), rng.Start, rng.End)
	if err != nil {
		h.fail(w, err)
		return
	}

	totalRecords, counts, sorted := tallyMemos(lists)

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"period":  name,
		"stats": map[string]any{
			"totalRecords": totalRecords,
			"memos":        sorted,
			"all":          counts,
		},
	})
}

type memoCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// tallyMemos counts catalogue items across memo lists. Items outside the
// catalogue are ignored; the sorted slice holds only seen items, most
// frequent first.
func tallyMemos(lists [][]string) (int, map[string]int, []memoCount) {
	counts := make(map[string]int, len(MemoItems))
	for _, item := range MemoItems {
		counts[item] = 0
	}

	totalRecords := 0
	for _, items := range lists {
		totalRecords++
		for _, item := range items {
			if _, known := counts[item]; known {
				counts[item]++
			}
		}
	}

	sorted := make([]memoCount, 0, len(counts))
	for item, count := range counts {
		if count > 0 {
			sorted = append(sorted, memoCount{Item: item, Count: count})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Item < sorted[j].Item
	})

	return totalRecords, counts, sorted
}

func (h *Handler) resolvePeriod(r *http.Request) (string, period.Range) {
	name := period.Normalize(r.URL.Query().Get("period"))
	return name, period.Resolve(name, time.Now(), h.loc)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	sentry.CaptureException(err)
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"message": "failed to load stats",
	})
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
