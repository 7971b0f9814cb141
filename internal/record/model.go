package record

import (
	"errors"
	"strings"
	"time"
)

const (
	WaterSelf  = "self"
	WaterGiven = "given"

	UrineLarge  = "large"
	UrineMedium = "medium"
	UrineSmall  = "small"
)

// Record is one care log entry. All observation fields are optional; a
// valid record carries at least one of them.
type Record struct {
	ID            string    `json:"id"`
	RecordedAt    time.Time `json:"recorded_at"`
	Water         *string   `json:"water"`
	FoodAmount    *int      `json:"food_amount"`
	SnackPartymix *int      `json:"snack_partymix"`
	SnackJogong   *int      `json:"snack_jogong"`
	SnackChuru    bool      `json:"snack_churu"`
	PoopCount     *int      `json:"poop_count"`
	UrineSize     *string   `json:"urine_size"`
	Memo          []string  `json:"memo"`
}

type Input struct {
	Water         *string  `json:"water"`
	FoodAmount    *int     `json:"food_amount"`
	SnackPartymix *int     `json:"snack_partymix"`
	SnackJogong   *int     `json:"snack_jogong"`
	SnackChuru    bool     `json:"snack_churu"`
	PoopCount     *int     `json:"poop_count"`
	UrineSize     *string  `json:"urine_size"`
	Memo          []string `json:"memo"`
}

var (
	ErrEmptyInput = errors.New("at least one field is required")

	errWaterValue    = errors.New("water must be self or given")
	errFoodAmount    = errors.New("food_amount must be between 10 and 60 in steps of 5")
	errPartymixCount = errors.New("snack_partymix must be between 1 and 20")
	errJogongCount   = errors.New("snack_jogong must be between 1 and 20")
	errPoopCount     = errors.New("poop_count must be between 1 and 20")
	errUrineSize     = errors.New("urine_size must be large, medium or small")
	errMemoItem      = errors.New("memo items must be non-empty")
)

// Validate applies the care-log field rules: enumerated water and urine
// values, food in 5-gram steps within 10..60, counted snacks and poop
// within 1..20, and no blank memo items.
func (in Input) Validate() error {
	hasValue := in.Water != nil ||
		in.FoodAmount != nil ||
		in.SnackPartymix != nil ||
		in.SnackJogong != nil ||
		in.SnackChuru ||
		in.PoopCount != nil ||
		in.UrineSize != nil ||
		len(in.Memo) > 0
	if !hasValue {
		return ErrEmptyInput
	}

	if in.Water != nil && *in.Water != WaterSelf && *in.Water != WaterGiven {
		return errWaterValue
	}
	if in.FoodAmount != nil {
		amount := *in.FoodAmount
		if amount < 10 || amount > 60 || amount%5 != 0 {
			return errFoodAmount
		}
	}
	if in.SnackPartymix != nil && (*in.SnackPartymix < 1 || *in.SnackPartymix > 20) {
		return errPartymixCount
	}
	if in.SnackJogong != nil && (*in.SnackJogong < 1 || *in.SnackJogong > 20) {
		return errJogongCount
	}
	if in.PoopCount != nil && (*in.PoopCount < 1 || *in.PoopCount > 20) {
		return errPoopCount
	}
	if in.UrineSize != nil {
		switch *in.UrineSize {
		case UrineLarge, UrineMedium, UrineSmall:
		default:
			return errUrineSize
		}
	}
	for _, item := range in.Memo {
		if strings.TrimSpace(item) == "" {
			return errMemoItem
		}
	}

	return nil
}
