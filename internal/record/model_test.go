package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestValidateRequiresAtLeastOneField(t *testing.T) {
	assert.ErrorIs(t, Input{}.Validate(), ErrEmptyInput)
	assert.NoError(t, Input{SnackChuru: true}.Validate())
	assert.NoError(t, Input{Memo: []string{"vomited"}}.Validate())
}

func TestValidateFieldRules(t *testing.T) {
	cases := []struct {
		name  string
		input Input
		valid bool
	}{
		{"water self", Input{Water: strPtr(WaterSelf)}, true},
		{"water given", Input{Water: strPtr(WaterGiven)}, true},
		{"water bogus", Input{Water: strPtr("sparkling")}, false},
		{"food min", Input{FoodAmount: intPtr(10)}, true},
		{"food max", Input{FoodAmount: intPtr(60)}, true},
		{"food below range", Input{FoodAmount: intPtr(5)}, false},
		{"food above range", Input{FoodAmount: intPtr(65)}, false},
		{"food off step", Input{FoodAmount: intPtr(23)}, false},
		{"partymix ok", Input{SnackPartymix: intPtr(20)}, true},
		{"partymix zero", Input{SnackPartymix: intPtr(0)}, false},
		{"partymix too many", Input{SnackPartymix: intPtr(21)}, false},
		{"jogong ok", Input{SnackJogong: intPtr(1)}, true},
		{"jogong negative", Input{SnackJogong: intPtr(-1)}, false},
		{"poop ok", Input{PoopCount: intPtr(3)}, true},
		{"poop too many", Input{PoopCount: intPtr(21)}, false},
		{"urine large", Input{UrineSize: strPtr(UrineLarge)}, true},
		{"urine bogus", Input{UrineSize: strPtr("huge")}, false},
		{"memo blank item", Input{Memo: []string{"  "}}, false},
		{"combined", Input{Water: strPtr(WaterGiven), FoodAmount: intPtr(30), PoopCount: intPtr(2)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.input.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
