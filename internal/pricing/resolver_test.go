package pricing

import (
	"testing"
	"time"

	"tourly/internal/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	adultID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	childID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	seniorID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func basePrice(typeID uuid.UUID, amount float64) catalog.BasePrice {
	return catalog.BasePrice{PassengerTypeID: typeID, Amount: amount}
}

func rule(kind catalog.PriceRuleKind, priority int, start, end time.Time, mask uint8, prices ...catalog.PriceRulePrice) catalog.PriceRule {
	return catalog.PriceRule{
		ID:          uuid.New(),
		Kind:        kind,
		Priority:    priority,
		StartDate:   start,
		EndDate:     end,
		WeekdayMask: mask,
		Prices:      prices,
	}
}

func rulePrice(typeID uuid.UUID, amount float64) catalog.PriceRulePrice {
	return catalog.PriceRulePrice{PassengerTypeID: typeID, Amount: amount}
}

func finalFor(t *testing.T, prices []TypePrice, typeID uuid.UUID) *TypePrice {
	t.Helper()
	for i := range prices {
		if prices[i].PassengerTypeID == typeID {
			return &prices[i]
		}
	}
	return nil
}

func TestResolveBaseOnly(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{
			basePrice(adultID, 500000),
			basePrice(childID, 300000),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	require.Len(t, prices, 2)

	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	require.NotNil(t, adult.FinalPrice)
	assert.Equal(t, 500000.0, *adult.FinalPrice)
	assert.Equal(t, SourceBase, adult.Source)

	child := finalFor(t, prices, childID)
	require.NotNil(t, child)
	require.NotNil(t, child.FinalPrice)
	assert.Equal(t, 300000.0, *child.FinalPrice)
}

func TestResolvePicksMinimumPositiveBase(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{
			basePrice(adultID, 600000),
			basePrice(adultID, 450000),
			basePrice(adultID, -100), // non-positive entries are ignored
			basePrice(adultID, 0),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	require.Len(t, prices, 1)
	require.NotNil(t, prices[0].FinalPrice)
	assert.Equal(t, 450000.0, *prices[0].FinalPrice)
}

func TestResolveAbsoluteRuleReplacesBase(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleAbsolute, 10,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 650000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	require.NotNil(t, adult.FinalPrice)
	assert.Equal(t, 650000.0, *adult.FinalPrice)
	assert.Equal(t, SourceRule, adult.Source)
	require.NotNil(t, adult.BasePrice)
	assert.Equal(t, 500000.0, *adult.BasePrice)
}

func TestResolveDeltaRuleAdjustsBase(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{
			basePrice(adultID, 500000),
			basePrice(childID, 300000),
		},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleDelta, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 100000),
				rulePrice(childID, -50000),
				rulePrice(seniorID, 80000), // no base price, delta has nothing to adjust
			),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))

	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 600000.0, *adult.FinalPrice)

	child := finalFor(t, prices, childID)
	require.NotNil(t, child)
	assert.Equal(t, 250000.0, *child.FinalPrice)

	senior := finalFor(t, prices, seniorID)
	assert.Nil(t, senior)
}

func TestResolveNonPositiveComputedPriceIsAbsent(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(childID, 300000)},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleDelta, 1,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(childID, -300000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	child := finalFor(t, prices, childID)
	require.NotNil(t, child)
	// Delta drove the price to zero; base still wins as the fallback layer
	// is skipped only when the rule produced a sellable price.
	require.NotNil(t, child.FinalPrice)
	assert.Equal(t, 300000.0, *child.FinalPrice)
	assert.Equal(t, SourceBase, child.Source)
}

func TestResolveHigherPriorityRuleWins(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleAbsolute, 1,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 550000)),
			rule(catalog.PriceRuleAbsolute, 10,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 700000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 700000.0, *adult.FinalPrice)
}

func TestResolveEqualPriorityFirstRuleWins(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleAbsolute, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 620000)),
			rule(catalog.PriceRuleAbsolute, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 640000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 620000.0, *adult.FinalPrice)
}

func TestResolvePriorityIsScopedPerPassengerType(t *testing.T) {
	// Two matching rules price disjoint types. The higher-priority adult
	// rule must not shadow the only rule that prices the child.
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{
			basePrice(adultID, 100000),
			basePrice(childID, 50000),
		},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleAbsolute, 10,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 120000)),
			rule(catalog.PriceRuleAbsolute, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(childID, 40000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))

	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 120000.0, *adult.FinalPrice)
	assert.Equal(t, SourceRule, adult.Source)

	child := finalFor(t, prices, childID)
	require.NotNil(t, child)
	assert.Equal(t, 40000.0, *child.FinalPrice)
	assert.Equal(t, SourceRule, child.Source)
}

func TestResolveHigherPriorityWinsPerType(t *testing.T) {
	// The adult entry comes from the priority-10 rule, the child entry from
	// the priority-5 rule that is the highest one pricing the child.
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{
			basePrice(adultID, 100000),
			basePrice(childID, 50000),
		},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleDelta, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 10000),
				rulePrice(childID, 5000)),
			rule(catalog.PriceRuleAbsolute, 10,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(adultID, 150000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))

	adult := finalFor(t, prices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 150000.0, *adult.FinalPrice)

	child := finalFor(t, prices, childID)
	require.NotNil(t, child)
	assert.Equal(t, 55000.0, *child.FinalPrice)
}

func TestResolveWeekdayMask(t *testing.T) {
	// 2026-06-15 is a Monday (time.Monday == 1).
	monday := date(2026, time.June, 15)
	tuesday := date(2026, time.June, 16)

	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleAbsolute, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 1<<uint(time.Monday),
				rulePrice(adultID, 900000)),
		},
	}

	mondayPrices := Resolve(variant, monday)
	adult := finalFor(t, mondayPrices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 900000.0, *adult.FinalPrice)

	tuesdayPrices := Resolve(variant, tuesday)
	adult = finalFor(t, tuesdayPrices, adultID)
	require.NotNil(t, adult)
	assert.Equal(t, 500000.0, *adult.FinalPrice)
	assert.Equal(t, SourceBase, adult.Source)
}

func TestResolveDateRangeInclusive(t *testing.T) {
	r := rule(catalog.PriceRuleAbsolute, 5,
		date(2026, time.June, 10), date(2026, time.June, 20), 0x7F,
		rulePrice(adultID, 700000))
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
		PriceRules: []catalog.PriceRule{r},
	}

	tests := []struct {
		name string
		date time.Time
		want float64
	}{
		{"day before range", date(2026, time.June, 9), 500000},
		{"first day", date(2026, time.June, 10), 700000},
		{"last day", date(2026, time.June, 20), 700000},
		{"day after range", date(2026, time.June, 21), 500000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := Resolve(variant, tt.date)
			adult := finalFor(t, prices, adultID)
			require.NotNil(t, adult)
			assert.Equal(t, tt.want, *adult.FinalPrice)
		})
	}
}

func TestResolveRuleOnlyType(t *testing.T) {
	// An absolute rule can introduce a price for a type with no base entry.
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
		PriceRules: []catalog.PriceRule{
			rule(catalog.PriceRuleAbsolute, 5,
				date(2026, time.June, 1), date(2026, time.June, 30), 0x7F,
				rulePrice(seniorID, 400000)),
		},
	}

	prices := Resolve(variant, date(2026, time.June, 15))
	senior := finalFor(t, prices, seniorID)
	require.NotNil(t, senior)
	require.NotNil(t, senior.FinalPrice)
	assert.Equal(t, 400000.0, *senior.FinalPrice)
	assert.Nil(t, senior.BasePrice)
}

func TestPriceFor(t *testing.T) {
	variant := &catalog.Variant{
		BasePrices: []catalog.BasePrice{basePrice(adultID, 500000)},
	}

	amount, ok := PriceFor(variant, date(2026, time.June, 15), adultID)
	require.True(t, ok)
	assert.Equal(t, 500000.0, amount)

	_, ok = PriceFor(variant, date(2026, time.June, 15), childID)
	assert.False(t, ok)
}
