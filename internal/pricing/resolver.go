package pricing

import (
	"sort"
	"time"

	"tourly/internal/catalog"

	"github.com/google/uuid"
)

// Source identifies which pricing layer produced a final price.
type Source string

const (
	SourceBase Source = "base"
	SourceRule Source = "rule"
)

// TypePrice is the resolved price for one passenger type on one date.
// FinalPrice is nil when no sellable price exists for the type.
type TypePrice struct {
	PassengerTypeID uuid.UUID              `json:"passenger_type_id"`
	PassengerType   *catalog.PassengerType `json:"passenger_type,omitempty"`
	BasePrice       *float64               `json:"base_price,omitempty"`
	RulePrice       *float64               `json:"rule_price,omitempty"`
	FinalPrice      *float64               `json:"final_price,omitempty"`
	Source          Source                 `json:"source,omitempty"`
}

// Resolve computes per-passenger-type prices for a variant on a date.
//
// Layering: the base layer is the minimum positive base price per passenger
// type. The rule layer is resolved per passenger type independently: across
// all matching rules that price a type, the one with the strictly highest
// priority wins, where ABSOLUTE prices replace the base and DELTA prices
// adjust it. A rule price wins over the base; a computed price that is not
// positive is treated as absent.
func Resolve(variant *catalog.Variant, date time.Time) []TypePrice {
	base := make(map[uuid.UUID]float64)
	types := make(map[uuid.UUID]*catalog.PassengerType)

	for i := range variant.BasePrices {
		bp := &variant.BasePrices[i]
		if bp.Amount <= 0 {
			continue
		}
		if current, ok := base[bp.PassengerTypeID]; !ok || bp.Amount < current {
			base[bp.PassengerTypeID] = bp.Amount
		}
		if bp.PassengerType != nil {
			types[bp.PassengerTypeID] = bp.PassengerType
		}
	}

	rulePrices := resolveRulePrices(variant.PriceRules, base, date)

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for id := range base {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for id := range rulePrices {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	result := make([]TypePrice, 0, len(ids))
	for _, id := range ids {
		tp := TypePrice{PassengerTypeID: id, PassengerType: types[id]}
		if amount, ok := base[id]; ok {
			v := amount
			tp.BasePrice = &v
		}
		if amount, ok := rulePrices[id]; ok {
			v := amount
			tp.RulePrice = &v
			tp.FinalPrice = &v
			tp.Source = SourceRule
		} else if tp.BasePrice != nil {
			v := *tp.BasePrice
			tp.FinalPrice = &v
			tp.Source = SourceBase
		}
		result = append(result, tp)
	}
	return result
}

// PriceFor resolves the final price for a single passenger type. The second
// return value is false when the type has no sellable price on that date.
func PriceFor(variant *catalog.Variant, date time.Time, passengerTypeID uuid.UUID) (float64, bool) {
	for _, tp := range Resolve(variant, date) {
		if tp.PassengerTypeID == passengerTypeID {
			if tp.FinalPrice == nil {
				return 0, false
			}
			return *tp.FinalPrice, true
		}
	}
	return 0, false
}

type ruleEntry struct {
	priority int
	kind     catalog.PriceRuleKind
	amount   float64
}

// resolveRulePrices picks, for each passenger type, the price from the
// matching rule with the strictly highest priority that lists the type.
// Among equal priorities the first matching rule in slice order wins. The
// winning entry is then computed against the base layer; a DELTA with no
// base or a non-positive result yields no rule price for the type.
func resolveRulePrices(rules []catalog.PriceRule, base map[uuid.UUID]float64, date time.Time) map[uuid.UUID]float64 {
	winners := make(map[uuid.UUID]ruleEntry)
	for i := range rules {
		r := &rules[i]
		if !r.Matches(date) {
			continue
		}
		for _, rp := range r.Prices {
			if current, ok := winners[rp.PassengerTypeID]; ok && r.Priority <= current.priority {
				continue
			}
			winners[rp.PassengerTypeID] = ruleEntry{priority: r.Priority, kind: r.Kind, amount: rp.Amount}
		}
	}

	out := make(map[uuid.UUID]float64, len(winners))
	for typeID, entry := range winners {
		computed := entry.amount
		if entry.kind == catalog.PriceRuleDelta {
			baseAmount, ok := base[typeID]
			if !ok {
				continue
			}
			computed = baseAmount + entry.amount
		}
		if computed <= 0 {
			continue
		}
		out[typeID] = computed
	}
	return out
}
