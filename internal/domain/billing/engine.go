package billing

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineCandidate is a priced invoice line produced by the rule engine, before
// it is committed to an invoice. SourceRecordIDs carries full provenance so
// invoice deletion can unlink every record the line consumed.
type LineCandidate struct {
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Amount          decimal.Decimal `json:"amount"`
	GroupingKey     GroupingKey     `json:"grouping_key"`
	GroupingValue   string          `json:"grouping_value"`
	RuleID          uuid.UUID       `json:"rule_id"`
	SourceRecordIDs []uuid.UUID     `json:"source_record_ids"`
}

// NewLineCandidate builds a candidate with the amount recomputed from
// quantity and unit price. Amount is never set independently of its inputs.
func NewLineCandidate(description string, quantity decimal.Decimal, unit string, unitPrice decimal.Decimal, key GroupingKey, value string, ruleID uuid.UUID, sourceIDs []uuid.UUID) LineCandidate {
	return LineCandidate{
		Description:     description,
		Quantity:        quantity,
		Unit:            unit,
		UnitPrice:       unitPrice,
		Amount:          quantity.Mul(unitPrice),
		GroupingKey:     key,
		GroupingValue:   value,
		RuleID:          ruleID,
		SourceRecordIDs: sourceIDs,
	}
}

// Default line units per rule type
const (
	unitEach   = "EA"
	unitPallet = "PLT"
	unitHour   = "HR"
	unitMonth  = "Month"
)

// GenerateLines turns performance records into invoice line candidates by
// applying the given rules in priority order (descending, stable on ties).
//
// Records must already be filtered to the target project and period and to
// invoiced=false; the engine does not re-filter by date. The engine performs
// no I/O and has no hidden state: the same (rules, records) input always
// yields the same output, in the same order.
func GenerateLines(rules []Rule, records []PerformanceRecord) []LineCandidate {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	lines := make([]LineCandidate, 0)
	for i := range ordered {
		lines = append(lines, applyRule(&ordered[i], records)...)
	}
	return lines
}

func applyRule(rule *Rule, records []PerformanceRecord) []LineCandidate {
	switch rule.RuleType {
	case RuleTypeUnitCount:
		return unitCountLines(rule, rule.Config.UnitCount, records)
	case RuleTypePalletCount:
		return palletCountLines(rule, rule.Config.PalletCount, records)
	case RuleTypeLaborHour:
		return laborHourLines(rule, rule.Config.LaborHour, records)
	case RuleTypeFixedFee:
		return fixedFeeLines(rule, rule.Config.FixedFee)
	case RuleTypeMixed:
		// Union of the activity-driven sub-rules against the same record set.
		var lines []LineCandidate
		if rule.Config.UnitCount != nil {
			lines = append(lines, unitCountLines(rule, rule.Config.UnitCount, records)...)
		}
		if rule.Config.PalletCount != nil {
			lines = append(lines, palletCountLines(rule, rule.Config.PalletCount, records)...)
		}
		if rule.Config.LaborHour != nil {
			lines = append(lines, laborHourLines(rule, rule.Config.LaborHour, records)...)
		}
		return lines
	}
	return nil
}

// partition accumulates one grouping bucket. Buckets are kept in first-seen
// order so generation stays deterministic regardless of map iteration.
type partition struct {
	value     string
	quantity  decimal.Decimal
	recordIDs []uuid.UUID
	// first record-level rate seen in the bucket, for labor rules
	recordRate *decimal.Decimal
}

type partitionSet struct {
	order   []string
	byKey map[string]*partition
}

func newPartitionSet() *partitionSet {
	return &partitionSet{byKey: make(map[string]*partition)}
}

func (ps *partitionSet) add(value string, quantity decimal.Decimal, recordID uuid.UUID, rate *decimal.Decimal) {
	ps.addKeyed(value, value, quantity, recordID, rate)
}

// addKeyed buckets by key while keeping value as the displayed grouping
// value, so labor entries with different rates can split into separate lines
// under the same grouping value.
func (ps *partitionSet) addKeyed(key, value string, quantity decimal.Decimal, recordID uuid.UUID, rate *decimal.Decimal) {
	p, ok := ps.byKey[key]
	if !ok {
		p = &partition{value: value, quantity: decimal.Zero}
		ps.byKey[key] = p
		ps.order = append(ps.order, key)
	}
	p.quantity = p.quantity.Add(quantity)
	p.recordIDs = append(p.recordIDs, recordID)
	if p.recordRate == nil && rate != nil {
		p.recordRate = rate
	}
}

func (ps *partitionSet) all() []*partition {
	out := make([]*partition, 0, len(ps.order))
	for _, v := range ps.order {
		out = append(out, ps.byKey[v])
	}
	return out
}

func unitCountLines(rule *Rule, cfg *UnitCountConfig, records []PerformanceRecord) []LineCandidate {
	ps := newPartitionSet()
	for _, rec := range records {
		s, ok := rec.(*Shipment)
		if !ok {
			continue
		}
		ps.add(s.GroupValue(rule.GroupingKey), s.Quantity, s.ID, nil)
	}

	unit := cfg.Unit
	if unit == "" {
		unit = unitEach
	}

	var lines []LineCandidate
	for _, p := range ps.all() {
		price := resolveUnitPrice(rule.PriceSource, cfg, p.value)
		// Empty or unpriced partitions are skipped, not an error.
		if !p.quantity.IsPositive() || !price.IsPositive() {
			continue
		}
		lines = append(lines, NewLineCandidate(
			lineDescription(rule, p.value), p.quantity, unit, price,
			rule.GroupingKey, p.value, rule.ID, p.recordIDs,
		))
	}
	return lines
}

func palletCountLines(rule *Rule, cfg *PalletCountConfig, records []PerformanceRecord) []LineCandidate {
	ps := newPartitionSet()
	for _, rec := range records {
		s, ok := rec.(*Shipment)
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(s.PalletCount))
		// Grouping by pallet number means each record is one pallet movement.
		if cfg.CountPerRecord || rule.GroupingKey == GroupByPalletNo || s.PalletCount <= 0 {
			qty = decimal.NewFromInt(1)
		}
		ps.add(s.GroupValue(rule.GroupingKey), qty, s.ID, nil)
	}

	var lines []LineCandidate
	for _, p := range ps.all() {
		if !p.quantity.IsPositive() || !cfg.UnitPrice.IsPositive() {
			continue
		}
		lines = append(lines, NewLineCandidate(
			lineDescription(rule, p.value), p.quantity, unitPallet, cfg.UnitPrice,
			rule.GroupingKey, p.value, rule.ID, p.recordIDs,
		))
	}
	return lines
}

func laborHourLines(rule *Rule, cfg *LaborHourConfig, records []PerformanceRecord) []LineCandidate {
	byRate := rule.PriceSource == PriceSourceLaborRate
	ps := newPartitionSet()
	for _, rec := range records {
		l, ok := rec.(*LaborEntry)
		if !ok {
			continue
		}
		value := l.GroupValue(rule.GroupingKey)
		if byRate && l.HourlyRate != nil {
			// Entries with different rates must not sum under one rate.
			ps.addKeyed(value+"\x00"+l.HourlyRate.String(), value, l.Hours, l.ID, l.HourlyRate)
			continue
		}
		ps.add(value, l.Hours, l.ID, l.HourlyRate)
	}

	var lines []LineCandidate
	for _, p := range ps.all() {
		rate := cfg.HourlyRate
		if rule.PriceSource == PriceSourceLaborRate && p.recordRate != nil {
			rate = *p.recordRate
		}
		if !p.quantity.IsPositive() || !rate.IsPositive() {
			continue
		}
		lines = append(lines, NewLineCandidate(
			lineDescription(rule, p.value), p.quantity, unitHour, rate,
			rule.GroupingKey, p.value, rule.ID, p.recordIDs,
		))
	}
	return lines
}

// fixedFeeLines ignores records entirely: a fixed fee bills independent of
// period activity.
func fixedFeeLines(rule *Rule, cfg *FixedFeeConfig) []LineCandidate {
	one := decimal.NewFromInt(1)

	if len(cfg.Items) == 0 {
		if !cfg.UnitPrice.IsPositive() {
			return nil
		}
		return []LineCandidate{NewLineCandidate(
			rule.Name, one, unitMonth, cfg.UnitPrice,
			rule.GroupingKey, "", rule.ID, nil,
		)}
	}

	var lines []LineCandidate
	for _, item := range cfg.Items {
		qty := item.Quantity
		if !qty.IsPositive() {
			qty = one
		}
		if !item.UnitPrice.IsPositive() {
			continue
		}
		unit := item.Unit
		if unit == "" {
			unit = unitMonth
		}
		lines = append(lines, NewLineCandidate(
			item.Name, qty, unit, item.UnitPrice,
			rule.GroupingKey, "", rule.ID, nil,
		))
	}
	return lines
}

func resolveUnitPrice(source PriceSource, cfg *UnitCountConfig, groupValue string) decimal.Decimal {
	if source == PriceSourcePriceList && cfg.Prices != nil {
		if price, ok := cfg.Prices[groupValue]; ok {
			return price
		}
	}
	return cfg.UnitPrice
}

func lineDescription(rule *Rule, groupValue string) string {
	if groupValue == "" {
		return rule.Name
	}
	return fmt.Sprintf("%s - %s", rule.Name, groupValue)
}
