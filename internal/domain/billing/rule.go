package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/logistics-erp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RuleType determines how performance records are turned into invoice lines
type RuleType string

const (
	RuleTypeUnitCount   RuleType = "UNIT_COUNT"
	RuleTypePalletCount RuleType = "PALLET_COUNT"
	RuleTypeLaborHour   RuleType = "LABOR_HOUR"
	RuleTypeFixedFee    RuleType = "FIXED_FEE"
	RuleTypeMixed       RuleType = "MIXED"
)

// IsValid checks if the rule type is valid
func (t RuleType) IsValid() bool {
	switch t {
	case RuleTypeUnitCount, RuleTypePalletCount, RuleTypeLaborHour, RuleTypeFixedFee, RuleTypeMixed:
		return true
	}
	return false
}

// String returns the string representation of RuleType
func (t RuleType) String() string {
	return string(t)
}

// GroupingKey selects the record field lines are partitioned by
type GroupingKey string

const (
	GroupByPartNo   GroupingKey = "PART_NO"
	GroupByPalletNo GroupingKey = "PALLET_NO"
	GroupByDate     GroupingKey = "DATE"
	GroupByWorkType GroupingKey = "WORK_TYPE"
	GroupByNone     GroupingKey = "NONE"
)

// IsValid checks if the grouping key is valid
func (k GroupingKey) IsValid() bool {
	switch k {
	case GroupByPartNo, GroupByPalletNo, GroupByDate, GroupByWorkType, GroupByNone:
		return true
	}
	return false
}

// PriceSource determines where a rule's unit price comes from
type PriceSource string

const (
	PriceSourceFixed        PriceSource = "FIXED_PRICE"
	PriceSourcePriceList    PriceSource = "PRICE_LIST"
	PriceSourceLaborRate    PriceSource = "LABOR_RATE"
	PriceSourceContractRate PriceSource = "CONTRACT_RATE"
)

// IsValid checks if the price source is valid
func (s PriceSource) IsValid() bool {
	switch s {
	case PriceSourceFixed, PriceSourcePriceList, PriceSourceLaborRate, PriceSourceContractRate:
		return true
	}
	return false
}

// UnitCountConfig prices shipment quantities per unit.
// Prices overrides the base unit price per grouping value when the rule's
// price source is PRICE_LIST.
type UnitCountConfig struct {
	UnitPrice   decimal.Decimal            `json:"unit_price"`
	Unit        string                     `json:"unit,omitempty"`
	PriceListID *uuid.UUID                 `json:"price_list_id,omitempty"`
	Prices      map[string]decimal.Decimal `json:"prices,omitempty"`
}

// PalletCountConfig prices pallet movements. When CountPerRecord is set each
// record counts as one pallet regardless of its pallet count field.
type PalletCountConfig struct {
	UnitPrice      decimal.Decimal `json:"unit_price"`
	CountPerRecord bool            `json:"count_per_record,omitempty"`
}

// LaborHourConfig prices logged hours. The configured rate is the fallback
// when a labor entry carries no rate of its own.
type LaborHourConfig struct {
	HourlyRate decimal.Decimal `json:"hourly_rate"`
}

// FixedFeeItem is one named entry of a fixed monthly fee
type FixedFeeItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// FixedFeeConfig emits lines independent of period activity: either the
// ordered Items list, or a single line at UnitPrice when Items is empty.
type FixedFeeConfig struct {
	UnitPrice decimal.Decimal `json:"unit_price,omitempty"`
	Items     []FixedFeeItem  `json:"items,omitempty"`
}

// RuleConfig is the tagged union of per-type rule configurations. Exactly the
// variant matching the rule type must be set; MIXED rules may combine the
// unit-count, pallet-count and labor-hour variants.
type RuleConfig struct {
	UnitCount   *UnitCountConfig   `json:"unit_count,omitempty"`
	PalletCount *PalletCountConfig `json:"pallet_count,omitempty"`
	LaborHour   *LaborHourConfig   `json:"labor_hour,omitempty"`
	FixedFee    *FixedFeeConfig    `json:"fixed_fee,omitempty"`
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c RuleConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *RuleConfig) Scan(value interface{}) error {
	if value == nil {
		*c = RuleConfig{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan RuleConfig: unsupported type")
	}

	if len(bytes) == 0 {
		*c = RuleConfig{}
		return nil
	}

	return json.Unmarshal(bytes, c)
}

// Validate checks that the config carries exactly the variants the rule type
// requires
func (c RuleConfig) Validate(ruleType RuleType) error {
	switch ruleType {
	case RuleTypeUnitCount:
		if c.UnitCount == nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Unit-count rule requires the unit_count config variant")
		}
		if c.PalletCount != nil || c.LaborHour != nil || c.FixedFee != nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Unit-count rule allows only the unit_count config variant")
		}
	case RuleTypePalletCount:
		if c.PalletCount == nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Pallet-count rule requires the pallet_count config variant")
		}
		if c.UnitCount != nil || c.LaborHour != nil || c.FixedFee != nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Pallet-count rule allows only the pallet_count config variant")
		}
	case RuleTypeLaborHour:
		if c.LaborHour == nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Labor-hour rule requires the labor_hour config variant")
		}
		if c.UnitCount != nil || c.PalletCount != nil || c.FixedFee != nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Labor-hour rule allows only the labor_hour config variant")
		}
	case RuleTypeFixedFee:
		if c.FixedFee == nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Fixed-fee rule requires the fixed_fee config variant")
		}
		if c.UnitCount != nil || c.PalletCount != nil || c.LaborHour != nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Fixed-fee rule allows only the fixed_fee config variant")
		}
	case RuleTypeMixed:
		if c.UnitCount == nil && c.PalletCount == nil && c.LaborHour == nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Mixed rule requires at least one of the unit_count, pallet_count or labor_hour variants")
		}
		if c.FixedFee != nil {
			return shared.NewDomainError(shared.ErrCodeValidation, "Mixed rule does not allow the fixed_fee variant")
		}
	default:
		return shared.NewDomainError(shared.ErrCodeValidation, fmt.Sprintf("Unknown rule type %q", ruleType))
	}
	return nil
}

// Rule is a project-scoped, prioritized billing configuration mapping
// performance records to priced invoice lines
type Rule struct {
	shared.BaseAggregateRoot
	ProjectID     uuid.UUID   `json:"project_id"`
	Name          string      `json:"name"`
	RuleType      RuleType    `json:"rule_type"`
	GroupingKey   GroupingKey `json:"grouping_key"`
	PriceSource   PriceSource `json:"price_source"`
	Config        RuleConfig  `json:"config"`
	Priority      int         `json:"priority"`
	IsActive      bool        `json:"is_active"`
	EffectiveFrom *time.Time  `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time  `json:"effective_to,omitempty"`
}

// NewRule creates a new billing rule
func NewRule(projectID uuid.UUID, name string, ruleType RuleType, groupingKey GroupingKey, priceSource PriceSource, config RuleConfig, priority int) (*Rule, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Rule name cannot be empty")
	}
	if !ruleType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RULE_TYPE", fmt.Sprintf("Rule type %q is not valid", ruleType))
	}
	if !groupingKey.IsValid() {
		return nil, shared.NewDomainError("INVALID_GROUPING_KEY", fmt.Sprintf("Grouping key %q is not valid", groupingKey))
	}
	if !priceSource.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRICE_SOURCE", fmt.Sprintf("Price source %q is not valid", priceSource))
	}
	if err := config.Validate(ruleType); err != nil {
		return nil, err
	}

	return &Rule{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProjectID:         projectID,
		Name:              name,
		RuleType:          ruleType,
		GroupingKey:       groupingKey,
		PriceSource:       priceSource,
		Config:            config,
		Priority:          priority,
		IsActive:          true,
	}, nil
}

// SetEffectiveWindow bounds the rule's validity window
func (r *Rule) SetEffectiveWindow(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewDomainError(shared.ErrCodeValidation, "Effective-to cannot precede effective-from")
	}
	r.EffectiveFrom = from
	r.EffectiveTo = to
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// Deactivate disables the rule for future generation runs
func (r *Rule) Deactivate() {
	r.IsActive = false
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// AppliesToPeriod reports whether the rule participates in a generation run
// for the given invoice period: the rule is active and its effectivity window
// overlaps [periodStart, periodEnd].
func (r *Rule) AppliesToPeriod(periodStart, periodEnd time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.EffectiveFrom != nil && periodEnd.Before(*r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && periodStart.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// ActiveRulesForPeriod filters rules down to the set used by one generation run
func ActiveRulesForPeriod(rules []Rule, periodStart, periodEnd time.Time) []Rule {
	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.AppliesToPeriod(periodStart, periodEnd) {
			active = append(active, r)
		}
	}
	return active
}
