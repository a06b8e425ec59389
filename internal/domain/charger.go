package domain

import "fmt"

type ChargerCategory string

const (
	ChargersAvailable ChargerCategory = "available"
	ChargersSlowOnly  ChargerCategory = "slow_only"
	ChargersError     ChargerCategory = "error"
)

// ChargerSummary is the charging availability recorded for a stop.
// Detail carries the failure reason when Category is ChargersError.
type ChargerSummary struct {
	Category ChargerCategory `json:"category"`
	Count    int             `json:"count"`
	Detail   string          `json:"detail,omitempty"`
}

func ChargersFound(n int) ChargerSummary {
	if n <= 0 {
		return SlowChargingOnly()
	}
	return ChargerSummary{Category: ChargersAvailable, Count: n}
}

func SlowChargingOnly() ChargerSummary {
	return ChargerSummary{Category: ChargersSlowOnly}
}

func ChargerLookupFailed(detail string) ChargerSummary {
	return ChargerSummary{Category: ChargersError, Detail: detail}
}

func (c ChargerSummary) String() string {
	switch c.Category {
	case ChargersAvailable:
		if c.Count == 1 {
			return "1 charging station nearby"
		}
		return fmt.Sprintf("%d charging stations nearby", c.Count)
	case ChargersSlowOnly:
		return "Slow charging only (hotel/110V)"
	case ChargersError:
		if c.Detail == "" {
			return "Charger lookup error"
		}
		return fmt.Sprintf("Charger lookup error (%s)", c.Detail)
	default:
		return "Unknown"
	}
}
