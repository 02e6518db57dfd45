package valueobjects

// DecisionDomain selects the template catalog for synthesis
type DecisionDomain string

const (
	DomainProduct      DecisionDomain = "product"
	DomainArchitecture DecisionDomain = "architecture"
	DomainData         DecisionDomain = "data"
	DomainHiring       DecisionDomain = "hiring"
	DomainPricing      DecisionDomain = "pricing"
	DomainMarket       DecisionDomain = "market"
	DomainCustom       DecisionDomain = "custom"
)

// Domains lists every supported domain
var Domains = []DecisionDomain{
	DomainProduct, DomainArchitecture, DomainData, DomainHiring,
	DomainPricing, DomainMarket, DomainCustom,
}

// IsValid reports whether d is a supported domain
func (d DecisionDomain) IsValid() bool {
	for _, v := range Domains {
		if v == d {
			return true
		}
	}
	return false
}

// String returns the raw value
func (d DecisionDomain) String() string {
	return string(d)
}
