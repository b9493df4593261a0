package fancourier

// Courier service names as the API knows them.
const (
	ServiceStandard     = "Standard"
	ServiceRedCode      = "RedCode"
	ServiceExport       = "Export"
	ServiceContColector = "Cont Colector"
	ServiceExpressLoco  = "Express Loco"
	ServiceOMV          = "Collect Point OMV"
	ServicePayPoint     = "Collect Point PayPoint"
	ServiceProduseAlbe  = "Produse Albe"
	ServiceFANbox       = "FANbox"
)

var serviceTypeIDs = map[string]int{
	ServiceStandard:     1,
	ServiceRedCode:      2,
	ServiceExport:       3,
	ServiceContColector: 4,
	ServiceExpressLoco:  5,
	ServiceOMV:          6,
	ServicePayPoint:     7,
	ServiceProduseAlbe:  13,
	ServiceFANbox:       27,
}

// codServiceTypeIDs maps a service type to its cash-on-delivery variant.
var codServiceTypeIDs = map[int]int{
	1:  4,
	2:  9,
	5:  10,
	6:  11,
	7:  12,
	13: 14,
	27: 28,
}

// ServiceTypeID returns the courier's numeric serviceTypeId for a service
// name. Unknown names map to Standard.
func ServiceTypeID(service string) int {
	if id, ok := serviceTypeIDs[service]; ok {
		return id
	}
	return serviceTypeIDs[ServiceStandard]
}

// CODServiceTypeID returns the cash-on-delivery serviceTypeId for a service
// type, or 0 when the service has none.
func CODServiceTypeID(serviceTypeID int) int {
	return codServiceTypeIDs[serviceTypeID]
}
