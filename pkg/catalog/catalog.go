// Package catalog is the static table of FAN Courier services offered at
// checkout and their enablement.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tournevent/fancourier/pkg/shipper"
	"github.com/tournevent/fancourier/pkg/shipper/fancourier"
)

// Feature is a capability flag of a service.
type Feature string

const (
	FeaturePickupPoint      Feature = "pickup_point"
	FeatureSameDay          Feature = "same_day"
	FeatureWeightRestricted Feature = "weight_restricted"
	FeatureZoneRestricted   Feature = "zone_restricted"
	FeatureCODSupport       Feature = "cod_support"
	FeatureMapSelector      Feature = "map_selector"
	FeatureBulkyGoods       Feature = "bulky_goods"
)

// Service keys.
const (
	KeyRedCode     = "redcode"
	KeyExpressLoco = "express_loco"
	KeyOMV         = "omv"
	KeyPayPoint    = "paypoint"
	KeyProduseAlbe = "produse_albe"
	KeyFanbox      = "fanbox"
)

// FanboxMethodID is the checkout method id of the locker service.
const FanboxMethodID = "fc_pro_fanbox"

// Service describes one courier service.
type Service struct {
	Key          string    `json:"key"`
	MethodID     string    `json:"method_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CourierName  string    `json:"courier_service"` // Service name the API knows
	StandardCode int       `json:"service_type_id"`
	CODCode      int       `json:"cod_service_type_id"`
	Features     []Feature `json:"features"`
	Priority     int       `json:"priority"`
	MaxWeightKg  float64   `json:"max_weight_kg,omitempty"` // 0 = unlimited
	Enabled      bool      `json:"enabled"`
}

// Has reports whether the service has feature f.
func (s Service) Has(f Feature) bool {
	for _, have := range s.Features {
		if have == f {
			return true
		}
	}
	return false
}

func newService(key, methodID, name, description, courierName string, priority int, maxWeight float64, features ...Feature) Service {
	code := fancourier.ServiceTypeID(courierName)
	return Service{
		Key:          key,
		MethodID:     methodID,
		Name:         name,
		Description:  description,
		CourierName:  courierName,
		StandardCode: code,
		CODCode:      fancourier.CODServiceTypeID(code),
		Features:     features,
		Priority:     priority,
		MaxWeightKg:  maxWeight,
	}
}

func defaults() []Service {
	return []Service{
		newService(KeyRedCode, "fc_pro_redcode", "FAN Courier RedCode",
			"Livrare in aceeasi zi pentru colete mici (max 5kg)",
			fancourier.ServiceRedCode, 10, 5,
			FeatureSameDay, FeatureWeightRestricted, FeatureZoneRestricted),
		newService(KeyExpressLoco, "fc_pro_express_loco", "FAN Courier Express Loco",
			"Livrare rapida in aceeasi zi",
			fancourier.ServiceExpressLoco, 9, 0,
			FeatureSameDay, FeatureZoneRestricted),
		newService(KeyOMV, "fc_pro_collect_point_omv", "FAN Courier CollectPoint OMV/Petrom",
			"Ridicare colete din benzinarii OMV si Petrom",
			fancourier.ServiceOMV, 8, 0,
			FeaturePickupPoint, FeatureCODSupport),
		newService(KeyPayPoint, "fc_pro_collect_point_paypoint", "FAN Courier CollectPoint PayPoint",
			"Ridicare colete din reteaua de puncte PayPoint",
			fancourier.ServicePayPoint, 7, 0,
			FeaturePickupPoint, FeatureCODSupport),
		newService(KeyProduseAlbe, "fc_pro_produse_albe", "FAN Courier Produse Albe",
			"Transport specializat pentru electronice mari si electrocasnice",
			fancourier.ServiceProduseAlbe, 6, 0,
			FeatureBulkyGoods),
		newService(KeyFanbox, FanboxMethodID, "FAN Courier FANBox",
			"Livrare in lockere FANBox amplasate in diverse locatii",
			fancourier.ServiceFANbox, 5, 20,
			FeaturePickupPoint, FeatureMapSelector, FeatureCODSupport),
	}
}

// Catalog holds the services. Only enablement changes after construction,
// and it is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	services map[string]*Service
}

// New builds the catalog with the given service keys enabled.
func New(enabled ...string) *Catalog {
	c := &Catalog{services: make(map[string]*Service)}
	for _, s := range defaults() {
		s := s
		c.services[s.Key] = &s
	}
	for _, key := range enabled {
		if s, ok := c.services[key]; ok {
			s.Enabled = true
		}
	}
	return c
}

// Get returns a copy of the service with key.
func (c *Catalog) Get(key string) (Service, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.services[key]
	if !ok {
		return Service{}, false
	}
	return *s, true
}

// ByMethodID finds a service by its checkout method id.
func (c *Catalog) ByMethodID(id string) (Service, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.services {
		if s.MethodID == id {
			return *s, true
		}
	}
	return Service{}, false
}

// All returns every service, highest priority first.
func (c *Catalog) All() []Service {
	c.mu.RLock()
	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, *s)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// Enabled returns the enabled services, highest priority first.
func (c *Catalog) Enabled() []Service {
	all := c.All()
	out := all[:0]
	for _, s := range all {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// IsEnabled reports whether the service with key is enabled.
func (c *Catalog) IsEnabled(key string) bool {
	s, ok := c.Get(key)
	return ok && s.Enabled
}

// SetEnabled toggles a service.
func (c *Catalog) SetEnabled(key string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.services[key]
	if !ok {
		return fmt.Errorf("%w: %s", shipper.ErrMethodNotFound, key)
	}
	s.Enabled = enabled
	return nil
}

// ServiceCode returns the courier service type for key, using the
// cash-on-delivery variant when cod is set and one exists. Unknown keys
// return 0.
func (c *Catalog) ServiceCode(key string, cod bool) int {
	s, ok := c.Get(key)
	if !ok {
		return 0
	}
	if cod && s.CODCode > 0 {
		return s.CODCode
	}
	return s.StandardCode
}

// HasPickupService reports whether any enabled service is a pickup point,
// which is when the checkout needs the locker picker assets.
func (c *Catalog) HasPickupService() bool {
	for _, s := range c.Enabled() {
		if s.Has(FeaturePickupPoint) {
			return true
		}
	}
	return false
}
