package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidBottles is returned when a bottle map key is not a positive gram weight.
var ErrInvalidBottles = errors.New("invalid bottle weight")

// Mass is a weight as sent by clients: either a JSON number or a string such
// as "10kg". Numbers are kept in their decimal form.
type Mass string

// UnmarshalJSON accepts both strings and numbers.
func (m *Mass) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Mass(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("mass must be a string or a number: %w", err)
	}
	*m = Mass(n.String())
	return nil
}

// KnapsnackRequest represents the API request for a bottle combination
type KnapsnackRequest struct {
	Bottles        map[string]int `json:"bottles" validate:"required,min=1,dive,gte=0"`
	TargetWeight   Mass           `json:"target_weight" validate:"required"`
	BagWeight      *Mass          `json:"bag_weight,omitempty"`
	AllowOvershoot *bool          `json:"allow_overshoot,omitempty"`
	OvershootRatio *float64       `json:"overshoot_ratio,omitempty" validate:"omitempty,gte=0"`
	BottlePenalty  *int           `json:"bottle_penalty,omitempty" validate:"omitempty,gte=0"`
}

// Validate checks required fields and numeric ranges.
func (r *KnapsnackRequest) Validate() error {
	return validate.Struct(r)
}

// IsMissingField reports whether err is a validation failure caused by an
// absent or empty required field.
func IsMissingField(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Bottles":
			if fe.Tag() == "required" || fe.Tag() == "min" {
				return true
			}
		case "TargetWeight":
			return true
		}
	}
	return false
}

// WeightClasses converts the bottles map to gram weight -> count. Keys may be
// written as integers or as whole-number decimals ("500" or "500.0").
func (r *KnapsnackRequest) WeightClasses() (map[int]int, error) {
	return ParseBottles(r.Bottles)
}

// ParseBottles converts string-keyed bottle counts to gram weight -> count.
func ParseBottles(bottles map[string]int) (map[int]int, error) {
	classes := make(map[int]int, len(bottles))
	for key, count := range bottles {
		w, err := parseWeightKey(key)
		if err != nil {
			return nil, err
		}
		classes[w] += count
	}
	return classes, nil
}

func parseWeightKey(key string) (int, error) {
	key = strings.TrimSpace(key)
	w, err := strconv.Atoi(key)
	if err != nil {
		f, ferr := strconv.ParseFloat(key, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidBottles, key)
		}
		w = int(f)
	}
	if w <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidBottles, key)
	}
	return w, nil
}

// KnapsnackResponse represents the API response for a bottle combination
type KnapsnackResponse struct {
	TargetWeightKg    float64     `json:"target_weight_kg"`
	BagWeightKg       float64     `json:"bag_weight_kg"`
	TotalWeightKg     float64     `json:"total_weight_kg"`
	Combo             map[int]int `json:"combo"`                     // bottle weight (g) -> count
	BottlesUsed       int         `json:"bottles_used"`              // total number of bottles
	DifferenceGrams   int         `json:"difference_g"`              // total - target
	Overshoot         bool        `json:"overshoot"`                 // bottles exceed target - bag
	CalculationTimeMs int64       `json:"calculation_time_ms"`       // time taken in milliseconds
	Cached            bool        `json:"cached"`                    // whether result was from cache
	CacheTTL          string      `json:"cache_ttl,omitempty"`       // current cache TTL (if cached)
	CacheHitCount     int         `json:"cache_hit_count,omitempty"` // number of times this result was served from cache
}

// Inventory represents the stored bottle inventory
type Inventory struct {
	Bottles   map[int]int `json:"bottles"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// InventoryUpdateRequest replaces the stored bottle inventory
type InventoryUpdateRequest struct {
	Bottles map[string]int `json:"bottles" validate:"required,min=1,dive,gte=0"`
}

// Validate checks the update payload.
func (r *InventoryUpdateRequest) Validate() error {
	return validate.Struct(r)
}

// InventoryUpdateResponse represents the response after updating the inventory
type InventoryUpdateResponse struct {
	Bottles   map[int]int `json:"bottles"`
	UpdatedAt time.Time   `json:"updated_at"`
	Message   string      `json:"message"`
}

// Preset represents a predefined bottle inventory
type Preset struct {
	Name    string      `json:"name"`
	Bottles map[int]int `json:"bottles"`
}

// PresetsResponse represents the API response for presets
type PresetsResponse struct {
	Presets []Preset `json:"presets"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// CacheStatsResponse represents cache statistics
type CacheStatsResponse struct {
	Enabled    bool    `json:"enabled"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	TotalKeys  int64   `json:"total_keys"`
	MemoryUsed string  `json:"memory_used"`
	Uptime     string  `json:"uptime"`
}

// BottleRow is one weight class in display order
type BottleRow struct {
	Weight int
	Count  int
}

// Rows lists an inventory lightest first
func Rows(bottles map[int]int) []BottleRow {
	rows := make([]BottleRow, 0, len(bottles))
	for _, w := range slices.Sorted(maps.Keys(bottles)) {
		rows = append(rows, BottleRow{Weight: w, Count: bottles[w]})
	}
	return rows
}

// GetDefaultBottles returns the stock home-bar inventory
func GetDefaultBottles() map[int]int {
	return map[int]int{220: 2, 330: 4, 500: 3, 750: 3, 1000: 4, 2000: 3}
}

// GetPresets returns predefined bottle inventories
func GetPresets() []Preset {
	return []Preset{
		{
			Name:    "Home Bar",
			Bottles: GetDefaultBottles(),
		},
		{
			Name:    "Beer Crate",
			Bottles: map[int]int{330: 24, 500: 20},
		},
		{
			Name:    "Water Jugs",
			Bottles: map[int]int{1500: 6, 5000: 4, 10000: 2},
		},
	}
}
