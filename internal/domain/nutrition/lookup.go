package nutrition

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/cascade/internal/domain/day"
)

// Info is what the nutrition database knows about a food.
type Info struct {
	CaloriesPer100g float64 `json:"calories_per_100g" yaml:"calories_per_100g"`
	// Harm is 0 (clean) to 10 (worst); >= 7 counts as unsafe.
	Harm float64 `json:"harm" yaml:"harm"`
}

// Lookup resolves a meal item. A nil Info means unknown.
type Lookup interface {
	Resolve(item day.Item) (*Info, error)
}

// Catalog is a static in-memory Lookup keyed by food ID.
type Catalog map[string]Info

// Resolve implements Lookup.
func (c Catalog) Resolve(item day.Item) (*Info, error) {
	info, ok := c[item.FoodID]
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// LoadCatalog reads a YAML map of food ID to Info.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nutrition catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition catalog: %w", err)
	}
	return c, nil
}

// Evaluation summarises a list of items.
type Evaluation struct {
	Calories float64
	// Harm is the calorie-weighted mean harm.
	Harm     float64
	MaxHarm  float64
	Resolved int
}

// Evaluate resolves each item, falling back to the raw calorie field and
// unknownHarm when the lookup is nil, fails, or panics.
func Evaluate(l Lookup, items []day.Item, unknownHarm float64) Evaluation {
	var ev Evaluation
	var weighted float64
	for _, item := range items {
		info := resolve(l, item)
		kcal := item.Calories
		harm := unknownHarm
		if info != nil {
			kcal = item.Grams * info.CaloriesPer100g / 100.0
			harm = info.Harm
			ev.Resolved++
		}
		if kcal < 0 {
			kcal = 0
		}
		ev.Calories += kcal
		weighted += kcal * harm
		if harm > ev.MaxHarm {
			ev.MaxHarm = harm
		}
	}
	if ev.Calories > 0 {
		ev.Harm = weighted / ev.Calories
	} else if len(items) > 0 {
		ev.Harm = unknownHarm
	}
	return ev
}

func resolve(l Lookup, item day.Item) (info *Info) {
	if l == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Str("food_id", item.FoodID).Msg("nutrition lookup panicked")
			info = nil
		}
	}()
	got, err := l.Resolve(item)
	if err != nil {
		log.Debug().Err(err).Str("food_id", item.FoodID).Msg("nutrition lookup failed")
		return nil
	}
	return got
}
