package economy

// ModifierKind indicates how a rent modifier combines with the running total.
type ModifierKind int

const (
	// ModifierMultiplicative scales the running rent value.
	ModifierMultiplicative ModifierKind = iota
	// ModifierAdditive adds a flat amount to the running rent value.
	ModifierAdditive
)

func (k ModifierKind) String() string {
	switch k {
	case ModifierMultiplicative:
		return "MULTIPLICATIVE"
	case ModifierAdditive:
		return "ADDITIVE"
	default:
		return "UNKNOWN"
	}
}

// Weather is one entry of the closed weather set. The zero value is
// WeatherClear, which leaves rent untouched.
type Weather int

const (
	WeatherClear Weather = iota
	WeatherRain
	WeatherSnow
	WeatherHeatwave
	WeatherStorm
)

var weatherNames = map[Weather]string{
	WeatherClear:    "CLEAR",
	WeatherRain:     "RAIN",
	WeatherSnow:     "SNOW",
	WeatherHeatwave: "HEATWAVE",
	WeatherStorm:    "STORM",
}

func (w Weather) String() string {
	if name, ok := weatherNames[w]; ok {
		return name
	}
	return "UNKNOWN"
}

// RentMultiplier returns the rent scale applied while this weather is active.
func (w Weather) RentMultiplier() float64 {
	switch w {
	case WeatherRain:
		return 0.9
	case WeatherSnow:
		return 0.8
	case WeatherHeatwave:
		return 1.1
	case WeatherStorm:
		return 0.7
	default:
		return 1.0
	}
}

// AllWeathers lists every member of the closed weather set, used by the
// calendar when rotating to a random entry.
func AllWeathers() []Weather {
	return []Weather{WeatherClear, WeatherRain, WeatherSnow, WeatherHeatwave, WeatherStorm}
}

// EconomicEvent is a board-wide rent modifier with a limited duration.
// Kind is an explicit tag: multiplicative events scale rent by Value,
// additive events add Value to it.
type EconomicEvent struct {
	Name     string       `json:"name"`
	Kind     ModifierKind `json:"kind"`
	Value    float64      `json:"value"`
	Duration int          `json:"duration"` // remaining turns
}

// CulturalEvent grants a flat rent bonus for a limited duration.
// Cultural effects are always additive.
type CulturalEvent struct {
	Name     string `json:"name"`
	Bonus    int    `json:"bonus"`
	Duration int    `json:"duration"` // remaining turns
}

// EconomicCatalog is the fixed set of economic events the calendar rolls from.
func EconomicCatalog() []EconomicEvent {
	return []EconomicEvent{
		{Name: "BOOM", Kind: ModifierMultiplicative, Value: 1.25, Duration: 5},
		{Name: "RECESSION", Kind: ModifierMultiplicative, Value: 0.75, Duration: 5},
		{Name: "MARKET_CRASH", Kind: ModifierMultiplicative, Value: 0.5, Duration: 3},
		{Name: "INFLATION", Kind: ModifierAdditive, Value: 50, Duration: 4},
		{Name: "TAX_BREAK", Kind: ModifierAdditive, Value: 25, Duration: 4},
	}
}

// CulturalCatalog is the fixed set of cultural events.
func CulturalCatalog() []CulturalEvent {
	return []CulturalEvent{
		{Name: "FESTIVAL", Bonus: 30, Duration: 4},
		{Name: "CARNIVAL", Bonus: 20, Duration: 3},
		{Name: "EXHIBITION", Bonus: 15, Duration: 5},
	}
}
