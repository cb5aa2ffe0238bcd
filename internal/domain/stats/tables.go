package stats

// MetricValue is one bar of a metric chart.
type MetricValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Tables bundles every metric chart for a snapshot.
type Tables struct {
	WinRate      []MetricValue `json:"win_rate"`
	ROI          []MetricValue `json:"roi"`
	HourlyRate   []MetricValue `json:"hourly_rate"`
	MaxGain      []MetricValue `json:"max_gain"`
	AverageBuyin []MetricValue `json:"average_buyin"`
	AverageStack []MetricValue `json:"average_stack"`
	TotalBuyin   []MetricValue `json:"total_buyin"`
}

func table(all []PlayerStats, value func(PlayerStats) (float64, bool)) []MetricValue {
	out := make([]MetricValue, 0, len(all))
	for _, s := range all {
		v, ok := value(s)
		if !ok {
			continue
		}
		out = append(out, MetricValue{Name: s.Name, Value: v})
	}
	return out
}

func always(f func(PlayerStats) float64) func(PlayerStats) (float64, bool) {
	return func(s PlayerStats) (float64, bool) { return f(s), true }
}

// WinRates lists win rate per player; players without games show 0.
func WinRates(all []PlayerStats) []MetricValue {
	return table(all, always(func(s PlayerStats) float64 { return s.WinRate }))
}

// ROIs lists return on investment per player.
func ROIs(all []PlayerStats) []MetricValue {
	return table(all, always(func(s PlayerStats) float64 { return s.ROI }))
}

// HourlyRates lists net per hour per player.
func HourlyRates(all []PlayerStats) []MetricValue {
	return table(all, always(func(s PlayerStats) float64 { return s.HourlyRate }))
}

// MaxGains lists the largest single-game gain per player.
func MaxGains(all []PlayerStats) []MetricValue {
	return table(all, always(func(s PlayerStats) float64 { return s.MaxGain }))
}

// TotalBuyins lists the total amount bought in per player.
func TotalBuyins(all []PlayerStats) []MetricValue {
	return table(all, always(func(s PlayerStats) float64 { return s.TotalBuyin }))
}

// AverageBuyins lists the average buy-in value; players without games are omitted.
func AverageBuyins(all []PlayerStats) []MetricValue {
	return table(all, PlayerStats.AverageBuyin)
}

// AverageStacks lists the average final stack; players without games are omitted.
func AverageStacks(all []PlayerStats) []MetricValue {
	return table(all, PlayerStats.AverageStack)
}

// BuildTables renders every metric table from computed stats.
func BuildTables(all []PlayerStats) Tables {
	return Tables{
		WinRate:      WinRates(all),
		ROI:          ROIs(all),
		HourlyRate:   HourlyRates(all),
		MaxGain:      MaxGains(all),
		AverageBuyin: AverageBuyins(all),
		AverageStack: AverageStacks(all),
		TotalBuyin:   TotalBuyins(all),
	}
}
