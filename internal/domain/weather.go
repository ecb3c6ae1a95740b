package domain

// Weather is the area condition attached to a batch of scored routes
type Weather struct {
	Condition   string `json:"condition"`
	Description string `json:"description"`
}

// UnknownWeather is returned whenever the weather provider cannot answer
var UnknownWeather = Weather{Condition: "unknown", Description: "unknown"}

// Summary renders the weather as "{condition}|{description}"
func (w Weather) Summary() string {
	cond, desc := w.Condition, w.Description
	if cond == "" {
		cond = UnknownWeather.Condition
	}
	if desc == "" {
		desc = UnknownWeather.Description
	}
	return cond + "|" + desc
}
