package models

// Location - населённый пункт из ответа погодного провайдера.
type Location struct {
	Name           string  `json:"name"`
	Region         string  `json:"region"`
	Country        string  `json:"country"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	TzID           string  `json:"tz_id"`
	LocaltimeEpoch int64   `json:"localtime_epoch"`
	Localtime      string  `json:"localtime"`
}

// Condition - текстовое описание погоды и иконка.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// CurrentConditions - текущая погода.
// UV доступен только на премиум-тарифе и может быть вырезан из ответа.
type CurrentConditions struct {
	LastUpdatedEpoch int64     `json:"last_updated_epoch"`
	LastUpdated      string    `json:"last_updated"`
	TempC            float64   `json:"temp_c"`
	TempF            float64   `json:"temp_f"`
	IsDay            int       `json:"is_day"`
	Condition        Condition `json:"condition"`
	WindMph          float64   `json:"wind_mph"`
	WindKph          float64   `json:"wind_kph"`
	WindDegree       int       `json:"wind_degree"`
	WindDir          string    `json:"wind_dir"`
	PressureMb       float64   `json:"pressure_mb"`
	PressureIn       float64   `json:"pressure_in"`
	PrecipMm         float64   `json:"precip_mm"`
	PrecipIn         float64   `json:"precip_in"`
	Humidity         int       `json:"humidity"`
	Cloud            int       `json:"cloud"`
	FeelslikeC       float64   `json:"feelslike_c"`
	FeelslikeF       float64   `json:"feelslike_f"`
	VisKm            float64   `json:"vis_km"`
	VisMiles         float64   `json:"vis_miles"`
	UV               *float64  `json:"uv,omitempty"`
	GustMph          float64   `json:"gust_mph"`
	GustKph          float64   `json:"gust_kph"`
}

// Weather - ответ current.json.
type Weather struct {
	Location Location          `json:"location"`
	Current  CurrentConditions `json:"current"`
}

// DaySummary - дневная сводка прогноза.
type DaySummary struct {
	MaxtempC          float64   `json:"maxtemp_c"`
	MaxtempF          float64   `json:"maxtemp_f"`
	MintempC          float64   `json:"mintemp_c"`
	MintempF          float64   `json:"mintemp_f"`
	AvgtempC          float64   `json:"avgtemp_c"`
	AvgtempF          float64   `json:"avgtemp_f"`
	MaxwindMph        float64   `json:"maxwind_mph"`
	MaxwindKph        float64   `json:"maxwind_kph"`
	TotalprecipMm     float64   `json:"totalprecip_mm"`
	TotalprecipIn     float64   `json:"totalprecip_in"`
	Avghumidity       float64   `json:"avghumidity"`
	Condition         Condition `json:"condition"`
	UV                *float64  `json:"uv,omitempty"`
	DailyWillItRain   int       `json:"daily_will_it_rain"`
	DailyWillItSnow   int       `json:"daily_will_it_snow"`
	DailyChanceOfRain int       `json:"daily_chance_of_rain"`
	DailyChanceOfSnow int       `json:"daily_chance_of_snow"`
}

// Astro - восход, закат и фаза луны.
type Astro struct {
	Sunrise          string  `json:"sunrise"`
	Sunset           string  `json:"sunset"`
	Moonrise         string  `json:"moonrise"`
	Moonset          string  `json:"moonset"`
	MoonPhase        string  `json:"moon_phase"`
	MoonIllumination float64 `json:"moon_illumination"`
	IsMoonUp         int     `json:"is_moon_up"`
	IsSunUp          int     `json:"is_sun_up"`
}

// HourForecast - почасовой прогноз.
type HourForecast struct {
	TimeEpoch  int64     `json:"time_epoch"`
	Time       string    `json:"time"`
	TempC      float64   `json:"temp_c"`
	TempF      float64   `json:"temp_f"`
	Condition  Condition `json:"condition"`
	WindMph    float64   `json:"wind_mph"`
	WindKph    float64   `json:"wind_kph"`
	WindDegree int       `json:"wind_degree"`
	WindDir    string    `json:"wind_dir"`
	PressureMb float64   `json:"pressure_mb"`
	PressureIn float64   `json:"pressure_in"`
	PrecipMm   float64   `json:"precip_mm"`
	PrecipIn   float64   `json:"precip_in"`
	Humidity   int       `json:"humidity"`
	Cloud      int       `json:"cloud"`
	FeelslikeC float64   `json:"feelslike_c"`
	FeelslikeF float64   `json:"feelslike_f"`
	IsDay      int       `json:"is_day"`
}

// ForecastDay - прогноз на один день.
// Astro и Hour доступны только на премиум-тарифе.
type ForecastDay struct {
	Date      string         `json:"date"`
	DateEpoch int64          `json:"date_epoch"`
	Day       DaySummary     `json:"day"`
	Astro     *Astro         `json:"astro,omitempty"`
	Hour      []HourForecast `json:"hour,omitempty"`
}

// Forecast - ответ forecast.json.
type Forecast struct {
	Location Location          `json:"location"`
	Current  CurrentConditions `json:"current"`
	Forecast struct {
		ForecastDay []ForecastDay `json:"forecastday"`
	} `json:"forecast"`
}

// CityComparison - элемент сравнения погоды в нескольких городах.
type CityComparison struct {
	City     string       `json:"city"`
	Weather  *Weather     `json:"weather"`
	Tomorrow *ForecastDay `json:"tomorrow"`
	Error    string       `json:"error,omitempty"`
}
