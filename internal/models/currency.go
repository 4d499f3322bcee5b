package models

// ExchangeRate - официальный курс валюты по отношению к белорусскому рублю
// в том виде, в котором его отдаёт API Нацбанка.
type ExchangeRate struct {
	CurID           int     `json:"Cur_ID"`
	Date            string  `json:"Date"`
	CurAbbreviation string  `json:"Cur_Abbreviation"`
	CurScale        int     `json:"Cur_Scale"`
	CurName         string  `json:"Cur_Name"`
	CurOfficialRate float64 `json:"Cur_OfficialRate"`
}

// CurrencyInfo - курс валюты в формате ответа клиенту.
// Rate BYN стоят Scale единиц валюты.
type CurrencyInfo struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Rate  float64 `json:"rate"`
	Scale int     `json:"scale"`
}

// CurrencyRates - ответ со списком курсов. AllRates для бесплатного тарифа
// совпадает с Rates.
type CurrencyRates struct {
	Rates     []CurrencyInfo `json:"rates"`
	AllRates  []CurrencyInfo `json:"allRates"`
	IsPremium bool           `json:"isPremium"`
}

// Conversion - результат конвертации суммы через белорусский рубль.
type Conversion struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}
