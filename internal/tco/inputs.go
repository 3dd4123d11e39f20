// Package tco computes the total cost of ownership of replacing a diesel
// device with its electric equivalent.
package tco

import (
	"reflect"
	"strings"
)

// Inputs holds every parameter of a TCO run. All fields are mandatory at the
// input boundary; the wire names in the tags form the schema checked there.
type Inputs struct {
	// Meta / horizon
	ProjectName  string `json:"project_name" yaml:"project_name" mapstructure:"project_name"`
	BaseYear     int    `json:"base_year" yaml:"base_year" mapstructure:"base_year"`
	HorizonYears int    `json:"horizon_years" yaml:"horizon_years" mapstructure:"horizon_years"`

	// Diesel baseline
	HoursPerYear        float64 `json:"hours_per_year" yaml:"hours_per_year" mapstructure:"hours_per_year"`
	DieselLPerH         float64 `json:"diesel_l_per_h" yaml:"diesel_l_per_h" mapstructure:"diesel_l_per_h"`
	DieselTotalLPerYear float64 `json:"diesel_total_l_per_year" yaml:"diesel_total_l_per_year" mapstructure:"diesel_total_l_per_year"`
	DieselPriceEURPerL  float64 `json:"diesel_price_eur_per_l" yaml:"diesel_price_eur_per_l" mapstructure:"diesel_price_eur_per_l"`

	// Electric alternative
	ElectricityKWhPerYear     float64 `json:"electricity_kwh_per_year" yaml:"electricity_kwh_per_year" mapstructure:"electricity_kwh_per_year"`
	ElectricityPriceEURPerKWh float64 `json:"electricity_price_eur_per_kwh" yaml:"electricity_price_eur_per_kwh" mapstructure:"electricity_price_eur_per_kwh"`

	// Investment
	InvestEUR          float64 `json:"invest_eur" yaml:"invest_eur" mapstructure:"invest_eur"`
	SubsidyRate        float64 `json:"subsidy_rate" yaml:"subsidy_rate" mapstructure:"subsidy_rate"`
	ResaleOldDeviceEUR float64 `json:"resale_old_device_eur" yaml:"resale_old_device_eur" mapstructure:"resale_old_device_eur"`

	// Financing
	LoanInterest   float64 `json:"loan_interest" yaml:"loan_interest" mapstructure:"loan_interest"`
	LoanYearsTotal int     `json:"loan_years_total" yaml:"loan_years_total" mapstructure:"loan_years_total"`
	LoanGraceYears int     `json:"loan_grace_years" yaml:"loan_grace_years" mapstructure:"loan_grace_years"`

	// NPV
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate" mapstructure:"discount_rate"`
}

// FieldNames returns the wire names of all Inputs fields in declaration order.
func FieldNames() []string {
	t := reflect.TypeOf(Inputs{})
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, wireName(t.Field(i)))
	}
	return names
}

// AsMap returns a snapshot of the inputs keyed by wire name.
func (in Inputs) AsMap() map[string]any {
	v := reflect.ValueOf(in)
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out[wireName(t.Field(i))] = v.Field(i).Interface()
	}
	return out
}

func wireName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	return name
}
