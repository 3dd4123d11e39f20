// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iwvelando/ev-tco/internal/tco"
	"github.com/iwvelando/ev-tco/pkg/constants"
	"github.com/iwvelando/ev-tco/pkg/validation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for ev-tco.
type Configuration struct {
	Inputs  tco.Inputs    `mapstructure:"inputs" yaml:"inputs"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging,omitempty"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, xlsx, pdf
	File   string `mapstructure:"file" yaml:"file,omitempty"`     // required for xlsx and pdf
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return load(data)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return load(data)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func load(data []byte) (*Configuration, error) {
	// Viper folds key case, so the inputs section is checked on the document
	// as written. It must carry exactly the expected fields, each with a value,
	// before any decoding happens; mapstructure would otherwise zero-fill.
	var doc struct {
		Inputs map[string]interface{} `yaml:"inputs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	if err := checkInputs(doc.Inputs); err != nil {
		return nil, err
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

func checkInputs(raw map[string]interface{}) error {
	keys := make([]string, 0, len(raw))
	var nulls []string
	for key, value := range raw {
		keys = append(keys, key)
		if value == nil {
			nulls = append(nulls, key)
		}
	}
	if err := validation.CheckFieldSet(keys, tco.FieldNames()); err != nil {
		return err
	}
	return validation.CheckNullFields(nulls)
}

// ValidateConfiguration performs range validation of the inputs and returns
// warnings. Out-of-range values do not stop the computation.
func (c *Configuration) ValidateConfiguration() []string {
	return ValidateInputs(c.Inputs)
}

// ValidateInputs checks the inputs against the ranges the collection layer
// accepts.
func ValidateInputs(in tco.Inputs) []string {
	warnings := validation.Collect(
		validation.CheckIntRange("base_year", in.BaseYear, constants.MinBaseYear, constants.MaxBaseYear),
		validation.CheckIntRange("horizon_years", in.HorizonYears, constants.MinHorizonYears, constants.MaxHorizonYears),
		validation.CheckNonNegative("hours_per_year", in.HoursPerYear),
		validation.CheckNonNegative("diesel_l_per_h", in.DieselLPerH),
		validation.CheckNonNegative("diesel_price_eur_per_l", in.DieselPriceEURPerL),
		validation.CheckNonNegative("electricity_price_eur_per_kwh", in.ElectricityPriceEURPerKWh),
		validation.CheckNonNegative("invest_eur", in.InvestEUR),
		validation.CheckFloatRange("subsidy_rate", in.SubsidyRate, 0, 1),
		validation.CheckNonNegative("resale_old_device_eur", in.ResaleOldDeviceEUR),
		validation.CheckFloatRange("loan_interest", in.LoanInterest, 0, 1),
		validation.CheckIntRange("loan_years_total", in.LoanYearsTotal, 0, constants.MaxLoanYears),
		validation.CheckIntRange("loan_grace_years", in.LoanGraceYears, 0, constants.MaxGraceYears),
		validation.CheckFloatRange("discount_rate", in.DiscountRate, 0, 1),
	)

	if in.LoanGraceYears > in.LoanYearsTotal {
		warnings = append(warnings, fmt.Sprintf("loan_grace_years: %d grace years exceed loan term of %d years",
			in.LoanGraceYears, in.LoanYearsTotal))
	}

	return warnings
}
