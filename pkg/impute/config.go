package impute

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ErrNoTypicalValue is returned when the final fallback tier needs a typical
// value for a column that is not configured. There is no well-defined output
// in that case, so the whole imputation fails.
var ErrNoTypicalValue = errors.New("no typical value configured")

// Config drives the per-patient imputation. The first identifier column is
// the patient key; identifier columns never appear in the output.
type Config struct {
	Identifiers []string
	// AverageOnly lists columns kept out of trend fitting even when their
	// missing-count profile qualifies. Age does not vary within a stay.
	AverageOnly []string
	// TrendMissingLimit is the inclusive per-patient missing-count bound
	// for fitting a trend.
	TrendMissingLimit int
	// EligibilityQuantile is the quantile of the per-patient missing-count
	// distribution compared against TrendMissingLimit.
	EligibilityQuantile float64
	TypicalValues       map[string]float64
	Workers             int
}

func DefaultConfig() Config {
	return Config{
		Identifiers:         []string{"pid", "Time"},
		AverageOnly:         []string{"Age"},
		TrendMissingLimit:   8,
		EligibilityQuantile: 0.25,
		TypicalValues:       DefaultTypicalValues(),
		Workers:             runtime.NumCPU(),
	}
}

type typicalValuesFile struct {
	Values map[string]float64 `yaml:"values"`
}

// LoadTypicalValues reads a column -> fallback scalar mapping from a YAML
// file. An empty path yields the built-in table.
func LoadTypicalValues(path string) (map[string]float64, error) {
	if path == "" {
		return DefaultTypicalValues(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var file typicalValuesFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, err
	}
	if len(file.Values) == 0 {
		return nil, fmt.Errorf("typical values file %s is empty", path)
	}
	return file.Values, nil
}

// DefaultTypicalValues holds dataset-wide averages observed on the full
// training corpus, used only when a column has no values at all.
func DefaultTypicalValues() map[string]float64 {
	return map[string]float64{
		"pid":              15788.831218741774,
		"Time":             7.014398525927875,
		"Age":              62.07380889707818,
		"EtCO2":            32.88311356434632,
		"PTT":              40.09130983590656,
		"BUN":              23.192663516538175,
		"Lactate":          2.8597155076236422,
		"Temp":             36.852135856500034,
		"Hgb":              10.628207669881103,
		"HCO3":             23.488100167210746,
		"BaseExcess":       -1.2392844571830848,
		"RRate":            18.154043187688046,
		"Fibrinogen":       262.496911351785,
		"Phosphate":        3.612519413287318,
		"WBC":              11.738648535345682,
		"Creatinine":       1.4957773156474896,
		"PaCO2":            41.11569643111729,
		"AST":              193.4448880402708,
		"FiO2":             0.7016656642357807,
		"Platelets":        204.66642639312448,
		"SaO2":             93.010527124635,
		"Glucose":          142.169406624713,
		"ABPm":             82.11727559995713,
		"Magnesium":        2.004148832962384,
		"Potassium":        4.152729193815373,
		"ABPd":             64.01471072970384,
		"Calcium":          7.161149186763874,
		"Alkalinephos":     97.79616327960757,
		"SpO2":             97.6634493216935,
		"Bilirubin_direct": 1.390723226703758,
		"Chloride":         106.26018538478121,
		"Hct":              31.28308971681893,
		"Heartrate":        84.52237068276303,
		"Bilirubin_total":  1.6409406684190786,
		"TroponinI":        7.269239936440605,
		"ABPs":             122.3698773806418,
		"pH":               7.367231494050988,
	}
}
