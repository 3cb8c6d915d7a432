package fixings

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/meenmo/cpnlib/utils"
)

// File is the on-disk layout of a fixing file:
//
//	index: EURIBOR1M
//	fixings:
//	  - date: "2011-01-03"
//	    rate: 0.01
type File struct {
	Index   string      `yaml:"index"`
	Fixings []FilePoint `yaml:"fixings"`
}

// FilePoint is one fixing in a File.
type FilePoint struct {
	Date string  `yaml:"date"`
	Rate float64 `yaml:"rate"`
}

// LoadYAML reads a fixing file and returns its index name and series.
func LoadYAML(r io.Reader) (string, *TimeSeries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("LoadYAML: read: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("LoadYAML: decode: %w", err)
	}
	dates := make([]time.Time, len(f.Fixings))
	values := make([]float64, len(f.Fixings))
	for i, p := range f.Fixings {
		d, err := utils.ParseDate(p.Date)
		if err != nil {
			return "", nil, fmt.Errorf("LoadYAML: fixing %d: %w", i, err)
		}
		dates[i] = d
		values[i] = p.Rate
	}
	ts, err := NewTimeSeries(dates, values)
	if err != nil {
		return "", nil, fmt.Errorf("LoadYAML: %w", err)
	}
	return f.Index, ts, nil
}
