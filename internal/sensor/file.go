package sensor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// File reads temperature and humidity from two text files, the shape exposed
// by Linux iio/hwmon drivers (one number per file). Scale converts raw units
// to °C / %RH, e.g. 0.001 for millidegree sysfs attributes.
type File struct {
	TempPath     string
	HumidityPath string
	Scale        float64
}

// NewFile builds a file-backed sensor. A zero scale means no scaling.
func NewFile(tempPath, humidityPath string, scale float64) *File {
	if scale == 0 {
		scale = 1
	}
	return &File{TempPath: tempPath, HumidityPath: humidityPath, Scale: scale}
}

// Read parses both files. Any I/O or parse failure wraps ErrRead.
func (f *File) Read(ctx context.Context) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrRead, err)
	}

	temp, err := readValue(f.TempPath)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: temperature: %v", ErrRead, err)
	}
	hum, err := readValue(f.HumidityPath)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: humidity: %v", ErrRead, err)
	}
	return temp * f.Scale, hum * f.Scale, nil
}

func readValue(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}
