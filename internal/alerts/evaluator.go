package alerts

import (
	"fmt"

	"github.com/edgegrow/envmon/internal/models"
)

// Evaluate compares one reading against the thresholds and returns the
// violations in fixed order: temperature, humidity, VPD. The order is part of
// the contract — the log renderer shows the first record of an entry, and the
// email body enumerates records in this order.
//
// Comparisons are strict: a value exactly equal to a bound is in range.
// Per channel a record is low or high, never both.
func Evaluate(r models.Reading, t Thresholds) []models.AlertRecord {
	var out []models.AlertRecord

	if r.Temperature < t.TempMin {
		out = append(out, models.AlertRecord{
			Channel:   models.ChannelTemperature,
			Severity:  models.SeverityLow,
			Value:     r.Temperature,
			Threshold: t.TempMin,
			Message: fmt.Sprintf("Temperature LOW: %.1f°C (%.1f°F) - Min: %g°C",
				r.Temperature, r.TempF(), t.TempMin),
		})
	} else if r.Temperature > t.TempMax {
		out = append(out, models.AlertRecord{
			Channel:   models.ChannelTemperature,
			Severity:  models.SeverityHigh,
			Value:     r.Temperature,
			Threshold: t.TempMax,
			Message: fmt.Sprintf("Temperature HIGH: %.1f°C (%.1f°F) - Max: %g°C",
				r.Temperature, r.TempF(), t.TempMax),
		})
	}

	if r.Humidity < t.HumidityMin {
		out = append(out, models.AlertRecord{
			Channel:   models.ChannelHumidity,
			Severity:  models.SeverityLow,
			Value:     r.Humidity,
			Threshold: t.HumidityMin,
			Message: fmt.Sprintf("Humidity LOW: %.1f%% - Min: %g%%",
				r.Humidity, t.HumidityMin),
		})
	} else if r.Humidity > t.HumidityMax {
		out = append(out, models.AlertRecord{
			Channel:   models.ChannelHumidity,
			Severity:  models.SeverityHigh,
			Value:     r.Humidity,
			Threshold: t.HumidityMax,
			Message: fmt.Sprintf("Humidity HIGH: %.1f%% - Max: %g%%",
				r.Humidity, t.HumidityMax),
		})
	}

	if r.VPD < t.VPDMin {
		out = append(out, models.AlertRecord{
			Channel:   models.ChannelVPD,
			Severity:  models.SeverityLow,
			Value:     r.VPD,
			Threshold: t.VPDMin,
			Message: fmt.Sprintf("VPD LOW: %.2fkPa - Min: %gkPa (Too humid for optimal growth)",
				r.VPD, t.VPDMin),
		})
	} else if r.VPD > t.VPDMax {
		out = append(out, models.AlertRecord{
			Channel:   models.ChannelVPD,
			Severity:  models.SeverityHigh,
			Value:     r.VPD,
			Threshold: t.VPDMax,
			Message: fmt.Sprintf("VPD HIGH: %.2fkPa - Max: %gkPa (Too dry, may stress plants)",
				r.VPD, t.VPDMax),
		})
	}

	return out
}
