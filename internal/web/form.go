package web

import (
	"net/url"
	"strconv"
)

// Action is a one-shot command posted from the page.
type Action string

const (
	ActionNone       Action = ""
	ActionClearLogs  Action = "clear_logs"
	ActionResetStats Action = "reset_stats"
	ActionTestEmail  Action = "test_email"
	ActionRestart    Action = "restart"
)

// Update carries the parsed configuration form. Nil fields were absent or
// unparseable and leave the current value untouched.
type Update struct {
	TempMin     *float64
	TempMax     *float64
	HumidityMin *float64
	HumidityMax *float64
	VPDMin      *float64
	VPDMax      *float64

	EmailUsername *string
	EmailPassword *string
	EmailTo       *string
	EmailEnabled  *bool
	EmailCooldown *int

	Action Action
}

// ParseUpdate decodes a url-encoded form body. Parsing is best-effort: a bad
// field is skipped, never fatal, matching the permissive handling the device
// has always had.
func ParseUpdate(body []byte) Update {
	var u Update

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return u
	}

	u.TempMin = floatField(values, "temp_min")
	u.TempMax = floatField(values, "temp_max")
	u.HumidityMin = floatField(values, "humidity_min")
	u.HumidityMax = floatField(values, "humidity_max")
	u.VPDMin = floatField(values, "vpd_min")
	u.VPDMax = floatField(values, "vpd_max")

	u.EmailUsername = stringField(values, "email_username")
	u.EmailPassword = stringField(values, "email_password")
	u.EmailTo = stringField(values, "email_to")
	if v := stringField(values, "email_enabled"); v != nil {
		on := *v == "on"
		u.EmailEnabled = &on
	}
	u.EmailCooldown = intField(values, "email_cooldown")

	switch a := Action(values.Get("action")); a {
	case ActionClearLogs, ActionResetStats, ActionTestEmail, ActionRestart:
		u.Action = a
	}

	return u
}

func floatField(values url.Values, key string) *float64 {
	if !values.Has(key) {
		return nil
	}
	v, err := strconv.ParseFloat(values.Get(key), 64)
	if err != nil {
		return nil
	}
	return &v
}

func intField(values url.Values, key string) *int {
	if !values.Has(key) {
		return nil
	}
	v, err := strconv.Atoi(values.Get(key))
	if err != nil {
		return nil
	}
	return &v
}

func stringField(values url.Values, key string) *string {
	if !values.Has(key) {
		return nil
	}
	v := values.Get(key)
	return &v
}
