package telemetry

// StatusResponse models the device gateway's connectivity envelope.
type StatusResponse struct {
	Code int `json:"code"`
	Data struct {
		WeightConnected bool `json:"weightConnected"`
		MeterConnected  bool `json:"meterConnected"`
	} `json:"data"`
}

// ValueResponse models the device gateway's per-channel reading envelope.
type ValueResponse struct {
	Code int `json:"code"`
	Data struct {
		Value float64 `json:"value"`
	} `json:"data"`
}
