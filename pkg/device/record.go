package device

// Member identifies the account member a device record belongs to. The
// acting user ID authenticates station commands.
type Member struct {
	ActionUserID string `json:"action_user_id"`
}

// ParamRecord is one parameter entry as the cloud inventory carries it.
type ParamRecord struct {
	Type  ParamType `json:"param_type"`
	Value string    `json:"param_value"`
}

// Record is a device entry from the cloud inventory (get_devs_list).
type Record struct {
	Serial          string        `json:"device_sn"`
	Name            string        `json:"device_name"`
	Model           string        `json:"device_model"`
	Type            Type          `json:"device_type"`
	StationSerial   string        `json:"station_sn"`
	Status          int           `json:"status"`
	HardwareVersion string        `json:"main_hw_version"`
	SoftwareVersion string        `json:"main_sw_version"`
	WiFiMAC         string        `json:"wifi_mac"`
	CoverPath       string        `json:"cover_path"`
	IPAddr          string        `json:"ip_addr"`
	Member          Member        `json:"member"`
	Params          []ParamRecord `json:"params"`
}

// ParamMap folds the record's parameter list into a lookup map.
func (r Record) ParamMap() Params {
	p := make(Params, len(r.Params))
	for _, entry := range r.Params {
		p[entry.Type] = entry.Value
	}
	return p
}

// StationRecord is a station entry from the cloud inventory
// (get_hub_list). Standalone devices (doorbells, floodlights) appear in
// both lists.
type StationRecord struct {
	Serial          string        `json:"station_sn"`
	Name            string        `json:"station_name"`
	Model           string        `json:"station_model"`
	Type            Type          `json:"device_type"`
	Status          int           `json:"status"`
	HardwareVersion string        `json:"main_hw_version"`
	SoftwareVersion string        `json:"main_sw_version"`
	WiFiMAC         string        `json:"wifi_mac"`
	IPAddr          string        `json:"ip_addr"`
	P2PDID          string        `json:"p2p_did"`
	Member          Member        `json:"member"`
	Params          []ParamRecord `json:"params"`
}
