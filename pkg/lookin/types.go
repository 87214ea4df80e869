package lookin

// DeviceInfo is the hub's own description from GET /device
type DeviceInfo struct {
	Type           string `json:"Type"`
	MRDC           string `json:"MRDC"`
	Status         string `json:"Status"`
	ID             string `json:"ID"`
	Name           string `json:"Name"`
	Time           string `json:"Time"`
	Timezone       string `json:"Timezone"`
	PowerMode      string `json:"PowerMode"`
	CurrentVoltage string `json:"CurrentVoltage"`
	Firmware       string `json:"Firmware"`
	Temperature    string `json:"Temperature"`
	SensorMode     string `json:"SensorMode"`
	BluetoothMode  string `json:"BluetoothMode"`
}

// DeviceSettings carries the mutable device fields for POST /device.
// Empty fields are left unmodified on the hub.
type DeviceSettings struct {
	Name          string `json:"Name,omitempty"`
	Time          string `json:"Time,omitempty"`
	Timezone      string `json:"Timezone,omitempty"`
	SensorMode    string `json:"SensorMode,omitempty"`
	BluetoothMode string `json:"BluetoothMode,omitempty"`
}

// NetworkInfo is the hub's network state from GET /network
type NetworkInfo struct {
	Mode        string `json:"Mode"`
	IP          string `json:"IP"`
	CurrentSSID string `json:"CurrentSSID"`
}

// IRReading is one IR sensor snapshot from GET /sensors/IR.
// Raw holds whitespace-separated signed timing values in microseconds;
// an empty Raw means the sensor saw nothing since the last trigger.
// Protocol and IsRepeated are informational hints from the firmware decoder.
type IRReading struct {
	Value      string `json:"Value"`
	Updated    string `json:"Updated"`
	Raw        string `json:"Raw"`
	Protocol   string `json:"Protocol"`
	Signal     string `json:"Signal"`
	IsRepeated string `json:"IsRepeated"`
}

// MeteoReading is one Meteo sensor snapshot from GET /sensors/Meteo
type MeteoReading struct {
	Temperature float64 `json:"Temperature"`
	Humidity    float64 `json:"Humidity"`
	Pressure    float64 `json:"Pressure"`
	Updated     string  `json:"Updated"`
}

// RemoteEntry is one saved IR remote from GET /data
type RemoteEntry struct {
	UUID    string `json:"UUID"`
	Type    string `json:"Type"`
	Updated string `json:"Updated"`
}

// RemoteDetail is a saved IR remote's full record from GET /data/{uuid}
type RemoteDetail struct {
	Name       string   `json:"Name"`
	Type       string   `json:"Type"`
	Extra      string   `json:"Extra"`
	Status     string   `json:"Status"`
	LastStatus string   `json:"LastStatus"`
	Functions  []string `json:"Functions"`
}

// RawSignal is the device API representation of one raw IR signal
type RawSignal struct {
	Frequency string `json:"Frequency"`
	Signal    string `json:"Signal"`
}

// FunctionSignal wraps a signal for function create/update payloads.
// Only raw signals are supported; the other command formats live on
// the device and are triggered by reference.
type FunctionSignal struct {
	Raw RawSignal `json:"raw"`
}

// FunctionDetail is a remote function's record from GET /data/{uuid}/{name}
type FunctionDetail struct {
	Name    string           `json:"Name"`
	Type    string           `json:"Type"`
	Signals []FunctionSignal `json:"Signals"`
}

// Function types accepted by the hub for remote functions
const (
	FunctionTypeSingle = "single"
	FunctionTypeToggle = "toggle"
)

// RemoteType values as stored in the hub's Type field (hex string)
const (
	RemoteTypeCustom         = "00"
	RemoteTypeTV             = "01"
	RemoteTypeMedia          = "02"
	RemoteTypeLight          = "03"
	RemoteTypeHumidifier     = "04"
	RemoteTypeAirPurifier    = "05"
	RemoteTypeVacuum         = "06"
	RemoteTypeFan            = "07"
	RemoteTypeAirConditioner = "EF"
)
