package settings

// Type is the numeric discriminator stored in the settings.type column.
// It mirrors the key prefix (S_/B_/N_/F_) so clients can decode values
// either way.
type Type int

// Setting value types.
const (
	TypeString Type = 0
	TypeBool   Type = 1
	TypeNumber Type = 2
	TypeFloat  Type = 3
)

// String returns the human-readable name of the type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known setting type.
func (t Type) Valid() bool {
	return t >= TypeString && t <= TypeFloat
}

// Setting is a single row in the settings table.
type Setting struct {
	// ID is the prefixed key, e.g. "S_devicePath" or "N_deviceBaud".
	ID string `json:"id"`

	// Value is the stored value as text. Nil means the key is seeded
	// but not configured yet.
	Value *string `json:"value"`

	// Type is the value type discriminator.
	Type Type `json:"type"`
}

// Well-known setting keys seeded at boot.
const (
	KeyDevicePath               = "S_devicePath"
	KeyDeviceBaud               = "N_deviceBaud"
	KeyStartOnBoot              = "B_startOnBoot"
	KeyAdjustCorrectionF        = "F_adjustCorrectionF"
	KeySavePrinterNotifications = "B_savePrinterNotifications"
	KeyDeviceWidth              = "N_deviceWidth"
	KeyDeviceHeight             = "N_deviceHeight"
	KeyDeviceDepth              = "N_deviceDepth"
	KeyDeviceHeatedBed          = "B_deviceHB"
	KeyDeviceHeatedChamber      = "B_deviceHC"
	KeyClientTerminalAmount     = "N_clientTerminalAmount"
	KeySentryDSN                = "S_sentryDsn"
)

// strPtr returns a pointer to s, for seeding default values.
func strPtr(s string) *string {
	return &s
}

// Defaults returns the settings seeded on first boot. Keys with a nil
// value require user configuration before the device can connect.
func Defaults() []Setting {
	return []Setting{
		{ID: KeyDevicePath, Value: nil, Type: TypeString},
		{ID: KeyDeviceBaud, Value: nil, Type: TypeNumber},
		{ID: KeyStartOnBoot, Value: strPtr("false"), Type: TypeBool},
		{ID: KeyAdjustCorrectionF, Value: nil, Type: TypeFloat},
		{ID: KeySavePrinterNotifications, Value: strPtr("true"), Type: TypeBool},
		{ID: KeyDeviceWidth, Value: nil, Type: TypeNumber},
		{ID: KeyDeviceHeight, Value: nil, Type: TypeNumber},
		{ID: KeyDeviceDepth, Value: nil, Type: TypeNumber},
		{ID: KeyDeviceHeatedBed, Value: strPtr("false"), Type: TypeBool},
		{ID: KeyDeviceHeatedChamber, Value: strPtr("false"), Type: TypeBool},
		{ID: KeyClientTerminalAmount, Value: strPtr("500"), Type: TypeNumber},
		{ID: KeySentryDSN, Value: nil, Type: TypeString},
	}
}
