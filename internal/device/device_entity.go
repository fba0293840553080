package device

type Direction string

const (
	DirectionEntry Direction = "entry"
	DirectionExit  Direction = "exit"
)

func (d Direction) Valid() bool {
	return d == DirectionEntry || d == DirectionExit
}

// DeviceLocation is where a terminal is installed. Direction belongs to the
// terminal, never to the event it reports.
type DeviceLocation struct {
	Address   string    `yaml:"address"`
	Site      string    `yaml:"site"`
	Door      string    `yaml:"door"`
	Direction Direction `yaml:"direction"`
}

// DefaultLocations is used when no device table file is configured.
var DefaultLocations = []DeviceLocation{
	{Address: "192.168.1.190", Site: "Makon", Door: "Main door", Direction: DirectionEntry},
	{Address: "192.168.1.191", Site: "Makon", Door: "Main door", Direction: DirectionExit},
}
