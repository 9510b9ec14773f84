package robot

// PowerState is the activity a robot is engaged in. Exactly one is active.
type PowerState int

const (
	Standby PowerState = iota
	Enroute
	Delivering
	Returning
	Charging
)

func (s PowerState) String() string {
	switch s {
	case Standby:
		return "STANDBY"
	case Enroute:
		return "ENROUTE"
	case Delivering:
		return "DELIVERING"
	case Returning:
		return "RETURNING"
	case Charging:
		return "CHARGING"
	default:
		return "UNKNOWN"
	}
}

// Moving reports whether a robot in s walks its active trajectory each tick.
func (s PowerState) Moving() bool {
	return s == Enroute || s == Delivering || s == Returning
}
