package attendance

const (
	defaultOnTimePoints = 10
	defaultLatePoints   = 5
)

// Schedule fixes the points credited per check-in status. The numbers are
// deployment configuration, not part of the state-machine contract; both
// values must stay positive so every successful check-in earns points.
type Schedule struct {
	OnTimePoints uint64
	LatePoints   uint64
}

// DefaultSchedule returns the stock schedule: full credit on time, half
// credit when late.
func DefaultSchedule() Schedule {
	return Schedule{OnTimePoints: defaultOnTimePoints, LatePoints: defaultLatePoints}
}

// Normalize replaces zero values with the defaults and returns the schedule.
func (s Schedule) Normalize() Schedule {
	if s.OnTimePoints == 0 {
		s.OnTimePoints = defaultOnTimePoints
	}
	if s.LatePoints == 0 {
		s.LatePoints = defaultLatePoints
	}
	return s
}

// PointsFor returns the points earned for the given status.
func (s Schedule) PointsFor(status Status) uint64 {
	if status == StatusLate {
		return s.LatePoints
	}
	return s.OnTimePoints
}
