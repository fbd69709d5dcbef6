package core

// RampPhase selects how a ring's per-step delay is eased.
type RampPhase uint8

const (
	RampNone RampPhase = iota
	RampUp
	RampDown
)

func (p RampPhase) String() string {
	switch p {
	case RampNone:
		return "none"
	case RampUp:
		return "ramp-up"
	case RampDown:
		return "ramp-down"
	}
	return "invalid"
}

// RampFactorMax is the slowest delay multiplier, at the still end of a ramp.
const RampFactorMax = 10

// pow10Table holds 10^(i/64) for i in 0..64 in Q12 fixed point.
var pow10Table = [65]uint32{
	4096, 4246, 4402, 4563, 4730, 4903, 5083, 5269, 5462, 5662, 5870, 6085, 6308,
	6539, 6778, 7026, 7284, 7551, 7827, 8114, 8411, 8719, 9039, 9370, 9713, 10069,
	10438, 10820, 11217, 11627, 12053, 12495, 12953, 13427, 13919, 14429, 14958,
	15505, 16073, 16662, 17273, 17905, 18561, 19241, 19946, 20677, 21434, 22220,
	23034, 23877, 24752, 25659, 26599, 27573, 28583, 29630, 30716, 31841, 33007,
	34216, 35470, 36769, 38116, 39513, 40960,
}

// pow10Q12 returns 10^(num/den) in Q12 for num in [0, den], interpolating
// linearly between table entries.
func pow10Q12(num, den uint32) uint32 {
	if den == 0 || num >= den {
		return pow10Table[64]
	}
	pos := uint64(num) * 64 * 256 / uint64(den)
	i := pos >> 8
	frac := uint32(pos & 0xFF)
	lo, hi := pow10Table[i], pow10Table[i+1]
	return lo + (hi-lo)*frac/256
}

// RampDelay returns the delay in ms for one step of a ramp.
//
// Both directions walk the same base-10 curve. Ramping up starts at
// RampFactorMax*baseDelay on step 0 and falls to baseDelay as step reaches
// totalSteps; ramping down is the mirror image, starting at baseDelay and
// rising toward RampFactorMax*baseDelay. Step 0 is a valid starting point.
// With no phase or no steps the delay is baseDelay.
func RampDelay(baseDelay, step, totalSteps uint32, phase RampPhase) uint32 {
	if totalSteps == 0 {
		return baseDelay
	}
	step = min(step, totalSteps)

	var factor uint32
	switch phase {
	case RampUp:
		factor = pow10Q12(totalSteps-step, totalSteps)
	case RampDown:
		factor = pow10Q12(step, totalSteps)
	default:
		return baseDelay
	}
	return uint32((uint64(baseDelay)*uint64(factor) + 2048) >> 12)
}
