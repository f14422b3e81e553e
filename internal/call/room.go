package call

// DeriveRoomID computes the room both sides of a call join. Sorting the
// participant pair lets caller and callee derive the same name without a
// round trip.
func DeriveRoomID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "call_" + a + "_" + b
}
