package actors

import "actornet/internal/netcode"

func (a *Actor) Vehicle() int {
	return a.vehicle
}

func (a *Actor) Seat() int {
	return a.seat
}

func (a *Actor) leaveVehicle() {
	vehicles := a.services.Vehicles()
	if vehicles == nil {
		return
	}
	if v, ok := vehicles.Get(a.vehicle); ok {
		v.RemoveActor(a)
	}
}

// PutInVehicle seats the actor in v. force teleports it into the seat;
// otherwise clients play the entry animation.
func (a *Actor) PutInVehicle(v Vehicle, seat int, force bool) {
	a.leaveVehicle()

	a.vehicle = v.ID()
	a.seat = seat
	v.AddActor(a)

	if force {
		a.broadcast(netcode.PutActorInVehicle{ActorID: a.wireID(), VehicleID: uint16(v.ID()), SeatID: uint8(seat)})
		return
	}
	a.broadcast(netcode.ActorGoInVehicle{ActorID: a.wireID(), VehicleID: uint16(v.ID()), SeatID: uint8(seat)})
}

func (a *Actor) RemoveFromVehicle(force bool) {
	a.leaveVehicle()
	a.vehicle = InvalidVehicleID
	a.seat = SeatNone
	a.broadcast(netcode.RemoveActorFromVehicle{ActorID: a.wireID(), Force: force})
}
