// Package anim holds the animation clip description shared by the actor state
// model and the wire codec, plus the library whitelist used for validation.
package anim

import "strings"

const DefaultDelta = 4.1

type Data struct {
	Delta  float32
	Loop   bool
	LockX  bool
	LockY  bool
	Freeze bool
	Time   uint32
	Lib    string
	Name   string
}

func New(lib, name string) Data {
	return Data{Delta: DefaultDelta, LockX: true, LockY: true, Lib: lib, Name: name}
}

// Persistent reports whether the clip must be replayed when the entity is
// streamed to a client again.
func (d Data) Persistent() bool {
	return d.Loop || d.Freeze
}

var libraries = toSet(
	"AIRPORT", "ATTRACTORS", "BAR", "BASEBALL", "BD_FIRE", "BEACH", "BENCHPRESS",
	"BF_INJECTION", "BIKED", "BIKEH", "BIKELEAP", "BIKES", "BIKEV", "BIKE_DBZ", "BMX",
	"BOMBER", "BOX", "BSKTBALL", "BUDDY", "BUS", "CAMERA", "CAR", "CARRY", "CAR_CHAT",
	"CASINO", "CHAINSAW", "CHOPPA", "CLOTHES", "COACH", "COLT45", "COP_AMBIENT",
	"COP_DVBYZ", "CRACK", "CRIB", "DAM_JUMP", "DANCING", "DEALER", "DODGE", "DOZER",
	"DRIVEBYS", "FAT", "FIGHT_B", "FIGHT_C", "FIGHT_D", "FIGHT_E", "FINALE", "FINALE2",
	"FLAME", "FLOWERS", "FOOD", "FREEWEIGHTS", "GANGS", "GHANDS", "GHETTO_DB", "GOGGLES",
	"GRAFFITI", "GRAVEYARD", "GRENADE", "GYMNASIUM", "HAIRCUTS", "HEIST9", "INT_HOUSE",
	"INT_OFFICE", "INT_SHOP", "JST_BUISNESS", "KART", "KISSING", "KNIFE", "LOWRIDER",
	"MD_CHASE", "MD_END", "MEDIC", "MISC", "MTB", "MUSCULAR", "NEVADA", "ON_LOOKERS",
	"OTB", "PARACHUTE", "PARK", "PAULNMAC", "PED", "PLAYER_DVBYS", "PLAYIDLES", "POLICE",
	"POOL", "POOR", "PYTHON", "QUAD", "QUAD_DBZ", "RAPPING", "RIFLE", "RIOT", "ROB_BANK",
	"ROCKET", "RUSTLER", "RYDER", "SHAMAL", "SHOP", "SHOTGUN", "SILENCED", "SKATE",
	"SMOKING", "SNIPER", "SPRAYCAN", "STRIP", "SUNBATHE", "SWAT", "SWEET", "SWIM", "SWORD",
	"TANK", "TATTOOS", "TEC", "TRAIN", "TRUCK", "UZI", "VAN", "VENDING", "VORTEX",
	"WAYFARER", "WEAPONS", "WUZI",
)

// Libraries that only exist on some client builds.
var extendedLibraries = toSet("SCRATCHING", "WOP", "GFUNK", "RUNNINGMAN", "SAMP")

func toSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// LibraryValid reports whether lib names a known animation library. The
// comparison is case-insensitive; all admits the extended set as well.
func LibraryValid(lib string, all bool) bool {
	key := strings.ToUpper(lib)
	if _, ok := libraries[key]; ok {
		return true
	}
	if all {
		_, ok := extendedLibraries[key]
		return ok
	}
	return false
}
