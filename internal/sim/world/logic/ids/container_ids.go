// Package ids builds and parses world container identifiers.
package ids

import (
	"fmt"
	"strconv"
	"strings"
)

// InventoryType is the container type of actor inventories.
const InventoryType = "INV"

func ContainerID(typ string, x, y, z int) string {
	return fmt.Sprintf("%s@%d,%d,%d", typ, x, y, z)
}

func ParseContainerID(id string) (typ string, x, y, z int, ok bool) {
	parts := strings.SplitN(id, "@", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, 0, 0, false
	}
	typ = parts[0]
	coord := strings.Split(parts[1], ",")
	if len(coord) != 3 {
		return "", 0, 0, 0, false
	}
	x, err1 := strconv.Atoi(coord[0])
	y, err2 := strconv.Atoi(coord[1])
	z, err3 := strconv.Atoi(coord[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", 0, 0, 0, false
	}
	return typ, x, y, z, true
}

// OvenID names an oven of kind placed at x,y,z.
func OvenID(kind string, x, y, z int) string {
	return ContainerID(strings.ToUpper(kind), x, y, z)
}

// InventoryID names the inventory carried by actorID.
func InventoryID(actorID string) string {
	return InventoryType + "@" + actorID
}

// IsInventoryID reports whether id names an actor inventory.
func IsInventoryID(id string) bool {
	return strings.HasPrefix(id, InventoryType+"@")
}
