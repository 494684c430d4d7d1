//go:build !linux

package fsabi

import "github.com/tuhh-sat/pluto-core/glue"

func statCreationTime(string) (glue.GpsTime, bool) {
	return glue.GpsTime{}, false
}

func freeSpace(string) (uint64, bool) {
	return 0, false
}
