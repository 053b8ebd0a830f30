//go:build linux

package system

import (
	"encoding/binary"
	"testing"
)

func inputEvent(tvSize int, typ, code uint16, value int32) []byte {
	rec := make([]byte, tvSize+8)
	binary.LittleEndian.PutUint16(rec[tvSize:], typ)
	binary.LittleEndian.PutUint16(rec[tvSize+2:], code)
	binary.LittleEndian.PutUint32(rec[tvSize+4:], uint32(value))
	return rec
}

func TestKeyPressed(t *testing.T) {
	const tv = 16
	var buf []byte
	buf = append(buf, inputEvent(tv, 0x04, 4, 62)...)     // EV_MSC scan code
	buf = append(buf, inputEvent(tv, evKey, KeyF4, 0)...) // release
	if keyPressed(buf, tv, KeyF4) {
		t.Fatalf("release should not count as a press")
	}
	buf = append(buf, inputEvent(tv, evKey, KeyF4, 1)...)
	if !keyPressed(buf, tv, KeyF4) {
		t.Fatalf("press not detected")
	}
	if keyPressed(buf, tv, KeyEsc) {
		t.Fatalf("wrong key matched")
	}
	if keyPressed(buf[:tv+4], tv, KeyF4) {
		t.Fatalf("truncated record matched")
	}
}
