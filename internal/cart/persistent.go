package cart

import (
	"encoding/binary"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
)

// Field names one of the six u32 slots of the persistent data region.
type Field int

const (
	GameMode Field = iota
	MaxFrames
	GameSeed
	Frames
	Score
	Health
	fieldCount
)

var fieldNames = [...]string{"game_mode", "max_frames", "game_seed", "frames", "score", "health"}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// Offset is the byte offset of the field inside the persistent region.
func (f Field) Offset() int { return int(f) * 4 }

// PersistentData is a view over the persistent region of a bus. Values are
// opaque guest data and round-trip unchanged.
type PersistentData struct {
	mem []byte
}

func NewPersistentData(b *bus.Bus) PersistentData {
	return PersistentData{mem: b.Persistent()}
}

func (p PersistentData) Get(f Field) uint32 {
	return binary.LittleEndian.Uint32(p.mem[f.Offset():])
}

func (p PersistentData) Set(f Field, v uint32) {
	binary.LittleEndian.PutUint32(p.mem[f.Offset():], v)
}

// Snapshot copies the raw region.
func (p PersistentData) Snapshot() [bus.PersistentSize]byte {
	var out [bus.PersistentSize]byte
	copy(out[:], p.mem)
	return out
}

// Fields is the decoded form of a persistent region, used for dumps.
type Fields struct {
	GameMode  uint32 `json:"game_mode"`
	MaxFrames uint32 `json:"max_frames"`
	GameSeed  uint32 `json:"game_seed"`
	Frames    uint32 `json:"frames"`
	Score     uint32 `json:"score"`
	Health    uint32 `json:"health"`
}

func (p PersistentData) Fields() Fields {
	return Fields{
		GameMode:  p.Get(GameMode),
		MaxFrames: p.Get(MaxFrames),
		GameSeed:  p.Get(GameSeed),
		Frames:    p.Get(Frames),
		Score:     p.Get(Score),
		Health:    p.Get(Health),
	}
}

// DecodeFields parses a raw 24-byte region, e.g. from an exit payload.
func DecodeFields(raw []byte) (Fields, error) {
	if len(raw) != bus.PersistentSize {
		return Fields{}, fmt.Errorf("persistent data: got %d bytes, want %d", len(raw), bus.PersistentSize)
	}
	return PersistentData{mem: raw}.Fields(), nil
}
