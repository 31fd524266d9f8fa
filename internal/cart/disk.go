package cart

import "encoding/binary"

// DiskCapacity is the largest blob a cart can persist.
const DiskCapacity = 1024

// DiskStateSize is the serialized size of a Disk: u16 size + data.
const DiskStateSize = 2 + DiskCapacity

// Disk is the cart's small persistent blob. Only the first Size bytes of Data
// are meaningful.
type Disk struct {
	Size uint16
	Data [DiskCapacity]byte
}

// Read copies min(Size, len(dst)) bytes into dst and returns the count.
func (d *Disk) Read(dst []byte) int {
	return copy(dst, d.Data[:d.Size])
}

// Write replaces the contents with the first min(len(src), DiskCapacity)
// bytes of src. An empty src empties the disk.
func (d *Disk) Write(src []byte) int {
	n := copy(d.Data[:], src)
	clear(d.Data[n:])
	d.Size = uint16(n)
	return n
}

// Bytes returns a copy of the stored contents.
func (d *Disk) Bytes() []byte {
	out := make([]byte, d.Size)
	copy(out, d.Data[:d.Size])
	return out
}

func (d *Disk) MarshalTo(dst []byte) {
	binary.LittleEndian.PutUint16(dst[0:2], d.Size)
	copy(dst[2:DiskStateSize], d.Data[:])
}

// UnmarshalFrom restores a Disk written by MarshalTo. A corrupt size is
// clamped to the capacity.
func (d *Disk) UnmarshalFrom(src []byte) {
	size := binary.LittleEndian.Uint16(src[0:2])
	if size > DiskCapacity {
		size = DiskCapacity
	}
	d.Size = size
	copy(d.Data[:], src[2:DiskStateSize])
}
